package http

import (
	"net/http"
	"strconv"

	"tubepulse/domain/apierror"
	"tubepulse/domain/dto"
	"tubepulse/usecase"

	"github.com/gin-gonic/gin"
)

// IAnalyzerHandler defines the interface for analyzer HTTP handlers
type IAnalyzerHandler interface {
	AnalyzeChannels(ctx *gin.Context)
	SearchChannels(ctx *gin.Context)
	GetQuotaStatus(ctx *gin.Context)
	ResetQuota(ctx *gin.Context)
}

// AnalyzerHandler implements the analyzer HTTP handlers
type AnalyzerHandler struct {
	analyzerUseCase usecase.IAnalyzerUseCase
}

// NewAnalyzerHandler creates a new analyzer handler instance
func NewAnalyzerHandler(analyzerUseCase usecase.IAnalyzerUseCase) IAnalyzerHandler {
	return &AnalyzerHandler{
		analyzerUseCase: analyzerUseCase,
	}
}

// AnalyzeChannels handles POST /api/analyze
func (h *AnalyzerHandler) AnalyzeChannels(ctx *gin.Context) {
	req := &dto.AnalyzeRequest{}
	if err := ctx.ShouldBindJSON(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}

	response, err := h.analyzerUseCase.AnalyzeChannels(ctx.Request.Context(), req)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": response})
}

// SearchChannels handles GET /api/channels/search
func (h *AnalyzerHandler) SearchChannels(ctx *gin.Context) {
	query := ctx.Query("q")
	if query == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "Search query (q) is required",
		})
		return
	}
	maxResults := int64(5)
	if raw := ctx.Query("max_results"); raw != "" {
		if val, err := strconv.ParseInt(raw, 10, 64); err == nil {
			maxResults = val
		}
	}

	response, err := h.analyzerUseCase.SearchChannelSuggestions(ctx.Request.Context(), query, maxResults)
	if err != nil {
		status, message := statusForError(err)
		ctx.JSON(status, gin.H{"error": message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": response})
}

// GetQuotaStatus handles GET /api/quota
func (h *AnalyzerHandler) GetQuotaStatus(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": h.analyzerUseCase.GetQuotaStatus()})
}

// ResetQuota handles POST /api/admin/quota/reset
func (h *AnalyzerHandler) ResetQuota(ctx *gin.Context) {
	status := h.analyzerUseCase.ResetQuota(ctx.Request.Context())
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": status})
}

// statusForError maps the error taxonomy onto HTTP statuses with a
// remediation-specific message.
func statusForError(err error) (int, string) {
	switch apierror.KindOf(err) {
	case apierror.KindRateLimited:
		return http.StatusTooManyRequests, "Upstream rate limit reached, retry shortly"
	case apierror.KindQuotaExceeded:
		return http.StatusTooManyRequests, "Daily API quota exhausted, try again after the daily reset"
	case apierror.KindUpstreamNotFound, apierror.KindResolutionFailed:
		return http.StatusNotFound, err.Error()
	case apierror.KindUpstreamPermission:
		return http.StatusBadGateway, "Upstream API credentials rejected"
	default:
		return http.StatusBadGateway, "Upstream API unavailable"
	}
}
