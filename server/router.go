package server

import (
	"net/http"
	"time"

	httpHandler "tubepulse/interfaces/http"
	"tubepulse/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitiateRouter(
	analyzerHandler httpHandler.IAnalyzerHandler,
	secretKey string,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "http://localhost:4201", "https://localhost:4200", "https://localhost:4201"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("api")
	{
		api.POST("/analyze", analyzerHandler.AnalyzeChannels)
		api.GET("/quota", analyzerHandler.GetQuotaStatus)
		api.GET("/channels/search", analyzerHandler.SearchChannels)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.Auth(secretKey))
	{
		admin.POST("/quota/reset", analyzerHandler.ResetQuota)
	}

	return router
}
