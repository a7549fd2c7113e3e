package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tubepulse/infrastructure/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newProtectedRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/admin", Auth(secret), func(ctx *gin.Context) {
		subject, _ := ctx.Get("subject")
		ctx.JSON(http.StatusOK, gin.H{"subject": subject})
	})
	return router
}

func doRequest(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestAuthAcceptsSignedToken(t *testing.T) {
	token, err := utils.GenerateToken(map[string]interface{}{
		"sub": "ops",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, testSecret)
	require.NoError(t, err)

	recorder := doRequest(newProtectedRouter(testSecret), "Bearer "+token)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "ops")
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	recorder := doRequest(newProtectedRouter(testSecret), "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAuthRejectsMalformedToken(t *testing.T) {
	recorder := doRequest(newProtectedRouter(testSecret), "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "not even a token")
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	token, err := utils.GenerateToken(map[string]interface{}{
		"sub": "ops",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}, testSecret)
	require.NoError(t, err)

	recorder := doRequest(newProtectedRouter(testSecret), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "expired")
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	token, err := utils.GenerateToken(map[string]interface{}{
		"sub": "ops",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, "another-secret")
	require.NoError(t, err)

	recorder := doRequest(newProtectedRouter(testSecret), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
