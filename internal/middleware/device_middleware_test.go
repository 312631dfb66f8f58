package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/must-canteen/pkg/ratelimit"
	"github.com/ikkim/must-canteen/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret-for-middleware"

func setupMiddlewareTest() (*gin.Engine, *DeviceMiddleware) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	middleware := NewDeviceMiddleware(testJWTSecret, time.Hour)
	return router, middleware
}

func echoDevice(c *gin.Context) {
	deviceID, _ := GetDeviceID(c)
	c.JSON(http.StatusOK, gin.H{"device_id": deviceID})
}

func TestDeviceMiddleware_ValidToken(t *testing.T) {
	router, deviceMiddleware := setupMiddlewareTest()
	router.GET("/test", deviceMiddleware.Identify(), echoDevice)

	token, err := util.GenerateDeviceToken("dev-1", testJWTSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"device_id":"dev-1"`)
	assert.Empty(t, w.Header().Get(DeviceTokenHeader))
}

func TestDeviceMiddleware_QueryToken(t *testing.T) {
	router, deviceMiddleware := setupMiddlewareTest()
	router.GET("/ws", deviceMiddleware.Identify(), echoDevice)

	token, err := util.GenerateDeviceToken("dev-ws", testJWTSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/ws?token="+token, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"device_id":"dev-ws"`)
}

func TestDeviceMiddleware_IssuesTokenForNewDevice(t *testing.T) {
	router, deviceMiddleware := setupMiddlewareTest()
	router.GET("/test", deviceMiddleware.Identify(), echoDevice)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	issued := w.Header().Get(DeviceTokenHeader)
	require.NotEmpty(t, issued)

	claims, err := util.ValidateToken(issued, testJWTSecret)
	require.NoError(t, err)
	assert.Contains(t, w.Body.String(), claims.DeviceID)
	assert.Regexp(t, `^dev-`, claims.DeviceID)
}

func TestDeviceMiddleware_Rejects(t *testing.T) {
	router, deviceMiddleware := setupMiddlewareTest()
	router.GET("/test", deviceMiddleware.Identify(), echoDevice)

	expired, err := util.GenerateDeviceToken("dev-1", testJWTSecret, -time.Minute)
	require.NoError(t, err)
	foreign, err := util.GenerateDeviceToken("dev-1", "other-secret", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"Missing Bearer prefix", "invalid-token", "AUTH_TOKEN_INVALID"},
		{"Wrong prefix", "Basic token123", "AUTH_TOKEN_INVALID"},
		{"Empty token", "Bearer ", "AUTH_TOKEN_INVALID"},
		{"Garbage token", "Bearer invalid.jwt.token", "AUTH_TOKEN_INVALID"},
		{"Wrong secret", "Bearer " + foreign, "AUTH_TOKEN_INVALID"},
		{"Expired", "Bearer " + expired, "AUTH_TOKEN_EXPIRED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", tt.header)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
		})
	}
}

func TestRateLimit(t *testing.T) {
	router, deviceMiddleware := setupMiddlewareTest()
	limiter := ratelimit.NewKeyedLimiter(1, 2)
	router.GET("/test", deviceMiddleware.Identify(), RateLimit(limiter), echoDevice)

	tokenA, err := util.GenerateDeviceToken("dev-a", testJWTSecret, time.Hour)
	require.NoError(t, err)
	tokenB, err := util.GenerateDeviceToken("dev-b", testJWTSecret, time.Hour)
	require.NoError(t, err)

	call := func(token string) int {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call(tokenA))
	assert.Equal(t, http.StatusOK, call(tokenA))
	assert.Equal(t, http.StatusTooManyRequests, call(tokenA))
	// buckets are per device
	assert.Equal(t, http.StatusOK, call(tokenB))
	assert.Equal(t, 2, limiter.Len())
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoggingMiddleware())
	router.GET("/test", func(c *gin.Context) {
		assert.NotNil(t, GetLoggerFromContext(c))
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	assert.NotEmpty(t, w.Body.String())
}
