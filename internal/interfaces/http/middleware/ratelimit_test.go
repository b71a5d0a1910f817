package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLimitedRouter(limiter *TokenBucketLimiter) *gin.Engine {
	r := gin.New()
	r.Use(RateLimit(limiter))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/work", ok)
	r.GET("/healthz", ok)
	return r
}

func get(r http.Handler, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BurstThenRejects(t *testing.T) {
	limiter := NewTokenBucketLimiter(0.001, 3, 0)
	defer limiter.Stop()
	r := newLimitedRouter(limiter)

	for i := 0; i < 3; i++ {
		w := get(r, "/work", "10.0.0.1")
		require.Equal(t, http.StatusOK, w.Code, "request %d should pass", i)
	}

	w := get(r, "/work", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	limiter := NewTokenBucketLimiter(0.001, 1, 0)
	defer limiter.Stop()
	r := newLimitedRouter(limiter)

	require.Equal(t, http.StatusOK, get(r, "/work", "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/work", "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, get(r, "/work", "10.0.0.2").Code)
}

func TestRateLimit_HealthProbesBypass(t *testing.T) {
	limiter := NewTokenBucketLimiter(0.001, 1, 0)
	defer limiter.Stop()
	r := newLimitedRouter(limiter)

	require.Equal(t, http.StatusOK, get(r, "/work", "10.0.0.1").Code)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/healthz", "10.0.0.1").Code)
	}
}

func TestTokenBucketLimiter_RefillsOverTime(t *testing.T) {
	limiter := NewTokenBucketLimiter(100, 1, 0)
	defer limiter.Stop()

	allowed, _ := limiter.Allow("k")
	require.True(t, allowed)
	allowed, _ = limiter.Allow("k")
	require.False(t, allowed)

	time.Sleep(30 * time.Millisecond)

	allowed, _ = limiter.Allow("k")
	assert.True(t, allowed)
}

func TestTokenBucketLimiter_CleanupEvictsIdleBuckets(t *testing.T) {
	limiter := NewTokenBucketLimiter(1000, 2, 0)
	defer limiter.Stop()
	limiter.cleanupInterval = 10 * time.Millisecond

	limiter.Allow("a")
	limiter.Allow("b")
	require.Equal(t, 2, limiter.BucketCount())

	time.Sleep(25 * time.Millisecond)
	limiter.cleanup()

	assert.Equal(t, 0, limiter.BucketCount())
}
