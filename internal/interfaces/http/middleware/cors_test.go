package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eli5y/eli5y/internal/config"
)

func newCORSRouter(cfg config.CORSConfig) *gin.Engine {
	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/data", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func corsConfig(origins ...string) config.CORSConfig {
	return config.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAgeSeconds:  3600,
	}
}

func corsGet(r http.Handler, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/data", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS_AllowedOriginGetsHeaders(t *testing.T) {
	r := newCORSRouter(corsConfig("https://app.example.com"))

	w := corsGet(r, http.MethodGet, "https://app.example.com")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Values("Vary"), "Origin")
}

func TestCORS_UnknownOriginGetsNoHeaders(t *testing.T) {
	r := newCORSRouter(corsConfig("https://app.example.com"))

	w := corsGet(r, http.MethodGet, "https://evil.example.net")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_WildcardAllowsAnyOrigin(t *testing.T) {
	r := newCORSRouter(corsConfig("*"))

	w := corsGet(r, http.MethodGet, "https://anything.example.org")

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	r := newCORSRouter(corsConfig("https://app.example.com"))

	w := corsGet(r, http.MethodOptions, "https://app.example.com")

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_NonBrowserRequestPassesThrough(t *testing.T) {
	r := newCORSRouter(corsConfig("https://app.example.com"))

	w := corsGet(r, http.MethodGet, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
