package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eli5y/eli5y/internal/config"
	"github.com/eli5y/eli5y/internal/interfaces/http/handlers"
	"github.com/eli5y/eli5y/internal/testutil"
)

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Port:            0,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: time.Second,
	}
}

func TestServer_HandlerServesRoutes(t *testing.T) {
	router := NewRouter(RouterConfig{
		HealthHandler: handlers.NewHealthHandler(nil, testutil.NewMockLogger()),
	})
	srv := NewServer(testServerConfig(), router, testutil.NewMockLogger())

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_StopWithoutStartSucceeds(t *testing.T) {
	srv := NewServer(testServerConfig(), http.NewServeMux(), testutil.NewMockLogger())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
}
