// Package http wires the gin route tree and the HTTP server around the
// application services.
package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"github.com/eli5y/eli5y/internal/config"
	"github.com/eli5y/eli5y/internal/infrastructure/monitoring/logging"
	"github.com/eli5y/eli5y/internal/infrastructure/monitoring/prometheus"
	"github.com/eli5y/eli5y/internal/interfaces/http/handlers"
	"github.com/eli5y/eli5y/internal/interfaces/http/middleware"
	"github.com/eli5y/eli5y/pkg/errors"
)

// RouterConfig aggregates the handlers and middleware dependencies the
// route tree is built from.  Nil handlers leave their routes unregistered
// so partial deployments (no OCR credentials, no tutor) stay possible.
type RouterConfig struct {
	FormulaHandler *handlers.FormulaHandler
	ChatHandler    *handlers.ChatHandler
	HealthHandler  *handlers.HealthHandler

	Metrics     *prometheus.Metrics
	RateLimiter *middleware.TokenBucketLimiter
	CORS        *config.CORSConfig

	Logger logging.Logger
}

// NewRouter constructs the complete route tree as a gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())

	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api/v1")
	if cfg.FormulaHandler != nil {
		api.POST("/formulas/parse", cfg.FormulaHandler.Parse)
		api.POST("/formulas/ocr", cfg.FormulaHandler.OCR)
		api.GET("/formulas", cfg.FormulaHandler.List)
		api.GET("/formulas/:id", cfg.FormulaHandler.Get)
	}
	if cfg.ChatHandler != nil {
		api.POST("/chat", cfg.ChatHandler.Chat)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(nethttp.StatusNotFound, handlers.ErrorResponse{
			Code:    string(errors.ErrCodeNotFound),
			Message: "route not found",
		})
	})

	return r
}
