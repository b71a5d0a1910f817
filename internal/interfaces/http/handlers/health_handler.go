package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eli5y/eli5y/internal/infrastructure/monitoring/logging"
)

// CheckFunc probes one dependency for readiness.
type CheckFunc func(ctx context.Context) error

// readinessTimeout bounds how long a single dependency probe may take.
const readinessTimeout = 2 * time.Second

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checks map[string]CheckFunc
	logger logging.Logger
}

// NewHealthHandler creates the probe handler.  checks maps a dependency
// name to its probe; an empty map makes readiness equivalent to liveness.
func NewHealthHandler(checks map[string]CheckFunc, logger logging.Logger) *HealthHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HealthHandler{checks: checks, logger: logger.Named("health")}
}

// Liveness reports that the process is up.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness probes every registered dependency and reports per-dependency
// state.  Any failing probe turns the response into a 503.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("readiness probe failed",
				logging.String("dependency", name), logging.Err(err))
			deps[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := gin.H{"status": "ok", "dependencies": deps}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}
