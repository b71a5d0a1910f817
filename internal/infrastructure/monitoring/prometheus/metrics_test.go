package prometheus

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_CountersAccumulate(t *testing.T) {
	m := NewMetrics()

	m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/formulas/parse", "200").Inc()
	m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/formulas/parse", "200").Inc()
	m.AlignmentDropsTotal.WithLabelValues("normalize", "glue_subsumed").Inc()
	m.CacheHitsTotal.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/formulas/parse", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.AlignmentDropsTotal.WithLabelValues("normalize", "glue_subsumed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
}

func TestMetrics_HandlerServesExposition(t *testing.T) {
	m := NewMetrics()
	m.OCRConfidence.Observe(0.81)
	m.HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200").Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "eli5y_ocr_confidence")
	assert.Contains(t, rec.Body.String(), "eli5y_http_requests_total")
}

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	// Two instances must not collide, each carries its own registry.
	a := NewMetrics()
	b := NewMetrics()
	a.CacheMissesTotal.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.CacheMissesTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CacheMissesTotal))
}
