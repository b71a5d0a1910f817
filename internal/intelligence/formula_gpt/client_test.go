package formula_gpt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eli5y/eli5y/internal/infrastructure/monitoring/prometheus"
	"github.com/eli5y/eli5y/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := NewModelConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = "sk-test"
	cfg.Retry.InitialBackoff = time.Millisecond
	cfg.Retry.MaxBackoff = 2 * time.Millisecond

	c, err := NewClient(cfg, nil, nil)
	require.NoError(t, err)
	return c, srv
}

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	reply := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	require.NoError(t, json.NewEncoder(w).Encode(reply))
}

func TestDraft_DecodesStructuredReply(t *testing.T) {
	var gotReq chatRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		chatReply(t, w, `{"explanation":"measure the miss","components":[{"symbol":"y_i","role":"observed value","counterpart":"the miss"}]}`)
	})

	draft, err := c.Draft(context.Background(), "y_i-f(x_i)")
	require.NoError(t, err)

	assert.Equal(t, "measure the miss", draft.Explanation)
	require.Len(t, draft.Components, 1)
	assert.Equal(t, []string{"y_i"}, draft.Components[0].Symbols)
	assert.Equal(t, "the miss", draft.Components[0].Counterpart)

	// The request carried the schema constraint and both prompt turns.
	require.NotNil(t, gotReq.ResponseFormat)
	assert.Equal(t, "json_schema", gotReq.ResponseFormat.Type)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[1].Content, "y_i-f(x_i)")
}

func TestDraft_MalformedDraftJSONFails(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "not json at all")
	})

	_, err := c.Draft(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeLLMMalformedResponse))
}

func TestComplete_RetriesOn5xxThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		chatReply(t, w, "steady now")
	})

	out, err := c.Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "steady now", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestComplete_RateLimitExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Complete(context.Background(), "sys", "usr")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeLLMRateLimited))
	assert.Equal(t, int32(c.cfg.Retry.MaxRetries)+1, calls.Load())
}

func TestComplete_4xxIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Complete(context.Background(), "sys", "usr")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeLLMInferenceFailed))
	assert.Equal(t, int32(1), calls.Load())
}

func TestComplete_EmptyChoicesFails(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := c.Complete(context.Background(), "sys", "usr")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeLLMMalformedResponse))
}

func TestNewClient_RejectsInvalidConfig(t *testing.T) {
	cfg := NewModelConfig()
	cfg.Model = ""
	_, err := NewClient(cfg, nil, nil)
	require.Error(t, err)
}

func TestComplete_RecordsUsageMetrics(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		reply := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "an answer"}},
			},
			"usage": map[string]any{
				"prompt_tokens":     120,
				"completion_tokens": 30,
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(reply))
	})
	c.metrics = prometheus.NewMetrics()

	_, err := c.Complete(context.Background(), "system", "user")
	require.NoError(t, err)

	assert.Equal(t, 1.0, promtest.ToFloat64(c.metrics.LLMRequestsTotal.WithLabelValues("chat", "ok")))
	assert.Equal(t, 120.0, promtest.ToFloat64(c.metrics.LLMTokensUsed.WithLabelValues("prompt")))
	assert.Equal(t, 30.0, promtest.ToFloat64(c.metrics.LLMTokensUsed.WithLabelValues("completion")))
}
