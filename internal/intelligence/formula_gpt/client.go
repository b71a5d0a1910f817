package formula_gpt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eli5y/eli5y/internal/domain/alignment"
	"github.com/eli5y/eli5y/internal/infrastructure/monitoring/logging"
	"github.com/eli5y/eli5y/internal/infrastructure/monitoring/prometheus"
	"github.com/eli5y/eli5y/pkg/errors"
)

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	cfg     *ModelConfig
	hc      *http.Client
	url     string
	metrics *prometheus.Metrics
	logger  logging.Logger
}

// NewClient builds a Client from cfg.  The underlying http.Client carries the
// configured timeout; per-request contexts may shorten it further.  metrics
// may be nil.
func NewClient(cfg *ModelConfig, metrics *prometheus.Metrics, logger logging.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Client{
		cfg:     cfg,
		hc:      &http.Client{Timeout: cfg.Timeout},
		url:     strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		metrics: metrics,
		logger:  logger.Named("formula_gpt"),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
	Strict bool            `json:"strict"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage tokenUsage `json:"usage"`
}

type tokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Draft asks the model for a one-sentence explanation of latex with its
// semantic components.  The reply is schema-constrained, decoded, and
// returned untouched.
func (c *Client) Draft(ctx context.Context, latex string) (alignment.Draft, error) {
	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: parsePrompt},
			{Role: "user", Content: buildUserMessage(latex)},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		ResponseFormat: &responseFormat{
			Type:       "json_schema",
			JSONSchema: &jsonSchema{Name: "formula_parse", Schema: parseSchema, Strict: true},
		},
	}

	started := time.Now()
	content, usage, err := c.complete(ctx, "draft", req)
	if err != nil {
		return alignment.Draft{}, err
	}

	var draft alignment.Draft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return alignment.Draft{}, errors.Wrap(err, errors.ErrCodeLLMMalformedResponse,
			"formula_gpt: reply is not valid draft JSON")
	}

	c.logger.Info("draft completed",
		logging.Duration("elapsed", time.Since(started)),
		logging.Int("components", len(draft.Components)),
		logging.Int("prompt_tokens", usage.PromptTokens),
		logging.Int("completion_tokens", usage.CompletionTokens),
	)
	return draft, nil
}

// Complete runs a free-form exchange with the model and returns the reply
// text.  It is used by the tutor service, which constrains neither shape nor
// length of the answer.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	content, _, err := c.complete(ctx, "chat", req)
	return content, err
}

// complete sends req with exponential-backoff retries on 429, 5xx, and
// transport failures, and returns the first choice's message content plus
// the reported token usage.
func (c *Client) complete(ctx context.Context, op string, req chatRequest) (string, tokenUsage, error) {
	body, err := json.Marshal(&req)
	if err != nil {
		return "", tokenUsage{}, errors.Wrap(err, errors.ErrCodeSerialization, "formula_gpt: encode request")
	}

	started := time.Now()
	content, usage, err := c.retryLoop(ctx, body)
	c.observe(op, usage, err, time.Since(started))
	return content, usage, err
}

func (c *Client) retryLoop(ctx context.Context, body []byte) (string, tokenUsage, error) {
	backoff := c.cfg.Retry.InitialBackoff
	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retry.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", tokenUsage{}, errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "formula_gpt: context cancelled during retry wait")
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * c.cfg.Retry.BackoffMultiplier)
			if backoff > c.cfg.Retry.MaxBackoff {
				backoff = c.cfg.Retry.MaxBackoff
			}
		}

		content, usage, retryable, err := c.doOnce(ctx, body)
		if err == nil {
			return content, usage, nil
		}
		lastErr = err
		if !retryable {
			return "", tokenUsage{}, err
		}
		c.logger.Warn("upstream call failed, retrying",
			logging.Int("attempt", attempt+1),
			logging.Err(err),
		)
	}
	return "", tokenUsage{}, lastErr
}

func (c *Client) observe(op string, usage tokenUsage, err error, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.LLMRequestsTotal.WithLabelValues(op, status).Inc()
	c.metrics.LLMRequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	if usage.PromptTokens > 0 {
		c.metrics.LLMTokensUsed.WithLabelValues("prompt").Add(float64(usage.PromptTokens))
	}
	if usage.CompletionTokens > 0 {
		c.metrics.LLMTokensUsed.WithLabelValues("completion").Add(float64(usage.CompletionTokens))
	}
}

func (c *Client) doOnce(ctx context.Context, body []byte) (content string, usage tokenUsage, retryable bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", tokenUsage{}, false, errors.Wrap(err, errors.ErrCodeInternal, "formula_gpt: build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return "", tokenUsage{}, true, errors.Wrap(err, errors.ErrCodeLLMUnavailable, "formula_gpt: transport failure")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", tokenUsage{}, true, errors.Wrap(err, errors.ErrCodeLLMUnavailable, "formula_gpt: read response body")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", tokenUsage{}, true, errors.New(errors.ErrCodeLLMRateLimited, "formula_gpt: upstream rate limited")
	case resp.StatusCode >= 500:
		return "", tokenUsage{}, true, errors.New(errors.ErrCodeLLMUnavailable,
			fmt.Sprintf("formula_gpt: upstream status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return "", tokenUsage{}, false, errors.New(errors.ErrCodeLLMInferenceFailed,
			fmt.Sprintf("formula_gpt: upstream status %d: %s", resp.StatusCode, truncate(string(raw), 256)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", tokenUsage{}, false, errors.Wrap(err, errors.ErrCodeLLMMalformedResponse, "formula_gpt: decode response envelope")
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", tokenUsage{}, false, errors.New(errors.ErrCodeLLMMalformedResponse, "formula_gpt: empty completion")
	}
	return parsed.Choices[0].Message.Content, parsed.Usage, false, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
