// Package mathpix recognizes formula images through a Mathpix-compatible
// OCR endpoint and turns them into LaTeX with a confidence score.
package mathpix

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eli5y/eli5y/internal/config"
	"github.com/eli5y/eli5y/internal/infrastructure/monitoring/logging"
	"github.com/eli5y/eli5y/pkg/errors"
)

// Result is a recognized formula.
type Result struct {
	Latex      string  `json:"latex"`
	Confidence float64 `json:"confidence"`
}

// Client calls the OCR endpoint.
type Client struct {
	cfg    config.OCRConfig
	hc     *http.Client
	url    string
	logger logging.Logger
}

// NewClient builds a Client from the application OCR section.
func NewClient(cfg config.OCRConfig, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Client{
		cfg:    cfg,
		hc:     &http.Client{Timeout: cfg.Timeout},
		url:    strings.TrimRight(cfg.BaseURL, "/") + "/text",
		logger: logger.Named("mathpix"),
	}
}

type ocrRequest struct {
	Src     string   `json:"src"`
	Formats []string `json:"formats"`
}

type ocrLine struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type ocrResponse struct {
	LatexStyled string    `json:"latex_styled"`
	Confidence  float64   `json:"confidence"`
	LineData    []ocrLine `json:"line_data"`
	Error       string    `json:"error"`
}

// Recognize extracts LaTeX from an image.  When the endpoint reports
// per-line candidates, the highest-confidence isolated formula wins;
// otherwise the whole-image result is used.  Results below the configured
// confidence threshold are rejected.
func (c *Client) Recognize(ctx context.Context, image []byte) (*Result, error) {
	if len(image) == 0 {
		return nil, errors.New(errors.ErrCodeOCRInvalidImage, "mathpix: empty image")
	}
	if c.cfg.MaxImageBytes > 0 && int64(len(image)) > c.cfg.MaxImageBytes {
		return nil, errors.New(errors.ErrCodeOCRInvalidImage,
			fmt.Sprintf("mathpix: image exceeds %d bytes", c.cfg.MaxImageBytes))
	}
	mime := http.DetectContentType(image)
	if !strings.HasPrefix(mime, "image/") {
		return nil, errors.New(errors.ErrCodeOCRInvalidImage,
			fmt.Sprintf("mathpix: unsupported content type %s", mime))
	}

	body, err := json.Marshal(&ocrRequest{
		Src:     fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(image)),
		Formats: []string{"latex_styled"},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "mathpix: encode request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "mathpix: build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("app_id", c.cfg.AppID)
	httpReq.Header.Set("app_key", c.cfg.AppKey)

	started := time.Now()
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeOCRUnavailable, "mathpix: transport failure")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeOCRUnavailable, "mathpix: read response body")
	}
	if resp.StatusCode >= 500 {
		return nil, errors.New(errors.ErrCodeOCRUnavailable,
			fmt.Sprintf("mathpix: upstream status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeOCRFailed,
			fmt.Sprintf("mathpix: upstream status %d", resp.StatusCode))
	}

	var parsed ocrResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeOCRFailed, "mathpix: decode response")
	}
	if parsed.Error != "" {
		return nil, errors.New(errors.ErrCodeOCRFailed, "mathpix: "+parsed.Error)
	}

	res := pickBest(&parsed)
	if res == nil {
		return nil, errors.New(errors.ErrCodeOCRFailed, "mathpix: no formula detected")
	}
	c.logger.Info("formula recognized",
		logging.Duration("elapsed", time.Since(started)),
		logging.Float64("confidence", res.Confidence),
	)
	if res.Confidence < c.cfg.MinConfidence {
		return nil, errors.New(errors.ErrCodeOCRLowConfidence,
			fmt.Sprintf("unable to recognize formula clearly (confidence: %.2f)", res.Confidence))
	}
	return res, nil
}

// pickBest selects the highest-confidence isolated formula among the line
// candidates, falling back to the whole-image reading when no candidates
// were reported.
func pickBest(r *ocrResponse) *Result {
	var best *Result
	for _, line := range r.LineData {
		if line.Type != "isolated" {
			continue
		}
		if best == nil || line.Confidence > best.Confidence {
			best = &Result{Latex: line.Text, Confidence: line.Confidence}
		}
	}
	if best != nil {
		return best
	}
	if len(r.LineData) == 0 && r.LatexStyled != "" {
		return &Result{Latex: r.LatexStyled, Confidence: r.Confidence}
	}
	return nil
}
