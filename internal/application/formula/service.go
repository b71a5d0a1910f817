// Package formula provides the application-level service for formula
// explanation.  It sits between the HTTP handlers and the drafting,
// alignment, caching, and persistence layers.
package formula

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/eli5y/eli5y/internal/domain/alignment"
	domainFormula "github.com/eli5y/eli5y/internal/domain/formula"
	"github.com/eli5y/eli5y/internal/infrastructure/monitoring/logging"
	"github.com/eli5y/eli5y/internal/infrastructure/monitoring/prometheus"
	"github.com/eli5y/eli5y/internal/intelligence/mathpix"
	"github.com/eli5y/eli5y/pkg/errors"
)

// Drafter produces an unaligned explanation draft for a formula.
type Drafter interface {
	Draft(ctx context.Context, latex string) (alignment.Draft, error)
}

// Recognizer extracts LaTeX from a formula image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (*mathpix.Result, error)
}

// ParseCache caches alignment results between requests.
type ParseCache interface {
	Get(ctx context.Context, latex string) (*alignment.Result, error)
	Set(ctx context.Context, latex string, res *alignment.Result) error
}

// Service defines formula application operations.
type Service interface {
	Explain(ctx context.Context, latex string) (*Output, error)
	Recognize(ctx context.Context, image []byte) (*OCROutput, error)
	Get(ctx context.Context, id uuid.UUID) (*domainFormula.Formula, error)
	List(ctx context.Context, limit, offset int) ([]*domainFormula.Formula, error)
}

// Output is the result of explaining one formula.
type Output struct {
	ID          uuid.UUID                 `json:"id"`
	Latex       string                    `json:"latex"`
	Narrative   string                    `json:"narrative"`
	Groups      []alignment.SemanticGroup `json:"groups"`
	Diagnostics []alignment.Diagnostic    `json:"diagnostics,omitempty"`
	Cached      bool                      `json:"cached"`
}

// OCROutput is the result of recognizing a formula image.
type OCROutput struct {
	Latex      string  `json:"latex"`
	Confidence float64 `json:"confidence"`
}

type service struct {
	drafter    Drafter
	recognizer Recognizer
	cache      ParseCache
	repo       domainFormula.Repository
	metrics    *prometheus.Metrics
	logger     logging.Logger
}

// NewService wires the formula service.  cache and metrics may be nil; the
// service then skips those concerns.
func NewService(
	drafter Drafter,
	recognizer Recognizer,
	cache ParseCache,
	repo domainFormula.Repository,
	metrics *prometheus.Metrics,
	logger logging.Logger,
) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &service{
		drafter:    drafter,
		recognizer: recognizer,
		cache:      cache,
		repo:       repo,
		metrics:    metrics,
		logger:     logger.Named("formula_service"),
	}
}

// Explain turns a LaTeX formula into an aligned explanation.  Previously
// explained formulas are served from storage; otherwise the draft is fetched
// from the model, aligned, cached, and persisted.
func (s *service) Explain(ctx context.Context, latex string) (*Output, error) {
	latex = strings.TrimSpace(latex)
	if latex == "" {
		return nil, errors.New(errors.ErrCodeFormulaEmptyLatex, "latex source is required")
	}

	// Served before: return the stored record.
	if stored, err := s.repo.GetByLatex(ctx, latex); err == nil {
		return &Output{
			ID:        stored.ID,
			Latex:     stored.Latex,
			Narrative: stored.Narrative,
			Groups:    stored.Groups,
			Cached:    true,
		}, nil
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	res, diags, cached, err := s.alignedResult(ctx, latex)
	if err != nil {
		return nil, err
	}

	f := domainFormula.New(latex, res)
	if err := s.repo.Save(ctx, f); err != nil {
		if errors.IsCode(err, errors.ErrCodeFormulaAlreadySaved) {
			// Lost a race with a concurrent request for the same source.
			if stored, getErr := s.repo.GetByLatex(ctx, latex); getErr == nil {
				f = stored
			}
		} else {
			return nil, err
		}
	}

	return &Output{
		ID:          f.ID,
		Latex:       f.Latex,
		Narrative:   f.Narrative,
		Groups:      f.Groups,
		Diagnostics: diags,
		Cached:      cached,
	}, nil
}

// alignedResult fetches the alignment result from the cache or computes it
// by drafting and aligning.  Cache failures degrade to recomputation.
func (s *service) alignedResult(ctx context.Context, latex string) (*alignment.Result, []alignment.Diagnostic, bool, error) {
	if s.cache != nil {
		res, err := s.cache.Get(ctx, latex)
		switch {
		case err == nil:
			s.countCache(true)
			return res, nil, true, nil
		case errors.IsNotFound(err):
			s.countCache(false)
		default:
			s.countCache(false)
			s.logger.Warn("parse cache unavailable", logging.Err(err))
		}
	}

	draft, err := s.drafter.Draft(ctx, latex)
	if err != nil {
		return nil, nil, false, err
	}

	res, diags, err := alignment.Align(latex, draft)
	s.observeAlignment(res, diags, err)
	if err != nil {
		return nil, diags, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, latex, res); err != nil {
			s.logger.Warn("parse cache write failed", logging.Err(err))
		}
	}
	return res, diags, false, nil
}

// Recognize extracts LaTeX from a formula image.
func (s *service) Recognize(ctx context.Context, image []byte) (*OCROutput, error) {
	res, err := s.recognizer.Recognize(ctx, image)
	if err != nil {
		if s.metrics != nil {
			s.metrics.OCRRequestsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.OCRRequestsTotal.WithLabelValues("ok").Inc()
		s.metrics.OCRConfidence.Observe(res.Confidence)
	}
	return &OCROutput{Latex: res.Latex, Confidence: res.Confidence}, nil
}

// Get loads a stored formula by id.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*domainFormula.Formula, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns stored formulas, newest first.
func (s *service) List(ctx context.Context, limit, offset int) ([]*domainFormula.Formula, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *service) countCache(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHitsTotal.Inc()
	} else {
		s.metrics.CacheMissesTotal.Inc()
	}
}

func (s *service) observeAlignment(res *alignment.Result, diags []alignment.Diagnostic, err error) {
	for _, d := range diags {
		s.logger.Warn("component dropped during alignment",
			logging.String("stage", d.Stage),
			logging.String("reason", string(d.Reason)),
			logging.String("counterpart", d.Counterpart),
		)
		if s.metrics != nil {
			s.metrics.AlignmentDropsTotal.WithLabelValues(d.Stage, string(d.Reason)).Inc()
		}
	}
	if s.metrics == nil {
		return
	}
	if err != nil {
		s.metrics.AlignmentRunsTotal.WithLabelValues("failed").Inc()
		return
	}
	s.metrics.AlignmentRunsTotal.WithLabelValues("ok").Inc()
	s.metrics.AlignmentGroupCount.Observe(float64(len(res.Groups)))
}
