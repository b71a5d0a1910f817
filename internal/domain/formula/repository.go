package formula

import (
	"context"

	"github.com/google/uuid"

	"github.com/eli5y/eli5y/pkg/errors"
)

// Structural validation failures surfaced by Formula.Validate.
var (
	ErrMissingID     = errors.New(errors.ErrCodeValidation, "formula id is not set")
	ErrEmptyLatex    = errors.New(errors.ErrCodeFormulaEmptyLatex, "formula latex source is empty")
	ErrNoGroups      = errors.New(errors.ErrCodeValidation, "formula has no semantic groups")
	ErrDanglingChild = errors.New(errors.ErrCodeValidation, "semantic group references a child index outside the group list")
)

// Repository persists explained formulas.
type Repository interface {
	Save(ctx context.Context, f *Formula) error
	GetByID(ctx context.Context, id uuid.UUID) (*Formula, error)
	GetByLatex(ctx context.Context, latex string) (*Formula, error)
	List(ctx context.Context, limit, offset int) ([]*Formula, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
