// Package formula holds the persisted view of an explained formula: the
// LaTeX source, the aligned explanation, and the semantic groups produced by
// the alignment engine.
package formula

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eli5y/eli5y/internal/domain/alignment"
)

// Formula is a fully explained formula as stored and served by the backend.
type Formula struct {
	ID        uuid.UUID                 `json:"id"`
	Latex     string                    `json:"latex"`
	Narrative string                    `json:"narrative"`
	Groups    []alignment.SemanticGroup `json:"groups"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// New builds a Formula from an alignment run, assigning a fresh identifier.
func New(latex string, res *alignment.Result) *Formula {
	now := time.Now().UTC()
	return &Formula{
		ID:        uuid.New(),
		Latex:     latex,
		Narrative: res.Narrative,
		Groups:    res.Groups,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the structural integrity of a Formula before it is
// persisted.
func (f *Formula) Validate() error {
	if f.ID == uuid.Nil {
		return ErrMissingID
	}
	if strings.TrimSpace(f.Latex) == "" {
		return ErrEmptyLatex
	}
	if len(f.Groups) == 0 {
		return ErrNoGroups
	}
	for _, g := range f.Groups {
		for _, c := range g.Children {
			if c < 0 || c >= len(f.Groups) {
				return ErrDanglingChild
			}
		}
	}
	return nil
}
