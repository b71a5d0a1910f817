// Package repositories provides PostgreSQL-backed implementations of the
// domain repository interfaces.
package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eli5y/eli5y/internal/domain/alignment"
	"github.com/eli5y/eli5y/internal/domain/formula"
	"github.com/eli5y/eli5y/internal/infrastructure/monitoring/logging"
	"github.com/eli5y/eli5y/pkg/errors"
)

const uniqueViolation = "23505"

// FormulaRepository is the PostgreSQL implementation of formula.Repository.
// Semantic groups are stored as a JSONB document; their wire shape is the
// same one the HTTP layer serves.
type FormulaRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewFormulaRepository constructs a ready-to-use FormulaRepository.
func NewFormulaRepository(pool *pgxpool.Pool, logger logging.Logger) *FormulaRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &FormulaRepository{pool: pool, logger: logger.Named("formula_repo")}
}

var _ formula.Repository = (*FormulaRepository)(nil)

// Save persists a validated formula.  A duplicate id or latex source is
// reported as a conflict.
func (r *FormulaRepository) Save(ctx context.Context, f *formula.Formula) error {
	if err := f.Validate(); err != nil {
		return err
	}

	groupsJSON, err := json.Marshal(f.Groups)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode semantic groups")
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO formulas (id, latex, narrative, groups, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		f.ID, f.Latex, f.Narrative, groupsJSON, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return errors.Wrap(err, errors.ErrCodeFormulaAlreadySaved, "formula already saved")
		}
		r.logger.Error("insert formula failed", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert formula")
	}
	return nil
}

// GetByID loads a formula by its primary key.
func (r *FormulaRepository) GetByID(ctx context.Context, id uuid.UUID) (*formula.Formula, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT id, latex, narrative, groups, created_at, updated_at
		FROM formulas WHERE id = $1`, id))
}

// GetByLatex loads a formula by its exact LaTeX source.
func (r *FormulaRepository) GetByLatex(ctx context.Context, latex string) (*formula.Formula, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT id, latex, narrative, groups, created_at, updated_at
		FROM formulas WHERE latex = $1`, latex))
}

// List returns formulas ordered by creation time, newest first.
func (r *FormulaRepository) List(ctx context.Context, limit, offset int) ([]*formula.Formula, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, latex, narrative, groups, created_at, updated_at
		FROM formulas ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		r.logger.Error("list formulas failed", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list formulas")
	}
	defer rows.Close()

	var out []*formula.Formula
	for rows.Next() {
		f, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate formulas")
	}
	return out, nil
}

// Delete removes a formula.  Deleting an unknown id reports not-found.
func (r *FormulaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM formulas WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("delete formula failed", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete formula")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeFormulaNotFound, "formula not found")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *FormulaRepository) scanOne(row pgx.Row) (*formula.Formula, error) {
	f, err := r.scanRow(row)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *FormulaRepository) scanRow(row rowScanner) (*formula.Formula, error) {
	var (
		f          formula.Formula
		groupsJSON []byte
		createdAt  time.Time
		updatedAt  time.Time
	)
	err := row.Scan(&f.ID, &f.Latex, &f.Narrative, &groupsJSON, &createdAt, &updatedAt)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeFormulaNotFound, "formula not found")
		}
		r.logger.Error("scan formula failed", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan formula")
	}

	var groups []alignment.SemanticGroup
	if err := json.Unmarshal(groupsJSON, &groups); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode semantic groups")
	}
	f.Groups = groups
	f.CreatedAt = createdAt
	f.UpdatedAt = updatedAt
	return &f, nil
}
