package results

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for results.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const resultColumns = `id, event_id, cyclist_id, category_id, position, finish_time, recorded_by, created_at`

// Insert persists a result. The unique index on (event_id, cyclist_id)
// maps a violation to ErrDuplicateResult.
func (r *Repository) Insert(ctx context.Context, result Result) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO results (id, event_id, cyclist_id, category_id, position, finish_time, recorded_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		result.ID, result.EventID, result.CyclistID, result.CategoryID, result.Position,
		result.FinishTime, result.RecordedBy, result.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateResult
		}
		return err
	}
	return nil
}

// ListForEvent returns the event's results ordered by position.
func (r *Repository) ListForEvent(ctx context.Context, eventID uuid.UUID) ([]Result, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+resultColumns+` FROM results WHERE event_id=$1 ORDER BY position`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectResults(rows)
}

// ListForCyclist returns a cyclist's palmarès, most recent first.
func (r *Repository) ListForCyclist(ctx context.Context, cyclistID uuid.UUID) ([]Result, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+resultColumns+` FROM results WHERE cyclist_id=$1 ORDER BY created_at DESC`, cyclistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectResults(rows)
}

func collectResults(rows pgx.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var result Result
		if err := rows.Scan(&result.ID, &result.EventID, &result.CyclistID, &result.CategoryID,
			&result.Position, &result.FinishTime, &result.RecordedBy, &result.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
