package registrations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grupetto/grupetto/internal/shared"
)

// Repository provides PostgreSQL backed persistence for registrations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const registrationColumns = `id, event_id, cyclist_id, category_id, status, notes, created_at, resolved_at, resolved_by`

// Insert persists a new registration. The partial unique index on
// (event_id, cyclist_id) over pending and approved rows is the
// authoritative duplicate check; a violation maps to
// ErrDuplicateRegistration.
func (r *Repository) Insert(ctx context.Context, reg Registration) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO registrations (id, event_id, cyclist_id, category_id, status, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		reg.ID, reg.EventID, reg.CyclistID, reg.CategoryID, string(reg.Status), reg.Notes, reg.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateRegistration
		}
		return err
	}
	return nil
}

// Get fetches a registration by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Registration, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id=$1`, id)
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Registration{}, shared.ErrNotFound
		}
		return Registration{}, err
	}
	return reg, nil
}

// Latest returns the most recent registration for (event, cyclist),
// rejected ones included.
func (r *Repository) Latest(ctx context.Context, eventID, cyclistID uuid.UUID) (Registration, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+registrationColumns+` FROM registrations
WHERE event_id=$1 AND cyclist_id=$2 ORDER BY created_at DESC LIMIT 1`, eventID, cyclistID)
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Registration{}, shared.ErrNotFound
		}
		return Registration{}, err
	}
	return reg, nil
}

// ListForEvent returns all registrations for an event, oldest first.
func (r *Repository) ListForEvent(ctx context.Context, eventID uuid.UUID) ([]Registration, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE event_id=$1 ORDER BY created_at`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRegistrations(rows)
}

// ListForCyclist returns all registrations the cyclist has filed.
func (r *Repository) ListForCyclist(ctx context.Context, cyclistID uuid.UUID) ([]Registration, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE cyclist_id=$1 ORDER BY created_at DESC`, cyclistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRegistrations(rows)
}

// Transition conditionally moves a pending registration into a terminal
// state. Exactly one of two concurrent callers observes true; the loser
// sees the row already resolved.
func (r *Repository) Transition(ctx context.Context, id uuid.UUID, to Status, resolvedBy uuid.UUID, resolvedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE registrations SET status=$2, resolved_at=$3, resolved_by=$4
WHERE id=$1 AND status=$5`,
		id, string(to), resolvedAt, resolvedBy, string(StatusPending))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanRegistration(row pgx.Row) (Registration, error) {
	var reg Registration
	var status string
	if err := row.Scan(&reg.ID, &reg.EventID, &reg.CyclistID, &reg.CategoryID, &status, &reg.Notes,
		&reg.CreatedAt, &reg.ResolvedAt, &reg.ResolvedBy); err != nil {
		return Registration{}, err
	}
	reg.Status = Status(status)
	return reg, nil
}

func collectRegistrations(rows pgx.Rows) ([]Registration, error) {
	var regs []Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return regs, nil
}
