package roles

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grupetto/grupetto/internal/authz"
	"github.com/grupetto/grupetto/internal/shared"
)

// Repository provides PostgreSQL backed persistence for role grants.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const grantColumns = `id, user_id, role, status, requested_at, approved_at, approved_by`

// Insert persists a new grant. The partial unique index on
// (user_id, role) over non-rejected rows is the authoritative duplicate
// check; a violation maps to ErrDuplicatePending.
func (r *Repository) Insert(ctx context.Context, grant RoleGrant) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO role_grants (id, user_id, role, status, requested_at, approved_at, approved_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		grant.ID, grant.UserID, string(grant.Role), string(grant.Status), grant.RequestedAt, grant.ApprovedAt, grant.ApprovedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicatePending
		}
		return err
	}
	return nil
}

// Get fetches a grant by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (RoleGrant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+grantColumns+` FROM role_grants WHERE id=$1`, id)
	grant, err := scanGrant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoleGrant{}, shared.ErrNotFound
		}
		return RoleGrant{}, err
	}
	return grant, nil
}

// ListByUser returns all grants for a user.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]RoleGrant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+grantColumns+` FROM role_grants WHERE user_id=$1 ORDER BY requested_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGrants(rows)
}

// ListPending returns all unresolved grants, oldest first.
func (r *Repository) ListPending(ctx context.Context) ([]RoleGrant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+grantColumns+` FROM role_grants WHERE status=$1 ORDER BY requested_at`, string(GrantStatusPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGrants(rows)
}

// Transition conditionally moves a pending grant into a terminal state.
// Exactly one of two concurrent callers observes true; the loser sees the
// row already resolved.
func (r *Repository) Transition(ctx context.Context, id uuid.UUID, to GrantStatus, approvedBy *uuid.UUID, approvedAt *time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE role_grants SET status=$2, approved_at=$3, approved_by=$4
WHERE id=$1 AND status=$5`,
		id, string(to), approvedAt, approvedBy, string(GrantStatusPending))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanGrant(row pgx.Row) (RoleGrant, error) {
	var grant RoleGrant
	var role, status string
	if err := row.Scan(&grant.ID, &grant.UserID, &role, &status, &grant.RequestedAt, &grant.ApprovedAt, &grant.ApprovedBy); err != nil {
		return RoleGrant{}, err
	}
	grant.Role = authz.Role(role)
	grant.Status = GrantStatus(status)
	return grant, nil
}

func collectGrants(rows pgx.Rows) ([]RoleGrant, error) {
	var grants []RoleGrant
	for rows.Next() {
		grant, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return grants, nil
}
