package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grupetto/grupetto/internal/shared"
)

// Repository provides PostgreSQL backed persistence for accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert persists a new account. The unique index on lower(email) maps a
// violation to ErrEmailTaken.
func (r *Repository) Insert(ctx context.Context, account Account) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO accounts (id, email, password_hash, created_at)
VALUES ($1, $2, $3, $4)`,
		account.ID, strings.ToLower(account.Email), account.PasswordHash, account.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// GetByEmail fetches an account by email, case-insensitive.
func (r *Repository) GetByEmail(ctx context.Context, email string) (Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, email, password_hash, created_at FROM accounts WHERE email=lower($1)`, email)
	var account Account
	if err := row.Scan(&account.ID, &account.Email, &account.PasswordHash, &account.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	return account, nil
}

// Get fetches an account by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, email, password_hash, created_at FROM accounts WHERE id=$1`, id)
	var account Account
	if err := row.Scan(&account.ID, &account.Email, &account.PasswordHash, &account.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	return account, nil
}
