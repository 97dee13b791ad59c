package profiles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grupetto/grupetto/internal/shared"
)

// Repository provides PostgreSQL backed persistence for profiles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const profileColumns = `user_id, full_name, phone, city, avatar_url, emergency_contact, created_at, updated_at`

// Upsert creates or replaces the profile row for a user.
func (r *Repository) Upsert(ctx context.Context, profile Profile) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO profiles (user_id, full_name, phone, city, avatar_url, emergency_contact, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id) DO UPDATE SET
full_name=EXCLUDED.full_name, phone=EXCLUDED.phone, city=EXCLUDED.city,
avatar_url=EXCLUDED.avatar_url, emergency_contact=EXCLUDED.emergency_contact, updated_at=EXCLUDED.updated_at`,
		profile.UserID, profile.FullName, profile.Phone, profile.City, profile.AvatarURL,
		profile.EmergencyContact, profile.CreatedAt, profile.UpdatedAt)
	return err
}

// Get fetches a profile by user id.
func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id=$1`, userID)
	var profile Profile
	err := row.Scan(&profile.UserID, &profile.FullName, &profile.Phone, &profile.City,
		&profile.AvatarURL, &profile.EmergencyContact, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, shared.ErrNotFound
		}
		return Profile{}, err
	}
	return profile, nil
}
