package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/grupetto/grupetto/internal/authz"
	"github.com/grupetto/grupetto/internal/shared"
)

// RepositoryPort defines data access methods for profiles.
type RepositoryPort interface {
	Upsert(ctx context.Context, profile Profile) error
	Get(ctx context.Context, userID uuid.UUID) (Profile, error)
}

// Service handles profile reads and self-scoped updates.
type Service struct {
	repo     RepositoryPort
	resolver authz.Resolver
	logger   *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, resolver authz.Resolver, logger *slog.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, logger: logger}
}

// Get fetches a rider card. Profiles are public reads.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (Profile, error) {
	return s.repo.Get(ctx, userID)
}

// Update rewrites a profile. Only the owner, or an admin, may write it.
func (s *Service) Update(ctx context.Context, actorID, userID uuid.UUID, input UpdateInput) (Profile, error) {
	caps, err := s.resolver.ResolveCapabilities(ctx, actorID)
	if err != nil {
		return Profile{}, err
	}
	if !authz.Decide(actorID, caps, authz.ActionSelf, userID) {
		return Profile{}, fmt.Errorf("profiles: only the owner may edit this profile: %w", shared.ErrNotAuthorized)
	}
	if err := input.Validate(); err != nil {
		return Profile{}, err
	}
	now := time.Now().UTC()
	profile, err := s.repo.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return Profile{}, err
		}
		profile = Profile{UserID: userID, CreatedAt: now}
	}
	profile.FullName = input.FullName
	profile.Phone = input.Phone
	profile.City = input.City
	profile.AvatarURL = input.AvatarURL
	profile.EmergencyContact = input.EmergencyContact
	profile.UpdatedAt = now
	if err := s.repo.Upsert(ctx, profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// Create seeds an empty profile at signup time.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, fullName string) error {
	now := time.Now().UTC()
	return s.repo.Upsert(ctx, Profile{
		UserID:    userID,
		FullName:  fullName,
		CreatedAt: now,
		UpdatedAt: now,
	})
}
