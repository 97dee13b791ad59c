package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/grupetto/grupetto/internal/authz"
	"github.com/grupetto/grupetto/internal/roles"
	"github.com/grupetto/grupetto/internal/shared"
)

// RepositoryPort defines data access methods for accounts.
type RepositoryPort interface {
	Insert(ctx context.Context, account Account) error
	GetByEmail(ctx context.Context, email string) (Account, error)
}

// RolesPort files the automatic cyclist grant at signup.
type RolesPort interface {
	RequestRole(ctx context.Context, userID uuid.UUID, role authz.Role) (roles.RoleGrant, error)
}

// ProfilesPort seeds the rider card at signup.
type ProfilesPort interface {
	Create(ctx context.Context, userID uuid.UUID, fullName string) error
}

// SessionPort issues and revokes bearer sessions.
type SessionPort interface {
	Issue(ctx context.Context, userID uuid.UUID, ip, ua string) (*shared.Session, error)
	Revoke(ctx context.Context, token string) error
}

// Service handles account lifecycle and login.
type Service struct {
	repo     RepositoryPort
	roles    RolesPort
	profiles ProfilesPort
	sessions SessionPort
	logger   *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, rolesPort RolesPort, profilesPort ProfilesPort, sessions SessionPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, roles: rolesPort, profiles: profilesPort, sessions: sessions, logger: logger}
}

// SignUp creates the account, seeds the profile and files the cyclist
// grant, which is approved on the spot. Anyone who signs up can ride.
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (Account, error) {
	if err := input.Validate(); err != nil {
		return Account{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}
	account := Account{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, account); err != nil {
		return Account{}, err
	}
	if err := s.profiles.Create(ctx, account.ID, input.FullName); err != nil {
		return Account{}, err
	}
	if _, err := s.roles.RequestRole(ctx, account.ID, authz.RoleCyclist); err != nil {
		return Account{}, err
	}
	return account, nil
}

// Authenticate verifies the credentials and issues a session. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password, ip, ua string) (*shared.Session, error) {
	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("auth: %w", shared.ErrInvalidCredentials)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("auth: %w", shared.ErrInvalidCredentials)
	}
	sess, err := s.sessions.Issue(ctx, account.ID, ip, ua)
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("login", slog.String("user_id", account.ID.String()))
	}
	return sess, nil
}

// Logout revokes the session behind token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}
