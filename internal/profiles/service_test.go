package profiles

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/grupetto/grupetto/internal/authz"
	"github.com/grupetto/grupetto/internal/shared"
)

type memoryProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]Profile
}

func newMemoryProfileRepo() *memoryProfileRepo {
	return &memoryProfileRepo{profiles: make(map[uuid.UUID]Profile)}
}

func (m *memoryProfileRepo) Upsert(_ context.Context, profile Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.UserID] = profile
	return nil
}

func (m *memoryProfileRepo) Get(_ context.Context, userID uuid.UUID) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[userID]
	if !ok {
		return Profile{}, shared.ErrNotFound
	}
	return profile, nil
}

type stubResolver struct {
	roles map[uuid.UUID][]authz.Role
}

func (s *stubResolver) ResolveCapabilities(_ context.Context, userID uuid.UUID) (authz.CapabilitySet, error) {
	return authz.Expand(s.roles[userID]), nil
}

func TestUpdateOwnProfile(t *testing.T) {
	owner := uuid.New()
	svc := NewService(newMemoryProfileRepo(), &stubResolver{}, nil)

	profile, err := svc.Update(context.Background(), owner, owner, UpdateInput{FullName: "Marta Suárez", City: "Bariloche"})
	require.NoError(t, err)
	require.Equal(t, "Marta Suárez", profile.FullName)

	got, err := svc.Get(context.Background(), owner)
	require.NoError(t, err)
	require.Equal(t, "Bariloche", got.City)
}

func TestUpdateForeignProfileDenied(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	svc := NewService(newMemoryProfileRepo(), &stubResolver{}, nil)

	require.NoError(t, svc.Create(context.Background(), owner, "Marta Suárez"))

	_, err := svc.Update(context.Background(), other, owner, UpdateInput{FullName: "Hijacked"})
	require.ErrorIs(t, err, shared.ErrNotAuthorized)
}

func TestAdminMayEditAnyProfile(t *testing.T) {
	owner := uuid.New()
	admin := uuid.New()
	resolver := &stubResolver{roles: map[uuid.UUID][]authz.Role{admin: {authz.RoleSuperAdmin}}}
	svc := NewService(newMemoryProfileRepo(), resolver, nil)

	require.NoError(t, svc.Create(context.Background(), owner, "Marta Suárez"))

	profile, err := svc.Update(context.Background(), admin, owner, UpdateInput{FullName: "Marta S. Suárez"})
	require.NoError(t, err)
	require.Equal(t, "Marta S. Suárez", profile.FullName)
}

func TestUpdateRequiresFullName(t *testing.T) {
	owner := uuid.New()
	svc := NewService(newMemoryProfileRepo(), &stubResolver{}, nil)

	_, err := svc.Update(context.Background(), owner, owner, UpdateInput{FullName: "  "})
	require.ErrorIs(t, err, shared.ErrValidation)
}
