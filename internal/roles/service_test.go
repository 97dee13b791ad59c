package roles

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/grupetto/grupetto/internal/authz"
	"github.com/grupetto/grupetto/internal/shared"
)

type memoryGrantRepo struct {
	mu     sync.Mutex
	grants map[uuid.UUID]RoleGrant
}

func newMemoryGrantRepo() *memoryGrantRepo {
	return &memoryGrantRepo{grants: make(map[uuid.UUID]RoleGrant)}
}

func (r *memoryGrantRepo) Insert(ctx context.Context, grant RoleGrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.grants {
		if existing.UserID == grant.UserID && existing.Role == grant.Role && existing.Status != GrantStatusRejected {
			return ErrDuplicatePending
		}
	}
	r.grants[grant.ID] = grant
	return nil
}

func (r *memoryGrantRepo) Get(ctx context.Context, id uuid.UUID) (RoleGrant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	grant, ok := r.grants[id]
	if !ok {
		return RoleGrant{}, shared.ErrNotFound
	}
	return grant, nil
}

func (r *memoryGrantRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]RoleGrant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var grants []RoleGrant
	for _, grant := range r.grants {
		if grant.UserID == userID {
			grants = append(grants, grant)
		}
	}
	return grants, nil
}

func (r *memoryGrantRepo) ListPending(ctx context.Context) ([]RoleGrant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var grants []RoleGrant
	for _, grant := range r.grants {
		if grant.Status == GrantStatusPending {
			grants = append(grants, grant)
		}
	}
	return grants, nil
}

func (r *memoryGrantRepo) Transition(ctx context.Context, id uuid.UUID, to GrantStatus, approvedBy *uuid.UUID, approvedAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	grant, ok := r.grants[id]
	if !ok || grant.Status != GrantStatusPending {
		return false, nil
	}
	grant.Status = to
	grant.ApprovedBy = approvedBy
	grant.ApprovedAt = approvedAt
	r.grants[id] = grant
	return true, nil
}

func newTestService(t *testing.T) (*Service, *memoryGrantRepo) {
	t.Helper()
	repo := newMemoryGrantRepo()
	return NewService(repo, nil, nil, nil), repo
}

func seedSuperAdmin(t *testing.T, repo *memoryGrantRepo) uuid.UUID {
	t.Helper()
	adminID := uuid.New()
	now := time.Now().UTC()
	err := repo.Insert(context.Background(), RoleGrant{
		ID:          uuid.New(),
		UserID:      adminID,
		Role:        authz.RoleSuperAdmin,
		Status:      GrantStatusApproved,
		RequestedAt: now,
		ApprovedAt:  &now,
	})
	require.NoError(t, err)
	return adminID
}

func TestRequestCyclistAutoApproved(t *testing.T) {
	svc, _ := newTestService(t)
	userID := uuid.New()

	grant, err := svc.RequestRole(context.Background(), userID, authz.RoleCyclist)
	require.NoError(t, err)
	require.Equal(t, GrantStatusApproved, grant.Status)
	require.NotNil(t, grant.ApprovedAt)
	require.Nil(t, grant.ApprovedBy)

	caps, err := svc.ResolveCapabilities(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, caps.Has(authz.RoleCyclist))
	require.False(t, caps.Has(authz.RoleOrganizer))
}

func TestRequestOrganizerStartsPending(t *testing.T) {
	svc, _ := newTestService(t)
	userID := uuid.New()

	grant, err := svc.RequestRole(context.Background(), userID, authz.RoleOrganizer)
	require.NoError(t, err)
	require.Equal(t, GrantStatusPending, grant.Status)

	caps, err := svc.ResolveCapabilities(context.Background(), userID)
	require.NoError(t, err)
	require.False(t, caps.Has(authz.RoleOrganizer))
}

func TestDuplicatePendingRequestRejected(t *testing.T) {
	svc, _ := newTestService(t)
	userID := uuid.New()

	_, err := svc.RequestRole(context.Background(), userID, authz.RoleOrganizer)
	require.NoError(t, err)

	_, err = svc.RequestRole(context.Background(), userID, authz.RoleOrganizer)
	require.ErrorIs(t, err, ErrDuplicatePending)
}

func TestSuperAdminImpliesOrganizer(t *testing.T) {
	svc, repo := newTestService(t)
	adminID := seedSuperAdmin(t, repo)

	caps, err := svc.ResolveCapabilities(context.Background(), adminID)
	require.NoError(t, err)
	require.True(t, caps.Has(authz.RoleSuperAdmin))
	require.True(t, caps.Has(authz.RoleOrganizer))
}

func TestApproveRequiresSuperAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	userID := uuid.New()
	bystander := uuid.New()

	grant, err := svc.RequestRole(context.Background(), userID, authz.RoleOrganizer)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), bystander, grant.ID)
	require.ErrorIs(t, err, shared.ErrNotAuthorized)

	stored, err := svc.ListForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, GrantStatusPending, stored[0].Status)
}

func TestApproveLifecycle(t *testing.T) {
	svc, repo := newTestService(t)
	adminID := seedSuperAdmin(t, repo)
	userID := uuid.New()

	grant, err := svc.RequestRole(context.Background(), userID, authz.RoleOrganizer)
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), adminID, grant.ID)
	require.NoError(t, err)
	require.Equal(t, GrantStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	require.Equal(t, adminID, *approved.ApprovedBy)

	caps, err := svc.ResolveCapabilities(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, caps.Has(authz.RoleOrganizer))

	// Terminal state: neither a second approve nor a reject may land.
	_, err = svc.Approve(context.Background(), adminID, grant.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
	_, err = svc.Reject(context.Background(), adminID, grant.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestRejectThenReapply(t *testing.T) {
	svc, repo := newTestService(t)
	adminID := seedSuperAdmin(t, repo)
	userID := uuid.New()

	grant, err := svc.RequestRole(context.Background(), userID, authz.RoleOrganizer)
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), adminID, grant.ID)
	require.NoError(t, err)
	require.Equal(t, GrantStatusRejected, rejected.Status)
	require.Nil(t, rejected.ApprovedBy)

	// A rejected grant does not block a fresh request.
	_, err = svc.RequestRole(context.Background(), userID, authz.RoleOrganizer)
	require.NoError(t, err)
}

func TestApproveNotFound(t *testing.T) {
	svc, repo := newTestService(t)
	adminID := seedSuperAdmin(t, repo)

	_, err := svc.Approve(context.Background(), adminID, uuid.New())
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestConcurrentApprovalsSingleWinner(t *testing.T) {
	svc, repo := newTestService(t)
	adminA := seedSuperAdmin(t, repo)
	adminB := seedSuperAdmin(t, repo)
	userID := uuid.New()

	grant, err := svc.RequestRole(context.Background(), userID, authz.RoleOrganizer)
	require.NoError(t, err)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, admin := range []uuid.UUID{adminA, adminB} {
		wg.Add(1)
		go func(adminID uuid.UUID) {
			defer wg.Done()
			_, err := svc.Approve(context.Background(), adminID, grant.ID)
			results <- err
		}(admin)
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, shared.ErrInvalidState)
			losses++
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, losses)

	stored, err := repo.Get(context.Background(), grant.ID)
	require.NoError(t, err)
	require.Equal(t, GrantStatusApproved, stored.Status)
	require.NotNil(t, stored.ApprovedBy)
}
