package results

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/grupetto/grupetto/internal/authz"
	"github.com/grupetto/grupetto/internal/shared"
)

type memoryResultRepo struct {
	mu      sync.Mutex
	results map[uuid.UUID]Result
}

func newMemoryResultRepo() *memoryResultRepo {
	return &memoryResultRepo{results: make(map[uuid.UUID]Result)}
}

func (m *memoryResultRepo) Insert(_ context.Context, result Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.results {
		if existing.EventID == result.EventID && existing.CyclistID == result.CyclistID {
			return ErrDuplicateResult
		}
	}
	m.results[result.ID] = result
	return nil
}

func (m *memoryResultRepo) ListForEvent(_ context.Context, eventID uuid.UUID) ([]Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Result
	for _, result := range m.results {
		if result.EventID == eventID {
			out = append(out, result)
		}
	}
	return out, nil
}

func (m *memoryResultRepo) ListForCyclist(_ context.Context, cyclistID uuid.UUID) ([]Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Result
	for _, result := range m.results {
		if result.CyclistID == cyclistID {
			out = append(out, result)
		}
	}
	return out, nil
}

type stubDirectory struct {
	owners     map[uuid.UUID]uuid.UUID
	categories map[uuid.UUID]uuid.UUID
}

func (d *stubDirectory) OrganizerID(_ context.Context, eventID uuid.UUID) (uuid.UUID, error) {
	owner, ok := d.owners[eventID]
	if !ok {
		return uuid.Nil, shared.ErrNotFound
	}
	return owner, nil
}

func (d *stubDirectory) CategoryBelongs(_ context.Context, categoryID, eventID uuid.UUID) (bool, error) {
	return d.categories[categoryID] == eventID, nil
}

type stubResolver struct {
	roles map[uuid.UUID][]authz.Role
}

func (s *stubResolver) ResolveCapabilities(_ context.Context, userID uuid.UUID) (authz.CapabilitySet, error) {
	return authz.Expand(s.roles[userID]), nil
}

func newResultsFixture() (*Service, uuid.UUID, uuid.UUID, uuid.UUID) {
	eventID := uuid.New()
	organizer := uuid.New()
	cyclist := uuid.New()
	dir := &stubDirectory{
		owners:     map[uuid.UUID]uuid.UUID{eventID: organizer},
		categories: map[uuid.UUID]uuid.UUID{},
	}
	resolver := &stubResolver{roles: map[uuid.UUID][]authz.Role{
		organizer: {authz.RoleOrganizer},
		cyclist:   {authz.RoleCyclist},
	}}
	svc := NewService(newMemoryResultRepo(), dir, resolver, nil, nil)
	return svc, eventID, organizer, cyclist
}

func TestRecordByOrganizer(t *testing.T) {
	svc, eventID, organizer, cyclist := newResultsFixture()

	result, err := svc.Record(context.Background(), organizer, RecordInput{
		EventID:    eventID,
		CyclistID:  cyclist,
		Position:   1,
		FinishTime: "02:14:33",
	})
	require.NoError(t, err)
	require.Equal(t, organizer, result.RecordedBy)

	board, err := svc.ListForEvent(context.Background(), eventID)
	require.NoError(t, err)
	require.Len(t, board, 1)
}

func TestRecordByCyclistDenied(t *testing.T) {
	svc, eventID, _, cyclist := newResultsFixture()

	_, err := svc.Record(context.Background(), cyclist, RecordInput{
		EventID:   eventID,
		CyclistID: cyclist,
		Position:  1,
	})
	require.ErrorIs(t, err, shared.ErrNotAuthorized)
}

func TestRecordRejectsForeignCategory(t *testing.T) {
	svc, eventID, organizer, cyclist := newResultsFixture()
	foreign := uuid.New()

	_, err := svc.Record(context.Background(), organizer, RecordInput{
		EventID:    eventID,
		CyclistID:  cyclist,
		CategoryID: &foreign,
		Position:   1,
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecordDuplicateRejected(t *testing.T) {
	svc, eventID, organizer, cyclist := newResultsFixture()

	_, err := svc.Record(context.Background(), organizer, RecordInput{EventID: eventID, CyclistID: cyclist, Position: 1})
	require.NoError(t, err)

	_, err = svc.Record(context.Background(), organizer, RecordInput{EventID: eventID, CyclistID: cyclist, Position: 2})
	require.ErrorIs(t, err, ErrDuplicateResult)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestRecordValidatesPosition(t *testing.T) {
	svc, eventID, organizer, cyclist := newResultsFixture()

	_, err := svc.Record(context.Background(), organizer, RecordInput{EventID: eventID, CyclistID: cyclist, Position: 0})
	require.ErrorIs(t, err, shared.ErrValidation)
}
