package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/grupetto/grupetto/internal/authz"
	"github.com/grupetto/grupetto/internal/shared"
)

type stubResolver struct {
	roles map[uuid.UUID][]authz.Role
}

func (s *stubResolver) ResolveCapabilities(_ context.Context, userID uuid.UUID) (authz.CapabilitySet, error) {
	return authz.Expand(s.roles[userID]), nil
}

type memoryEventRepo struct {
	mu         sync.Mutex
	events     map[uuid.UUID]Event
	categories map[uuid.UUID]Category
	approved   map[uuid.UUID]int
}

func newMemoryEventRepo() *memoryEventRepo {
	return &memoryEventRepo{
		events:     make(map[uuid.UUID]Event),
		categories: make(map[uuid.UUID]Category),
		approved:   make(map[uuid.UUID]int),
	}
}

func (m *memoryEventRepo) InsertWithCategories(_ context.Context, event Event, categories []Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = event
	for _, cat := range categories {
		m.categories[cat.ID] = cat
	}
	return nil
}

func (m *memoryEventRepo) Update(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[event.ID]; !ok {
		return shared.ErrNotFound
	}
	m.events[event.ID] = event
	return nil
}

func (m *memoryEventRepo) SetPublished(_ context.Context, id uuid.UUID, published bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return shared.ErrNotFound
	}
	event.IsPublished = published
	m.events[id] = event
	return nil
}

func (m *memoryEventRepo) Get(_ context.Context, id uuid.UUID) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return Event{}, shared.ErrNotFound
	}
	return event, nil
}

func (m *memoryEventRepo) ListPublished(_ context.Context, filters ListFilters) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, event := range m.events {
		if !event.IsPublished {
			continue
		}
		if filters.Discipline != "" && event.Discipline != filters.Discipline {
			continue
		}
		if filters.EventType != "" && event.EventType != filters.EventType {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

func (m *memoryEventRepo) ListByOrganizer(_ context.Context, organizerID uuid.UUID) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, event := range m.events {
		if event.OrganizerID == organizerID {
			out = append(out, event)
		}
	}
	return out, nil
}

func (m *memoryEventRepo) OrganizerID(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error) {
	event, err := m.Get(ctx, eventID)
	if err != nil {
		return uuid.Nil, err
	}
	return event.OrganizerID, nil
}

func (m *memoryEventRepo) InsertCategory(_ context.Context, cat Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[cat.EventID]; !ok {
		return shared.ErrNotFound
	}
	m.categories[cat.ID] = cat
	return nil
}

func (m *memoryEventRepo) ListCategories(_ context.Context, eventID uuid.UUID) ([]Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Category
	for _, cat := range m.categories {
		if cat.EventID == eventID {
			out = append(out, cat)
		}
	}
	return out, nil
}

func (m *memoryEventRepo) CategoryBelongs(_ context.Context, categoryID, eventID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cat, ok := m.categories[categoryID]
	return ok && cat.EventID == eventID, nil
}

func (m *memoryEventRepo) ApprovedCount(_ context.Context, eventID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.approved[eventID], nil
}

type stubRoster struct {
	counts map[uuid.UUID]int
}

func (s *stubRoster) Count(_ context.Context, eventID uuid.UUID) (int, bool, error) {
	count, ok := s.counts[eventID]
	return count, ok, nil
}

func newEventsFixture(roles map[uuid.UUID][]authz.Role) (*Service, *memoryEventRepo) {
	repo := newMemoryEventRepo()
	svc := NewService(repo, &stubResolver{roles: roles}, nil, nil, nil)
	return svc, repo
}

func validInput() CreateEventInput {
	return CreateEventInput{
		Title:      "Vuelta al Lago",
		Location:   "San Martín de los Andes",
		Discipline: DisciplineRuta,
		EventType:  EventTypeCarrera,
		EventDate:  time.Date(2026, 11, 14, 0, 0, 0, 0, time.UTC),
		EventTime:  "09:00",
		Categories: []CategoryInput{{Name: "Elite", Price: 25000}},
	}
}

func TestCreateRequiresOrganizer(t *testing.T) {
	cyclist := uuid.New()
	svc, _ := newEventsFixture(map[uuid.UUID][]authz.Role{cyclist: {authz.RoleCyclist}})

	_, err := svc.Create(context.Background(), cyclist, validInput())
	require.ErrorIs(t, err, shared.ErrNotAuthorized)
}

func TestCreatePersistsEventWithCategories(t *testing.T) {
	organizer := uuid.New()
	svc, repo := newEventsFixture(map[uuid.UUID][]authz.Role{organizer: {authz.RoleOrganizer}})

	event, err := svc.Create(context.Background(), organizer, validInput())
	require.NoError(t, err)
	require.Equal(t, organizer, event.OrganizerID)
	require.False(t, event.IsPublished)

	categories, err := repo.ListCategories(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	require.Equal(t, "Elite", categories[0].Name)
}

func TestCreateRejectsUnknownDiscipline(t *testing.T) {
	organizer := uuid.New()
	svc, _ := newEventsFixture(map[uuid.UUID][]authz.Role{organizer: {authz.RoleOrganizer}})

	input := validInput()
	input.Discipline = "triatlon"
	_, err := svc.Create(context.Background(), organizer, input)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateRequiresOwnership(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	svc, _ := newEventsFixture(map[uuid.UUID][]authz.Role{
		owner: {authz.RoleOrganizer},
		other: {authz.RoleOrganizer},
	})

	event, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	input := validInput()
	input.Title = "Vuelta al Lago II"
	_, err = svc.Update(context.Background(), other, event.ID, input)
	require.ErrorIs(t, err, shared.ErrNotAuthorized)

	updated, err := svc.Update(context.Background(), owner, event.ID, input)
	require.NoError(t, err)
	require.Equal(t, "Vuelta al Lago II", updated.Title)
}

func TestSuperAdminManagesAnyEvent(t *testing.T) {
	owner := uuid.New()
	admin := uuid.New()
	svc, _ := newEventsFixture(map[uuid.UUID][]authz.Role{
		owner: {authz.RoleOrganizer},
		admin: {authz.RoleSuperAdmin},
	})

	event, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.SetPublished(context.Background(), admin, event.ID, true))

	detail, err := svc.Detail(context.Background(), event.ID)
	require.NoError(t, err)
	require.True(t, detail.Event.IsPublished)
}

func TestListFiltersByDisciplineAndQuery(t *testing.T) {
	organizer := uuid.New()
	svc, _ := newEventsFixture(map[uuid.UUID][]authz.Role{organizer: {authz.RoleOrganizer}})

	ruta := validInput()
	ruta.Title = "Travesía del Limay"
	mtb := validInput()
	mtb.Title = "Rally del Bosque"
	mtb.Discipline = DisciplineMTB

	for _, input := range []CreateEventInput{ruta, mtb} {
		event, err := svc.Create(context.Background(), organizer, input)
		require.NoError(t, err)
		require.NoError(t, svc.SetPublished(context.Background(), organizer, event.ID, true))
	}

	events, err := svc.List(context.Background(), ListFilters{Discipline: DisciplineMTB})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "Rally del Bosque", events[0].Title)

	// Accent-insensitive search.
	events, err = svc.List(context.Background(), ListFilters{Query: "travesia"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "Travesía del Limay", events[0].Title)
}

func TestListExcludesDrafts(t *testing.T) {
	organizer := uuid.New()
	svc, _ := newEventsFixture(map[uuid.UUID][]authz.Role{organizer: {authz.RoleOrganizer}})

	_, err := svc.Create(context.Background(), organizer, validInput())
	require.NoError(t, err)

	events, err := svc.List(context.Background(), ListFilters{})
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestDetailAggregatesCategoriesAndCount(t *testing.T) {
	organizer := uuid.New()
	svc, repo := newEventsFixture(map[uuid.UUID][]authz.Role{organizer: {authz.RoleOrganizer}})

	event, err := svc.Create(context.Background(), organizer, validInput())
	require.NoError(t, err)
	repo.approved[event.ID] = 17

	detail, err := svc.Detail(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, detail.Categories, 1)
	require.Equal(t, 17, detail.ApprovedCount)
}

func TestDetailServesCachedRosterCount(t *testing.T) {
	organizer := uuid.New()
	repo := newMemoryEventRepo()
	roster := &stubRoster{counts: make(map[uuid.UUID]int)}
	svc := NewService(repo, &stubResolver{roles: map[uuid.UUID][]authz.Role{organizer: {authz.RoleOrganizer}}}, nil, roster, nil)

	event, err := svc.Create(context.Background(), organizer, validInput())
	require.NoError(t, err)
	repo.approved[event.ID] = 17
	roster.counts[event.ID] = 42

	detail, err := svc.Detail(context.Background(), event.ID)
	require.NoError(t, err)
	require.Equal(t, 42, detail.ApprovedCount)
}

func TestDetailCountsRowsOnRosterMiss(t *testing.T) {
	organizer := uuid.New()
	repo := newMemoryEventRepo()
	roster := &stubRoster{counts: make(map[uuid.UUID]int)}
	svc := NewService(repo, &stubResolver{roles: map[uuid.UUID][]authz.Role{organizer: {authz.RoleOrganizer}}}, nil, roster, nil)

	event, err := svc.Create(context.Background(), organizer, validInput())
	require.NoError(t, err)
	repo.approved[event.ID] = 17

	detail, err := svc.Detail(context.Background(), event.ID)
	require.NoError(t, err)
	require.Equal(t, 17, detail.ApprovedCount)
}

func TestDetailNotFound(t *testing.T) {
	svc, _ := newEventsFixture(nil)
	_, err := svc.Detail(context.Background(), uuid.New())
	require.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestAddCategoryGated(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	svc, _ := newEventsFixture(map[uuid.UUID][]authz.Role{
		owner:    {authz.RoleOrganizer},
		stranger: {authz.RoleCyclist},
	})

	event, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	_, err = svc.AddCategory(context.Background(), stranger, event.ID, CategoryInput{Name: "Master B"})
	require.ErrorIs(t, err, shared.ErrNotAuthorized)

	cat, err := svc.AddCategory(context.Background(), owner, event.ID, CategoryInput{Name: "Master B"})
	require.NoError(t, err)

	ok, err := svc.CategoryBelongs(context.Background(), cat.ID, event.ID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestFoldText(t *testing.T) {
	require.Equal(t, "travesia", foldText("Travesía"))
	require.Equal(t, "nandu", foldText("Ñandú"))
}
