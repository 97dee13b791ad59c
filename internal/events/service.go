package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/grupetto/grupetto/internal/authz"
	"github.com/grupetto/grupetto/internal/shared"
)

// RepositoryPort defines data access methods for the event directory.
type RepositoryPort interface {
	InsertWithCategories(ctx context.Context, event Event, categories []Category) error
	Update(ctx context.Context, event Event) error
	SetPublished(ctx context.Context, id uuid.UUID, published bool) error
	Get(ctx context.Context, id uuid.UUID) (Event, error)
	ListPublished(ctx context.Context, filters ListFilters) ([]Event, error)
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]Event, error)
	OrganizerID(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error)
	InsertCategory(ctx context.Context, cat Category) error
	ListCategories(ctx context.Context, eventID uuid.UUID) ([]Category, error)
	CategoryBelongs(ctx context.Context, categoryID, eventID uuid.UUID) (bool, error)
	ApprovedCount(ctx context.Context, eventID uuid.UUID) (int, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// RosterPort reads the confirmed entry counts the background roster refresh
// keeps in cache.
type RosterPort interface {
	Count(ctx context.Context, eventID uuid.UUID) (int, bool, error)
}

// Service handles event directory business logic.
type Service struct {
	repo     RepositoryPort
	resolver authz.Resolver
	audit    AuditPort
	roster   RosterPort
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, resolver authz.Resolver, audit AuditPort, roster RosterPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, audit: audit, roster: roster, logger: logger}
}

// Create publishes a new draft event owned by organizerID. Requires the
// organizer capability.
func (s *Service) Create(ctx context.Context, organizerID uuid.UUID, input CreateEventInput) (Event, error) {
	caps, err := s.resolver.ResolveCapabilities(ctx, organizerID)
	if err != nil {
		return Event{}, err
	}
	if !authz.Decide(organizerID, caps, authz.ActionCreateEvent, uuid.Nil) {
		return Event{}, fmt.Errorf("events: creating events requires organizer: %w", shared.ErrNotAuthorized)
	}
	if err := input.Validate(); err != nil {
		return Event{}, err
	}
	now := time.Now().UTC()
	event := Event{
		ID:               uuid.New(),
		OrganizerID:      organizerID,
		Title:            input.Title,
		Description:      input.Description,
		Location:         input.Location,
		Discipline:       input.Discipline,
		EventType:        input.EventType,
		EventDate:        input.EventDate,
		EventTime:        input.EventTime,
		ImageURL:         input.ImageURL,
		RegistrationLink: input.RegistrationLink,
		PhotosLink:       input.PhotosLink,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	categories := make([]Category, len(input.Categories))
	for i, in := range input.Categories {
		categories[i] = Category{
			ID:        uuid.New(),
			EventID:   event.ID,
			Name:      in.Name,
			AgeRange:  in.AgeRange,
			Distance:  in.Distance,
			Elevation: in.Elevation,
			Price:     in.Price,
			CreatedAt: now,
		}
	}
	if err := s.repo.InsertWithCategories(ctx, event, categories); err != nil {
		return Event{}, err
	}
	s.recordAudit(ctx, organizerID, "event.create", event.ID, map[string]any{"title": event.Title})
	return event, nil
}

// Update rewrites event content. Gated by ownership.
func (s *Service) Update(ctx context.Context, actorID, eventID uuid.UUID, input CreateEventInput) (Event, error) {
	event, err := s.authorizeManage(ctx, actorID, eventID)
	if err != nil {
		return Event{}, err
	}
	if err := input.Validate(); err != nil {
		return Event{}, err
	}
	event.Title = input.Title
	event.Description = input.Description
	event.Location = input.Location
	event.Discipline = input.Discipline
	event.EventType = input.EventType
	event.EventDate = input.EventDate
	event.EventTime = input.EventTime
	event.ImageURL = input.ImageURL
	event.RegistrationLink = input.RegistrationLink
	event.PhotosLink = input.PhotosLink
	if err := s.repo.Update(ctx, event); err != nil {
		return Event{}, err
	}
	s.recordAudit(ctx, actorID, "event.update", eventID, nil)
	return event, nil
}

// SetPublished flips event visibility. Gated by ownership.
func (s *Service) SetPublished(ctx context.Context, actorID, eventID uuid.UUID, published bool) error {
	if _, err := s.authorizeManage(ctx, actorID, eventID); err != nil {
		return err
	}
	if err := s.repo.SetPublished(ctx, eventID, published); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "event.publish", eventID, map[string]any{"published": published})
	return nil
}

// AddCategory appends a category to an existing event. Gated by ownership.
func (s *Service) AddCategory(ctx context.Context, actorID, eventID uuid.UUID, input CategoryInput) (Category, error) {
	if _, err := s.authorizeManage(ctx, actorID, eventID); err != nil {
		return Category{}, err
	}
	if input.Name == "" {
		return Category{}, fmt.Errorf("events: category name required: %w", shared.ErrValidation)
	}
	cat := Category{
		ID:        uuid.New(),
		EventID:   eventID,
		Name:      input.Name,
		AgeRange:  input.AgeRange,
		Distance:  input.Distance,
		Elevation: input.Elevation,
		Price:     input.Price,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertCategory(ctx, cat); err != nil {
		return Category{}, err
	}
	return cat, nil
}

// List returns published events matching filters. Discipline and event type
// filter in storage; the diacritic-insensitive text query matches in memory.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Event, error) {
	events, err := s.repo.ListPublished(ctx, filters)
	if err != nil {
		return nil, err
	}
	if filters.Query == "" {
		return events, nil
	}
	out := events[:0]
	for _, event := range events {
		if !matchesQuery(event, filters.Query) {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

// ListMine returns the organizer's events, drafts included.
func (s *Service) ListMine(ctx context.Context, organizerID uuid.UUID) ([]Event, error) {
	return s.repo.ListByOrganizer(ctx, organizerID)
}

// Detail loads the event, its categories and the confirmed entry count
// concurrently.
func (s *Service) Detail(ctx context.Context, eventID uuid.UUID) (EventDetail, error) {
	event, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return EventDetail{}, err
	}
	detail := EventDetail{Event: event}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		categories, err := s.repo.ListCategories(gctx, eventID)
		if err != nil {
			return err
		}
		detail.Categories = categories
		return nil
	})
	g.Go(func() error {
		if s.roster != nil {
			count, ok, err := s.roster.Count(gctx, eventID)
			if err != nil && s.logger != nil {
				s.logger.Warn("roster cache read", slog.Any("error", err))
			}
			if err == nil && ok {
				detail.ApprovedCount = count
				return nil
			}
		}
		count, err := s.repo.ApprovedCount(gctx, eventID)
		if err != nil {
			return err
		}
		detail.ApprovedCount = count
		return nil
	})
	if err := g.Wait(); err != nil {
		return EventDetail{}, err
	}
	return detail, nil
}

// OrganizerID resolves the owner of an event for event-scoped authorization.
func (s *Service) OrganizerID(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error) {
	return s.repo.OrganizerID(ctx, eventID)
}

// CategoryBelongs reports whether the category is defined under the event.
func (s *Service) CategoryBelongs(ctx context.Context, categoryID, eventID uuid.UUID) (bool, error) {
	return s.repo.CategoryBelongs(ctx, categoryID, eventID)
}

// RegistrationLink returns the external registration form URL, if any.
func (s *Service) RegistrationLink(ctx context.Context, eventID uuid.UUID) (string, error) {
	event, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return "", err
	}
	return event.RegistrationLink, nil
}

func (s *Service) authorizeManage(ctx context.Context, actorID, eventID uuid.UUID) (Event, error) {
	event, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return Event{}, err
	}
	caps, err := s.resolver.ResolveCapabilities(ctx, actorID)
	if err != nil {
		return Event{}, err
	}
	if !authz.Decide(actorID, caps, authz.ActionManageEvent, event.OrganizerID) {
		return Event{}, fmt.Errorf("events: managing this event requires its organizer or an admin: %w", shared.ErrNotAuthorized)
	}
	return event, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID uuid.UUID, action string, entityID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{ActorID: actorID, Action: action, Entity: "event", EntityID: entityID.String(), Meta: meta}
	if err := s.audit.Record(ctx, log); err != nil && s.logger != nil {
		s.logger.Warn("record audit log", slog.Any("error", err))
	}
}
