package results

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/grupetto/grupetto/internal/authz"
	"github.com/grupetto/grupetto/internal/shared"
)

// RepositoryPort defines data access methods for results.
type RepositoryPort interface {
	Insert(ctx context.Context, result Result) error
	ListForEvent(ctx context.Context, eventID uuid.UUID) ([]Result, error)
	ListForCyclist(ctx context.Context, cyclistID uuid.UUID) ([]Result, error)
}

// EventDirectory resolves event ownership and category membership.
type EventDirectory interface {
	OrganizerID(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error)
	CategoryBelongs(ctx context.Context, categoryID, eventID uuid.UUID) (bool, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles result recording and reads. Results are public to
// read; only the event's organizer or an admin may record them.
type Service struct {
	repo     RepositoryPort
	events   EventDirectory
	resolver authz.Resolver
	audit    AuditPort
	logger   *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, events EventDirectory, resolver authz.Resolver, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, events: events, resolver: resolver, audit: audit, logger: logger}
}

// Record writes a finishing record for the event.
func (s *Service) Record(ctx context.Context, actorID uuid.UUID, input RecordInput) (Result, error) {
	if err := input.Validate(); err != nil {
		return Result{}, err
	}
	ownerID, err := s.events.OrganizerID(ctx, input.EventID)
	if err != nil {
		return Result{}, err
	}
	caps, err := s.resolver.ResolveCapabilities(ctx, actorID)
	if err != nil {
		return Result{}, err
	}
	if !authz.Decide(actorID, caps, authz.ActionManageEvent, ownerID) {
		return Result{}, fmt.Errorf("results: recording results requires the event organizer or an admin: %w", shared.ErrNotAuthorized)
	}
	if input.CategoryID != nil {
		ok, err := s.events.CategoryBelongs(ctx, *input.CategoryID, input.EventID)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, fmt.Errorf("results: category does not belong to this event: %w", shared.ErrValidation)
		}
	}
	result := Result{
		ID:         uuid.New(),
		EventID:    input.EventID,
		CyclistID:  input.CyclistID,
		CategoryID: input.CategoryID,
		Position:   input.Position,
		FinishTime: input.FinishTime,
		RecordedBy: actorID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, result); err != nil {
		return Result{}, err
	}
	s.recordAudit(ctx, actorID, "result.record", result.ID, map[string]any{
		"event_id":   result.EventID.String(),
		"cyclist_id": result.CyclistID.String(),
		"position":   result.Position,
	})
	return result, nil
}

// ListForEvent returns the public results board for an event.
func (s *Service) ListForEvent(ctx context.Context, eventID uuid.UUID) ([]Result, error) {
	return s.repo.ListForEvent(ctx, eventID)
}

// ListForCyclist returns a cyclist's public result history.
func (s *Service) ListForCyclist(ctx context.Context, cyclistID uuid.UUID) ([]Result, error) {
	return s.repo.ListForCyclist(ctx, cyclistID)
}

func (s *Service) recordAudit(ctx context.Context, actorID uuid.UUID, action string, entityID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{ActorID: actorID, Action: action, Entity: "result", EntityID: entityID.String(), Meta: meta}
	if err := s.audit.Record(ctx, log); err != nil && s.logger != nil {
		s.logger.Warn("record audit log", slog.Any("error", err))
	}
}
