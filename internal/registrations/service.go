package registrations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/grupetto/grupetto/internal/authz"
	"github.com/grupetto/grupetto/internal/shared"
)

// RepositoryPort defines data access methods for registrations.
type RepositoryPort interface {
	Insert(ctx context.Context, reg Registration) error
	Get(ctx context.Context, id uuid.UUID) (Registration, error)
	Latest(ctx context.Context, eventID, cyclistID uuid.UUID) (Registration, error)
	ListForEvent(ctx context.Context, eventID uuid.UUID) ([]Registration, error)
	ListForCyclist(ctx context.Context, cyclistID uuid.UUID) ([]Registration, error)
	Transition(ctx context.Context, id uuid.UUID, to Status, resolvedBy uuid.UUID, resolvedAt time.Time) (bool, error)
}

// EventDirectory is the slice of the event catalogue the ledger needs:
// ownership for authorization and category membership for validation.
type EventDirectory interface {
	OrganizerID(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error)
	CategoryBelongs(ctx context.Context, categoryID, eventID uuid.UUID) (bool, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ApprovalPort records approval history entries.
type ApprovalPort interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
}

// Service implements the registration ledger.
type Service struct {
	repo      RepositoryPort
	events    EventDirectory
	resolver  authz.Resolver
	approvals ApprovalPort
	audit     AuditPort
	logger    *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, events EventDirectory, resolver authz.Resolver, approvals ApprovalPort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, events: events, resolver: resolver, approvals: approvals, audit: audit, logger: logger}
}

// RegisterInput carries the cyclist's entry request.
type RegisterInput struct {
	EventID    uuid.UUID
	CategoryID *uuid.UUID
	Notes      string
}

// Register files a pending registration for the cyclist. The category, if
// given, must belong to the event. A second active registration for the
// same event fails with ErrDuplicateRegistration; after a rejection the
// cyclist may register again.
func (s *Service) Register(ctx context.Context, cyclistID uuid.UUID, input RegisterInput) (Registration, error) {
	if cyclistID == uuid.Nil {
		return Registration{}, fmt.Errorf("registrations: cyclist id required: %w", shared.ErrValidation)
	}
	// Existence check doubles as the owner lookup later approvals need.
	if _, err := s.events.OrganizerID(ctx, input.EventID); err != nil {
		return Registration{}, err
	}
	if input.CategoryID != nil {
		ok, err := s.events.CategoryBelongs(ctx, *input.CategoryID, input.EventID)
		if err != nil {
			return Registration{}, err
		}
		if !ok {
			return Registration{}, ErrInvalidCategory
		}
	}
	reg := Registration{
		ID:         uuid.New(),
		EventID:    input.EventID,
		CyclistID:  cyclistID,
		CategoryID: input.CategoryID,
		Status:     StatusPending,
		Notes:      input.Notes,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, reg); err != nil {
		return Registration{}, err
	}
	s.recordApproval(ctx, shared.ApprovalLog{
		Subject: shared.ApprovalSubjectRegistration,
		RefID:   reg.ID,
		ActorID: cyclistID,
		Action:  shared.ApprovalSubmit,
	})
	s.recordAudit(ctx, cyclistID, "registration.submit", reg.ID, map[string]any{"event_id": reg.EventID.String()})
	return reg, nil
}

// Approve confirms a pending registration. The caller must be the event's
// organizer or a super_admin. The transition is a conditional update: of
// two concurrent approvals exactly one succeeds and the loser observes
// ErrInvalidState.
func (s *Service) Approve(ctx context.Context, actorID, registrationID uuid.UUID) (Registration, error) {
	return s.resolve(ctx, actorID, registrationID, StatusApproved)
}

// Reject declines a pending registration. Same terminality rules as
// Approve; a rejected registration frees the (event, cyclist) slot.
func (s *Service) Reject(ctx context.Context, actorID, registrationID uuid.UUID) (Registration, error) {
	return s.resolve(ctx, actorID, registrationID, StatusRejected)
}

// Status returns the cyclist's most recent registration for the event,
// rejected ones included so the client can offer a re-register action.
func (s *Service) Status(ctx context.Context, cyclistID, eventID uuid.UUID) (Registration, error) {
	return s.repo.Latest(ctx, eventID, cyclistID)
}

// ListForEvent returns the event's roster for its organizer or an admin.
func (s *Service) ListForEvent(ctx context.Context, actorID, eventID uuid.UUID) ([]Registration, error) {
	if err := s.requireEventManager(ctx, actorID, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListForEvent(ctx, eventID)
}

// ListMine returns every registration the cyclist has filed.
func (s *Service) ListMine(ctx context.Context, cyclistID uuid.UUID) ([]Registration, error) {
	return s.repo.ListForCyclist(ctx, cyclistID)
}

func (s *Service) resolve(ctx context.Context, actorID, registrationID uuid.UUID, to Status) (Registration, error) {
	reg, err := s.repo.Get(ctx, registrationID)
	if err != nil {
		return Registration{}, err
	}
	if err := s.requireEventManager(ctx, actorID, reg.EventID); err != nil {
		return Registration{}, err
	}
	now := time.Now().UTC()
	ok, err := s.repo.Transition(ctx, registrationID, to, actorID, now)
	if err != nil {
		return Registration{}, err
	}
	if !ok {
		return Registration{}, fmt.Errorf("registrations: registration %s already resolved: %w", registrationID, shared.ErrInvalidState)
	}
	reg.Status = to
	reg.ResolvedAt = &now
	reg.ResolvedBy = &actorID

	action := shared.ApprovalApprove
	auditAction := "registration.approve"
	if to == StatusRejected {
		action = shared.ApprovalReject
		auditAction = "registration.reject"
	}
	s.recordApproval(ctx, shared.ApprovalLog{
		Subject: shared.ApprovalSubjectRegistration,
		RefID:   registrationID,
		ActorID: actorID,
		Action:  action,
	})
	s.recordAudit(ctx, actorID, auditAction, registrationID, map[string]any{
		"event_id":   reg.EventID.String(),
		"cyclist_id": reg.CyclistID.String(),
	})
	return reg, nil
}

func (s *Service) requireEventManager(ctx context.Context, actorID, eventID uuid.UUID) error {
	ownerID, err := s.events.OrganizerID(ctx, eventID)
	if err != nil {
		return err
	}
	caps, err := s.resolver.ResolveCapabilities(ctx, actorID)
	if err != nil {
		return err
	}
	if !authz.Decide(actorID, caps, authz.ActionManageEvent, ownerID) {
		return fmt.Errorf("registrations: reviewing entries requires the event organizer or an admin: %w", shared.ErrNotAuthorized)
	}
	return nil
}

func (s *Service) recordApproval(ctx context.Context, log shared.ApprovalLog) {
	if s.approvals == nil {
		return
	}
	if err := s.approvals.Record(ctx, log); err != nil && s.logger != nil {
		s.logger.Warn("record approval history", slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID uuid.UUID, action string, entityID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{ActorID: actorID, Action: action, Entity: "registration", EntityID: entityID.String(), Meta: meta}
	if err := s.audit.Record(ctx, log); err != nil && s.logger != nil {
		s.logger.Warn("record audit log", slog.Any("error", err))
	}
}
