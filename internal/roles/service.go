package roles

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/grupetto/grupetto/internal/authz"
	"github.com/grupetto/grupetto/internal/shared"
)

// RepositoryPort defines data access methods for role grants.
type RepositoryPort interface {
	Insert(ctx context.Context, grant RoleGrant) error
	Get(ctx context.Context, id uuid.UUID) (RoleGrant, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]RoleGrant, error)
	ListPending(ctx context.Context) ([]RoleGrant, error)
	Transition(ctx context.Context, id uuid.UUID, to GrantStatus, approvedBy *uuid.UUID, approvedAt *time.Time) (bool, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ApprovalPort records approval history entries.
type ApprovalPort interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
}

// Service implements the role-grant state machine and the role resolver.
type Service struct {
	repo      RepositoryPort
	approvals ApprovalPort
	audit     AuditPort
	logger    *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, approvals ApprovalPort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, approvals: approvals, audit: audit, logger: logger}
}

// RequestRole files a self-service role request. Cyclist grants are approved
// atomically at creation; organizer and super_admin start pending. A second
// request while an unresolved (or held) grant exists fails with
// ErrDuplicatePending.
func (s *Service) RequestRole(ctx context.Context, userID uuid.UUID, role authz.Role) (RoleGrant, error) {
	if userID == uuid.Nil {
		return RoleGrant{}, fmt.Errorf("roles: user id required: %w", shared.ErrValidation)
	}
	now := time.Now().UTC()
	grant := RoleGrant{
		ID:          uuid.New(),
		UserID:      userID,
		Role:        role,
		Status:      initialStatus(role),
		RequestedAt: now,
	}
	if grant.Status == GrantStatusApproved {
		grant.ApprovedAt = &now
	}
	if err := s.repo.Insert(ctx, grant); err != nil {
		return RoleGrant{}, err
	}
	s.recordApproval(ctx, shared.ApprovalLog{
		Subject: shared.ApprovalSubjectRoleGrant,
		RefID:   grant.ID,
		ActorID: userID,
		Action:  shared.ApprovalSubmit,
		Note:    string(role),
	})
	if grant.Status == GrantStatusApproved {
		s.recordApproval(ctx, shared.ApprovalLog{
			Subject: shared.ApprovalSubjectRoleGrant,
			RefID:   grant.ID,
			ActorID: userID,
			Action:  shared.ApprovalApprove,
			Note:    "auto-approved",
		})
	}
	s.recordAudit(ctx, userID, "role_grant.request", grant.ID, map[string]any{"role": string(role), "status": string(grant.Status)})
	return grant, nil
}

// ResolveCapabilities computes the effective capability set for userID from
// approved grants. Pure read; no side effects.
func (s *Service) ResolveCapabilities(ctx context.Context, userID uuid.UUID) (authz.CapabilitySet, error) {
	grants, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	approved := make([]authz.Role, 0, len(grants))
	for _, grant := range grants {
		if grant.Status == GrantStatusApproved {
			approved = append(approved, grant.Role)
		}
	}
	return authz.Expand(approved), nil
}

// Approve resolves a pending grant in the caller's favour. The caller must
// hold super_admin. The transition is a conditional update: of two
// concurrent approvals exactly one succeeds and the loser observes
// ErrInvalidState.
func (s *Service) Approve(ctx context.Context, adminID, grantID uuid.UUID) (RoleGrant, error) {
	if err := s.requireRoleReviewer(ctx, adminID); err != nil {
		return RoleGrant{}, err
	}
	grant, err := s.repo.Get(ctx, grantID)
	if err != nil {
		return RoleGrant{}, err
	}
	now := time.Now().UTC()
	ok, err := s.repo.Transition(ctx, grantID, GrantStatusApproved, &adminID, &now)
	if err != nil {
		return RoleGrant{}, err
	}
	if !ok {
		return RoleGrant{}, fmt.Errorf("roles: grant %s already resolved: %w", grantID, shared.ErrInvalidState)
	}
	grant.Status = GrantStatusApproved
	grant.ApprovedAt = &now
	grant.ApprovedBy = &adminID
	s.recordApproval(ctx, shared.ApprovalLog{
		Subject: shared.ApprovalSubjectRoleGrant,
		RefID:   grantID,
		ActorID: adminID,
		Action:  shared.ApprovalApprove,
	})
	s.recordAudit(ctx, adminID, "role_grant.approve", grantID, map[string]any{"role": string(grant.Role), "user_id": grant.UserID.String()})
	return grant, nil
}

// Reject resolves a pending grant negatively. Same terminality rules as
// Approve; rejection leaves ApprovedAt and ApprovedBy empty.
func (s *Service) Reject(ctx context.Context, adminID, grantID uuid.UUID) (RoleGrant, error) {
	if err := s.requireRoleReviewer(ctx, adminID); err != nil {
		return RoleGrant{}, err
	}
	grant, err := s.repo.Get(ctx, grantID)
	if err != nil {
		return RoleGrant{}, err
	}
	ok, err := s.repo.Transition(ctx, grantID, GrantStatusRejected, nil, nil)
	if err != nil {
		return RoleGrant{}, err
	}
	if !ok {
		return RoleGrant{}, fmt.Errorf("roles: grant %s already resolved: %w", grantID, shared.ErrInvalidState)
	}
	grant.Status = GrantStatusRejected
	s.recordApproval(ctx, shared.ApprovalLog{
		Subject: shared.ApprovalSubjectRoleGrant,
		RefID:   grantID,
		ActorID: adminID,
		Action:  shared.ApprovalReject,
	})
	s.recordAudit(ctx, adminID, "role_grant.reject", grantID, map[string]any{"role": string(grant.Role), "user_id": grant.UserID.String()})
	return grant, nil
}

// ListPending returns unresolved grants for the admin review screen.
func (s *Service) ListPending(ctx context.Context, adminID uuid.UUID) ([]RoleGrant, error) {
	if err := s.requireRoleReviewer(ctx, adminID); err != nil {
		return nil, err
	}
	return s.repo.ListPending(ctx)
}

// ListForUser returns every grant the user has filed, any status.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]RoleGrant, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) requireRoleReviewer(ctx context.Context, adminID uuid.UUID) error {
	caps, err := s.ResolveCapabilities(ctx, adminID)
	if err != nil {
		return err
	}
	if !authz.Decide(adminID, caps, authz.ActionReviewRoles, uuid.Nil) {
		return fmt.Errorf("roles: reviewing grants requires super_admin: %w", shared.ErrNotAuthorized)
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
	log := shared.AuditLog{ActorID: actorID, Action: action, Entity: "role_grant", EntityID: entityID.String(), Meta: meta}
	if err := s.audit.Record(ctx, log); err != nil && s.logger != nil {
		s.logger.Warn("record audit log", slog.Any("error", err))
	}
}

var _ authz.Resolver = (*Service)(nil)
