package roles

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/grupetto/grupetto/internal/authz"
	"github.com/grupetto/grupetto/internal/shared"
)

// GrantStatus enumerates the role-grant lifecycle. Approved and rejected are
// terminal; no transition leaves them.
type GrantStatus string

const (
	GrantStatusPending  GrantStatus = "pending"
	GrantStatusApproved GrantStatus = "approved"
	GrantStatusRejected GrantStatus = "rejected"
)

// RoleGrant represents a request for, and possibly approval of, a capability.
// Only Status, ApprovedAt and ApprovedBy ever change after creation, exactly
// once.
type RoleGrant struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Role        authz.Role
	Status      GrantStatus
	RequestedAt time.Time
	ApprovedAt  *time.Time
	ApprovedBy  *uuid.UUID
}

// ErrDuplicatePending indicates an unresolved or already-held grant for the
// same (user, role) pair.
var ErrDuplicatePending = fmt.Errorf("roles: request already exists for this role: %w", shared.ErrConflict)

// initialStatus implements the role-dependent initial state: cyclist grants
// are approved at creation, organizer and super_admin start pending.
func initialStatus(role authz.Role) GrantStatus {
	if role == authz.RoleCyclist {
		return GrantStatusApproved
	}
	return GrantStatusPending
}
