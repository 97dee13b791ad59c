package authz

import (
	"fmt"

	"github.com/grupetto/grupetto/internal/shared"
)

// Role is a capability recognised by the authorization gate.
type Role string

const (
	// RoleCyclist may register for events; granted automatically on request.
	RoleCyclist Role = "cyclist"
	// RoleOrganizer may create events and review their registrations.
	RoleOrganizer Role = "organizer"
	// RoleSuperAdmin may perform any action, including role approval.
	RoleSuperAdmin Role = "super_admin"
)

// ParseRole validates a wire-level role value.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleCyclist, RoleOrganizer, RoleSuperAdmin:
		return Role(value), nil
	default:
		return "", fmt.Errorf("authz: unknown role %q: %w", value, shared.ErrValidation)
	}
}

// CapabilitySet is the effective set of roles held by a user.
type CapabilitySet map[Role]struct{}

// Has reports whether the set contains role.
func (s CapabilitySet) Has(role Role) bool {
	_, ok := s[role]
	return ok
}

// Roles returns the set as a slice, in a fixed order.
func (s CapabilitySet) Roles() []Role {
	out := make([]Role, 0, len(s))
	for _, role := range []Role{RoleCyclist, RoleOrganizer, RoleSuperAdmin} {
		if s.Has(role) {
			out = append(out, role)
		}
	}
	return out
}

// Expand computes the effective capability set from approved grants.
// Holding super_admin implies the full organizer capability even without a
// separate approved organizer grant.
func Expand(granted []Role) CapabilitySet {
	set := make(CapabilitySet, len(granted)+1)
	for _, role := range granted {
		set[role] = struct{}{}
	}
	if set.Has(RoleSuperAdmin) {
		set[RoleOrganizer] = struct{}{}
	}
	return set
}
