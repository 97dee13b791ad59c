package authz

import "github.com/google/uuid"

// Action names a gated operation.
type Action string

const (
	// ActionReviewRoles covers approving or rejecting role-grant requests.
	ActionReviewRoles Action = "roles.review"
	// ActionCreateEvent covers publishing a new event.
	ActionCreateEvent Action = "events.create"
	// ActionManageEvent covers editing an event and reviewing its
	// registrations; owner is the event's organizer.
	ActionManageEvent Action = "events.manage"
	// ActionSelf covers self-scoped operations; owner is the acting identity.
	ActionSelf Action = "self"
)

// Decide is the authorization gate: a pure function over the actor's
// resolved capabilities, the requested action and the resource owner.
// It holds no state and is safe for concurrent use.
//
// Rules, in priority order: super_admin may do anything; event-scoped
// management requires the organizer capability plus ownership; creating an
// event requires the organizer capability; self-scoped actions require only
// matching identity. Everything else is denied.
func Decide(actorID uuid.UUID, caps CapabilitySet, action Action, ownerID uuid.UUID) bool {
	if actorID == uuid.Nil {
		return false
	}
	if caps.Has(RoleSuperAdmin) {
		return true
	}
	switch action {
	case ActionManageEvent:
		return caps.Has(RoleOrganizer) && actorID == ownerID
	case ActionCreateEvent:
		return caps.Has(RoleOrganizer)
	case ActionSelf:
		return actorID == ownerID
	default:
		return false
	}
}
