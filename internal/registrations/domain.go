package registrations

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/grupetto/grupetto/internal/shared"
)

// Status enumerates the lifecycle of a registration.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Registration is one cyclist's entry in one event. At most one
// non-rejected registration may exist per (event, cyclist); the rule is
// enforced by a partial unique index, not application reads.
type Registration struct {
	ID         uuid.UUID
	EventID    uuid.UUID
	CyclistID  uuid.UUID
	CategoryID *uuid.UUID
	Status     Status
	Notes      string
	CreatedAt  time.Time
	ResolvedAt *time.Time
	ResolvedBy *uuid.UUID
}

// ErrDuplicateRegistration is returned when the cyclist already holds a
// pending or approved registration for the event.
var ErrDuplicateRegistration = fmt.Errorf("registrations: an active registration already exists for this event: %w", shared.ErrConflict)

// ErrInvalidCategory is returned when the chosen category does not belong
// to the event being registered for.
var ErrInvalidCategory = fmt.Errorf("registrations: category does not belong to this event: %w", shared.ErrValidation)
