package results

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/grupetto/grupetto/internal/shared"
)

// Result is one cyclist's finishing record in an event category.
type Result struct {
	ID         uuid.UUID
	EventID    uuid.UUID
	CyclistID  uuid.UUID
	CategoryID *uuid.UUID
	Position   int
	FinishTime string
	RecordedBy uuid.UUID
	CreatedAt  time.Time
}

// ErrDuplicateResult is returned when the cyclist already has a result
// recorded for the event.
var ErrDuplicateResult = fmt.Errorf("results: a result already exists for this cyclist and event: %w", shared.ErrConflict)

// RecordInput carries a new finishing record.
type RecordInput struct {
	EventID    uuid.UUID
	CyclistID  uuid.UUID
	CategoryID *uuid.UUID
	Position   int
	FinishTime string
}

// Validate ensures the record input is coherent.
func (in RecordInput) Validate() error {
	if in.EventID == uuid.Nil {
		return fmt.Errorf("results: event id required: %w", shared.ErrValidation)
	}
	if in.CyclistID == uuid.Nil {
		return fmt.Errorf("results: cyclist id required: %w", shared.ErrValidation)
	}
	if in.Position < 1 {
		return fmt.Errorf("results: position must be positive: %w", shared.ErrValidation)
	}
	return nil
}
