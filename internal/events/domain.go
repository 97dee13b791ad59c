package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grupetto/grupetto/internal/shared"
)

// Discipline enumerates the cycling disciplines an event can target.
type Discipline string

const (
	DisciplineMTB    Discipline = "mtb"
	DisciplineRuta   Discipline = "ruta"
	DisciplineGravel Discipline = "gravel"
	DisciplineUrbano Discipline = "urbano"
)

// EventType enumerates supported event formats.
type EventType string

const (
	EventTypeTravesia         EventType = "travesia"
	EventTypeCarrera          EventType = "carrera"
	EventTypeColazo           EventType = "colazo"
	EventTypeTravesiaYCarrera EventType = "travesia_y_carrera"
)

// Event is a published or draft entry in the event directory. OrganizerID is
// the owner every event-scoped authorization decision runs against.
type Event struct {
	ID               uuid.UUID
	OrganizerID      uuid.UUID
	Title            string
	Description      string
	Location         string
	Discipline       Discipline
	EventType        EventType
	EventDate        time.Time
	EventTime        string
	ImageURL         string
	RegistrationLink string
	PhotosLink       string
	IsPublished      bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Category is a start group under an event (age range, distance, price).
type Category struct {
	ID        uuid.UUID
	EventID   uuid.UUID
	Name      string
	AgeRange  string
	Distance  *float64
	Elevation *float64
	Price     float64
	CreatedAt time.Time
}

// EventDetail bundles everything the event page needs in one read.
type EventDetail struct {
	Event         Event
	Categories    []Category
	ApprovedCount int
}

// CreateEventInput captures validation rules for new events.
type CreateEventInput struct {
	Title            string
	Description      string
	Location         string
	Discipline       Discipline
	EventType        EventType
	EventDate        time.Time
	EventTime        string
	ImageURL         string
	RegistrationLink string
	PhotosLink       string
	Categories       []CategoryInput
}

// CategoryInput describes one category row on event creation.
type CategoryInput struct {
	Name      string
	AgeRange  string
	Distance  *float64
	Elevation *float64
	Price     float64
}

// Validate ensures the create input is coherent.
func (in CreateEventInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("events: title required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Location) == "" {
		return fmt.Errorf("events: location required: %w", shared.ErrValidation)
	}
	if !validDiscipline(in.Discipline) {
		return fmt.Errorf("events: unknown discipline %q: %w", in.Discipline, shared.ErrValidation)
	}
	if !validEventType(in.EventType) {
		return fmt.Errorf("events: unknown event type %q: %w", in.EventType, shared.ErrValidation)
	}
	if in.EventDate.IsZero() {
		return fmt.Errorf("events: event date required: %w", shared.ErrValidation)
	}
	for _, cat := range in.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return fmt.Errorf("events: category name required: %w", shared.ErrValidation)
		}
		if cat.Price < 0 {
			return fmt.Errorf("events: category price cannot be negative: %w", shared.ErrValidation)
		}
	}
	return nil
}

// ListFilters narrows the public event listing.
type ListFilters struct {
	Discipline Discipline
	EventType  EventType
	Query      string
}

func validDiscipline(d Discipline) bool {
	switch d {
	case DisciplineMTB, DisciplineRuta, DisciplineGravel, DisciplineUrbano:
		return true
	}
	return false
}

func validEventType(t EventType) bool {
	switch t {
	case EventTypeTravesia, EventTypeCarrera, EventTypeColazo, EventTypeTravesiaYCarrera:
		return true
	}
	return false
}
