package profiles

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grupetto/grupetto/internal/shared"
)

// Profile is the public rider card attached to an account. The primary
// key is the account id.
type Profile struct {
	UserID           uuid.UUID
	FullName         string
	Phone            string
	City             string
	AvatarURL        string
	EmergencyContact string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UpdateInput carries the mutable profile fields.
type UpdateInput struct {
	FullName         string
	Phone            string
	City             string
	AvatarURL        string
	EmergencyContact string
}

// Validate ensures the update is coherent.
func (in UpdateInput) Validate() error {
	if strings.TrimSpace(in.FullName) == "" {
		return fmt.Errorf("profiles: full name required: %w", shared.ErrValidation)
	}
	return nil
}
