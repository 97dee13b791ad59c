package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grupetto/grupetto/internal/shared"
)

// Account is a login identity. Authorization never reads it directly;
// capabilities come from approved role grants.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// ErrEmailTaken is returned when the email is already registered.
var ErrEmailTaken = fmt.Errorf("auth: email already registered: %w", shared.ErrConflict)

// SignUpInput carries a new account request.
type SignUpInput struct {
	Email    string
	Password string
	FullName string
}

// Validate ensures the signup input is coherent.
func (in SignUpInput) Validate() error {
	if !strings.Contains(in.Email, "@") {
		return fmt.Errorf("auth: valid email required: %w", shared.ErrValidation)
	}
	if len(in.Password) < 8 {
		return fmt.Errorf("auth: password must be at least 8 characters: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(in.FullName) == "" {
		return fmt.Errorf("auth: full name required: %w", shared.ErrValidation)
	}
	return nil
}
