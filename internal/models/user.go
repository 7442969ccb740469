package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's email address (unique). Used for login.
	Email string

	// DisplayName is shown to other project members.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	Preferences UserPreferences

	CreatedAt int64
	UpdatedAt int64
}

// NewUser creates a user with a fresh ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// UserPreferences holds per-user settings. They are loaded with the session's user
// and passed explicitly to the operations that consult them.
type UserPreferences struct {
	// DefaultSplitMode is used when a new expense does not name a split mode.
	DefaultSplitMode string `json:"default_split_mode,omitempty"`

	// SelectedPeriod ("YYYY-MM") is the month summaries are computed for.
	// Empty means the current month.
	SelectedPeriod string `json:"selected_period,omitempty"`
}
