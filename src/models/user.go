package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a caregiver or admin account.
// PasswordHash and the reset-token pair are never serialized.
type User struct {
	ID                   uuid.UUID  `json:"id"`
	Username             string     `json:"username"`
	Email                string     `json:"email"`
	PasswordHash         string     `json:"-"`
	Role                 Role       `json:"role"`
	IsActive             bool       `json:"isActive"`
	LastLogin            *time.Time `json:"lastLogin"`
	LastPasswordChange   *time.Time `json:"-"`
	PasswordResetToken   *string    `json:"-"` // SHA-256 hex of the emailed token
	PasswordResetExpires *time.Time `json:"-"`
	DeletedAt            *time.Time `json:"deletedAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// HasValidResetToken reports whether an unexpired reset token is outstanding
func (u *User) HasValidResetToken(now time.Time) bool {
	return u.PasswordResetToken != nil &&
		u.PasswordResetExpires != nil &&
		u.PasswordResetExpires.After(now)
}
