// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is a verified account. It is only ever created by promoting a PendingRegistration.
type User struct {
	ID           uuid.UUID // The Global Unique Identifier (GUID) for the user.
	Email        string    // Unique login email.
	Username     string    // Unique login name.
	PasswordHash string    // Argon2id PHC string, never the raw password.
	Bodyweight   *float64  // Optional body weight used by the settings endpoints. Nil until set.
	CreatedAt    time.Time // Timestamp of when this account was promoted from pending.
	UpdatedAt    time.Time // Timestamp of the last password or settings change.
}

// Identity is the subset of user fields embedded in tokens and refresh sessions.
type Identity struct {
	UserID   uuid.UUID
	Email    string
	Username string
}

// Identity returns the token identity of the user.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Email: u.Email, Username: u.Username}
}

// PendingRegistration is a provisional account awaiting email verification.
type PendingRegistration struct {
	ID                    uuid.UUID // Identifier of this signup attempt.
	Email                 string    // Unique across pending registrations.
	Username              string    // Unique across pending registrations.
	PasswordHash          string    // Hashed at signup so the raw password is never stored.
	VerificationTokenHash string    // SHA-256 hex of the raw token mailed to the user.
	ExpiresAt             time.Time // After this instant the registration cannot be verified.
	CreatedAt             time.Time // Timestamp of the signup request.
}

// IsExpired reports whether the registration can no longer be verified at now.
func (p *PendingRegistration) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
