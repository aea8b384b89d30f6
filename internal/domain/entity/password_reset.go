package entity

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetToken is a single-use, time-bounded grant to replace a user's password.
type PasswordResetToken struct {
	ID        uuid.UUID // The unique ID for this reset grant.
	UserID    uuid.UUID // User whose password may be replaced. At most one token per user.
	TokenHash string    // SHA-256 hex of the raw token mailed to the user.
	ExpiresAt time.Time // The token is unusable from this instant.
	CreatedAt time.Time // Timestamp of the reset request.
}

// IsExpired reports whether the token is past its expiry at now.
func (t *PasswordResetToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
