package entity

import (
	"time"

	"github.com/google/uuid"
)

// RefreshSession is the single live long-lived session of a user.
type RefreshSession struct {
	ID                uuid.UUID  // The unique ID for this session record.
	UserID            uuid.UUID  // Owner of the session. At most one session per user is live.
	Email             string     // Copied from the user so rotation needs no user lookup.
	Username          string     // Copied from the user so rotation needs no user lookup.
	TokenHash         string     // SHA-256 hex of the raw refresh token.
	DeviceFingerprint string     // Opaque client binding presented again on refresh.
	ExpiresAt         time.Time  // The exact time when this session becomes invalid.
	CreatedAt         time.Time  // Timestamp of login, verification or rotation.
	ParentTokenID     *uuid.UUID // Session this one was rotated from. Audit only.
}

// IsExpired reports whether the session is past its expiry at now.
func (s *RefreshSession) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Identity returns the identity fields stored on the session.
func (s *RefreshSession) Identity() Identity {
	return Identity{UserID: s.UserID, Email: s.Email, Username: s.Username}
}

// TokenPair is returned once to the caller after login, verification, rotation or reset.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string // Raw value. Only its hash is persisted.
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AccessClaims are the verified contents of an access token.
type AccessClaims struct {
	Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}
