package service

import (
	"errors"
	"time"

	"gatekeeper/internal/domain/entity"
)

// Validation failures reported by a TokenSigner. Callers distinguish them to decide
// between prompting a refresh and rejecting the request outright.
var (
	ErrTokenExpired       = errors.New("access token expired")
	ErrTokenMalformed     = errors.New("access token malformed or signature invalid")
	ErrTokenMissingClaims = errors.New("access token missing required claims")
)

// TokenSigner mints and validates short-lived signed access tokens without store access.
type TokenSigner interface {
	// Issue signs an access token for identity that expires at the returned time.
	Issue(identity entity.Identity) (token string, expiresAt time.Time, err error)

	// Validate checks signature and expiry and returns the verified claims.
	Validate(token string) (*entity.AccessClaims, error)

	// AccessTokenTTL returns the lifetime of issued tokens.
	AccessTokenTTL() time.Duration
}
