package repository

import (
	"context"
	"errors"
	"time"

	"gatekeeper/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrRefreshSessionNotFound is returned when no live session matches a token hash.
var ErrRefreshSessionNotFound = errors.New("refresh session not found")

// RefreshSessionRepository stores the single live refresh session of each user.
type RefreshSessionRepository interface {
	// Replace deletes every session of session.UserID and inserts session as one unit per user.
	Replace(ctx context.Context, session *entity.RefreshSession) error

	// Consume atomically finds and deletes the session with tokenHash that is live at now.
	// A miss, including an expired session, returns ErrRefreshSessionNotFound.
	Consume(ctx context.Context, tokenHash string, now time.Time) (*entity.RefreshSession, error)

	// DeleteByUserID removes every session of the user and returns how many were removed.
	DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error)

	// CountByUserID returns the number of stored sessions for the user.
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)

	// DeleteExpired removes sessions expired at now. Backends with native expiry return zero.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
