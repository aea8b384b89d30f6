package repository

import (
	"context"
	"errors"
	"time"

	"gatekeeper/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	// ErrPasswordResetTokenNotFound is returned when no live reset token matches.
	ErrPasswordResetTokenNotFound = errors.New("password reset token not found")
	// ErrPasswordResetTokenExists is returned when the user already holds a token.
	ErrPasswordResetTokenExists = errors.New("password reset token already exists")
)

// PasswordResetRepository stores single-use password reset tokens.
type PasswordResetRepository interface {
	// Replace deletes prior tokens of token.UserID and inserts token.
	// A concurrent insert for the same user yields ErrPasswordResetTokenExists.
	Replace(ctx context.Context, token *entity.PasswordResetToken) error

	// ExistsLiveForUser reports whether the user has a token that is live at now.
	ExistsLiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error)

	// Consume atomically finds and deletes the token with tokenHash that is live at now.
	Consume(ctx context.Context, tokenHash string, now time.Time) (*entity.PasswordResetToken, error)

	// DeleteByUserID removes every token of the user.
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error

	// DeleteExpired removes tokens expired at now and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
