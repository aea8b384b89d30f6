package repository

import (
	"context"
	"errors"
	"time"

	"gatekeeper/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	// ErrPendingRegistrationNotFound is returned when no pending registration matches.
	ErrPendingRegistrationNotFound = errors.New("pending registration not found")
	// ErrPendingRegistrationConflict is returned when the email, username or token is already pending.
	ErrPendingRegistrationConflict = errors.New("pending registration already exists")
)

// PendingRegistrationRepository stores signups that have not been verified yet.
type PendingRegistrationRepository interface {
	// Create persists a new pending registration. Unique-index collisions return ErrPendingRegistrationConflict.
	Create(ctx context.Context, pending *entity.PendingRegistration) error

	// FindByEmail returns the pending registration for the email, expired or not.
	FindByEmail(ctx context.Context, email string) (*entity.PendingRegistration, error)

	// ExistsByEmailOrUsername reports whether a registration that is still live at now holds the email or the username.
	ExistsByEmailOrUsername(ctx context.Context, email, username string, now time.Time) (bool, error)

	// DeleteExpiredByEmailOrUsername drops expired registrations that would block a new signup.
	DeleteExpiredByEmailOrUsername(ctx context.Context, email, username string, now time.Time) error

	// Delete removes a pending registration by ID. Deleting a missing row is not an error.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteExpired removes every registration expired at now and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
