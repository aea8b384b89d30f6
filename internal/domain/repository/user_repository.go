// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"gatekeeper/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is a domain-specific error returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists is returned when the email or username is held by another user.
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserRepository defines the standard operations for verified user persistence.
// The application layer will depend on this interface, not the concrete implementation.
type UserRepository interface {
	// Create persists a promoted user. A unique-index collision returns ErrUserAlreadyExists.
	Create(ctx context.Context, user *entity.User) error

	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by their email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByUsername retrieves a single user by their username.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// ExistsByEmailOrUsername reports whether any user holds the email or the username.
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)

	// AcquireSessionMutex locks the user row until the surrounding transaction ends.
	// Outside a transaction it only checks that the user exists.
	AcquireSessionMutex(ctx context.Context, id uuid.UUID) error

	// UpdatePasswordHash replaces the stored password hash.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error

	// UpdateBodyweight sets the user's body weight.
	UpdateBodyweight(ctx context.Context, id uuid.UUID, bodyweight float64) error
}
