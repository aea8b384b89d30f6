// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"gatekeeper/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// SignupInput defines the data required to start a registration.
type SignupInput struct {
	Email    string
	Username string
	Password string
}

// VerifyInput carries the emailed verification token back.
type VerifyInput struct {
	Email             string
	Token             string
	DeviceFingerprint string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	EmailOrUsername   string
	Password          string
	DeviceFingerprint string
}

// ResetPasswordInput completes a password reset with the emailed token.
type ResetPasswordInput struct {
	Token             string
	NewPassword       string
	DeviceFingerprint string
}

// RegistrationUsecase moves a signup through pending to verified.
type RegistrationUsecase interface {
	// Signup stores a pending registration and mails its verification link.
	Signup(ctx context.Context, input *SignupInput) error
	// Verify promotes the pending registration to a user and returns a token pair.
	Verify(ctx context.Context, input *VerifyInput) (*entity.TokenPair, error)
}

// AuthUsecase covers password login and logout.
type AuthUsecase interface {
	Login(ctx context.Context, input *LoginInput) (*entity.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
}

// SessionUsecase issues, rotates and revokes refresh sessions and checks access tokens.
type SessionUsecase interface {
	// CreateTokenPair replaces every session of the user with a new one.
	CreateTokenPair(ctx context.Context, identity entity.Identity, deviceFingerprint string) (*entity.TokenPair, error)
	// Refresh burns the presented refresh token and, when it is valid for this device, returns a rotated pair.
	Refresh(ctx context.Context, rawRefreshToken, deviceFingerprint string) (*entity.TokenPair, error)
	// RevokeAll deletes every session of the user.
	RevokeAll(ctx context.Context, userID uuid.UUID) error
	// Authenticate validates an access token without touching the store.
	Authenticate(ctx context.Context, accessToken string) (*entity.AccessClaims, error)
}

// PasswordResetUsecase issues and redeems single-use reset tokens.
type PasswordResetUsecase interface {
	Initiate(ctx context.Context, email string) error
	Consume(ctx context.Context, rawToken string) (uuid.UUID, error)
	Complete(ctx context.Context, userID uuid.UUID, newPassword, deviceFingerprint string) (*entity.TokenPair, error)
	// ResetPassword checks strength, then consumes the token and completes the reset.
	ResetPassword(ctx context.Context, input *ResetPasswordInput) (*entity.TokenPair, error)
}
