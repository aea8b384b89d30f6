package handler

import "time"

// SignupRequest represents the request body for starting a registration.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,max=128"`
}

// AuthenticateRequest carries the emailed verification token.
type AuthenticateRequest struct {
	Email             string `json:"email" validate:"required,email,max=254"`
	VerificationToken string `json:"verification_token" validate:"required,max=256"`
}

// LoginRequest represents the request body for password login.
type LoginRequest struct {
	EmailOrUsername string `json:"email_or_username" validate:"required,max=254"`
	Password        string `json:"password" validate:"required,max=128"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required,max=256"`
	NewPassword string `json:"new_password" validate:"required,max=128"`
}

// BodyweightRequest updates the user's body weight.
type BodyweightRequest struct {
	Bodyweight float64 `json:"bodyweight" validate:"required,gt=0,lte=1000"`
}

// TokenResponse is returned wherever a token pair is issued. The refresh token travels only in the cookie.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SettingsResponse is the public view of user settings.
type SettingsResponse struct {
	Bodyweight *float64 `json:"bodyweight"`
}

// MessageResponse wraps a plain confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}
