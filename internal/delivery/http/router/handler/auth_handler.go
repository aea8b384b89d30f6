package handler

import (
	"log/slog"
	"net/http"

	"gatekeeper/config"
	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/delivery/http/response"
	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/infra/metrics"
	"gatekeeper/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Auth event names recorded in metrics.
const (
	eventSignup        = "signup"
	eventVerify        = "verify"
	eventLogin         = "login"
	eventRefresh       = "refresh"
	eventLogout        = "logout"
	eventResetRequest  = "reset_request"
	eventResetComplete = "reset_complete"
)

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	Registration usecase.RegistrationUsecase
	Auth         usecase.AuthUsecase
	Sessions     usecase.SessionUsecase
	Reset        usecase.PasswordResetUsecase
	Metrics      *metrics.Metrics
	Config       *config.Config
	Logger       *slog.Logger
}

// AuthHandler serves the /auth routes.
type AuthHandler struct {
	registration usecase.RegistrationUsecase
	auth         usecase.AuthUsecase
	sessions     usecase.SessionUsecase
	reset        usecase.PasswordResetUsecase
	metrics      *metrics.Metrics
	cookie       refreshCookie
	logger       *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		registration: params.Registration,
		auth:         params.Auth,
		sessions:     params.Sessions,
		reset:        params.Reset,
		metrics:      params.Metrics,
		cookie:       newRefreshCookie(params.Config),
		logger:       params.Logger,
	}
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.registration.Signup(c.Request().Context(), &usecase.SignupInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	h.metrics.RecordAuthEvent(eventSignup, err)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated,
		MessageResponse{Message: "Signup successful! Check your email to verify your account."}, "Signup successful")
}

// Authenticate handles POST /auth/authenticate, the verification link landing call.
func (h *AuthHandler) Authenticate(c echo.Context) error {
	var req AuthenticateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pair, err := h.registration.Verify(c.Request().Context(), &usecase.VerifyInput{
		Email:             req.Email,
		Token:             req.VerificationToken,
		DeviceFingerprint: DeviceFingerprint(c.Request()),
	})
	h.metrics.RecordAuthEvent(eventVerify, err)
	if err != nil {
		return errors.WithStack(err)
	}

	return h.issue(c, pair, "Account verified")
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pair, err := h.auth.Login(c.Request().Context(), &usecase.LoginInput{
		EmailOrUsername:   req.EmailOrUsername,
		Password:          req.Password,
		DeviceFingerprint: DeviceFingerprint(c.Request()),
	})
	h.metrics.RecordAuthEvent(eventLogin, err)
	if err != nil {
		return errors.WithStack(err)
	}

	return h.issue(c, pair, "Login successful")
}

// Refresh handles POST /auth/refresh. The refresh token is read from the cookie only.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := h.cookie.read(c.Request())
	if raw == "" {
		h.metrics.RecordAuthEvent(eventRefresh, domainerrors.ErrUnauthorized)

		return domainerrors.Unauthorized(domainerrors.ReasonInvalidOrExpired)
	}

	pair, err := h.sessions.Refresh(c.Request().Context(), raw, DeviceFingerprint(c.Request()))
	h.metrics.RecordAuthEvent(eventRefresh, err)
	if err != nil {
		if domainerrors.KindOf(err) == domainerrors.KindUnauthorized {
			h.cookie.clear(c.Response())
		}

		return errors.WithStack(err)
	}

	return h.issue(c, pair, "Token refreshed")
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, ok := deliverycontext.GetUserID(c)
	if !ok {
		return domainerrors.Unauthorized(domainerrors.ReasonMissingClaims)
	}

	err := h.auth.Logout(c.Request().Context(), userID)
	h.metrics.RecordAuthEvent(eventLogout, err)
	if err != nil {
		return errors.WithStack(err)
	}

	h.cookie.clear(c.Response())

	return response.Success(c, http.StatusOK, MessageResponse{Message: "Logged out successfully"}, "Logout successful")
}

// ForgotPassword handles POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.reset.Initiate(c.Request().Context(), req.Email)
	h.metrics.RecordAuthEvent(eventResetRequest, err)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusAccepted,
		MessageResponse{Message: "Password reset email sent"}, "Password reset requested")
}

// ResetPassword handles POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pair, err := h.reset.ResetPassword(c.Request().Context(), &usecase.ResetPasswordInput{
		Token:             req.Token,
		NewPassword:       req.NewPassword,
		DeviceFingerprint: DeviceFingerprint(c.Request()),
	})
	h.metrics.RecordAuthEvent(eventResetComplete, err)
	if err != nil {
		return errors.WithStack(err)
	}

	return h.issue(c, pair, "Password reset successful")
}

func (h *AuthHandler) issue(c echo.Context, pair *entity.TokenPair, message string) error {
	h.cookie.set(c.Response(), pair.RefreshToken)

	return response.Success(c, http.StatusOK, TokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   "bearer",
		ExpiresAt:   pair.AccessExpiresAt,
	}, message)
}

// bindAndValidate binds the body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
