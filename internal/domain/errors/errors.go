package errors

import (
	"net/http"

	"gatekeeper/internal/errors"
)

// Kind classifies an application error by how a caller should react to it.
type Kind string

const (
	KindConflict     Kind = "conflict"
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindServer       Kind = "server"
)

// HTTPCode returns the HTTP status equivalent of the kind.
func (k Kind) HTTPCode() int {
	switch k {
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Reasons distinguish failures that share a public message. They are for logs and tests only.
const (
	ReasonExpired            = "expired"
	ReasonInvalidOrExpired   = "invalid_or_expired"
	ReasonDeviceMismatch     = "device_mismatch"
	ReasonTokenMismatch      = "token_mismatch"
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonMalformed          = "malformed"
	ReasonMissingClaims      = "missing_claims"
	ReasonNotFound           = "not_found"
	ReasonAlreadyPending     = "already_pending"
	ReasonAlreadyVerified    = "already_verified"
	ReasonWeakPassword       = "weak_password"
	ReasonDeliveryFailed     = "delivery_failed"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	Kind() Kind        // Error classification
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
	Reason() string    // Internal reason, never sent to clients
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	kind      Kind
	errorCode string
	message   string
	details   string
	reason    string
}

// NewBaseError creates a new base error
func NewBaseError(kind Kind, errorCode, message string) *BaseError {
	return &BaseError{
		kind:      kind,
		errorCode: errorCode,
		message:   message,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.reason != "" {
		return e.message + " (" + e.reason + ")"
	}

	return e.message
}

// Is matches any BaseError carrying the same error code, so reason variants still match their base.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return e.errorCode == t.errorCode
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// Kind returns the error classification
func (e *BaseError) Kind() Kind {
	return e.kind
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.kind.HTTPCode()
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// Reason returns the internal failure reason
func (e *BaseError) Reason() string {
	return e.reason
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	cloned := *e
	cloned.details = details

	return &cloned
}

// WithReason tags the error with an internal reason
func (e *BaseError) WithReason(reason string) *BaseError {
	cloned := *e
	cloned.reason = reason

	return &cloned
}

// Predefined error types
var (
	// Identity errors
	ErrIdentityTaken = NewBaseError(
		KindConflict,
		"IDENTITY_TAKEN",
		"Email or username is already in use",
	)

	ErrAlreadyVerified = NewBaseError(
		KindConflict,
		"ALREADY_VERIFIED",
		"Account is already verified",
	).WithReason(ReasonAlreadyVerified)

	ErrPendingRegistrationNotFound = NewBaseError(
		KindNotFound,
		"PENDING_REGISTRATION_NOT_FOUND",
		"Pending registration not found",
	)

	ErrUserNotFound = NewBaseError(
		KindNotFound,
		"USER_NOT_FOUND",
		"User not found",
	)

	// Authentication errors. The public message is identical for every reason.
	ErrUnauthorized = NewBaseError(
		KindUnauthorized,
		"UNAUTHORIZED",
		"Authentication failed",
	)

	ErrTokenExpired = NewBaseError(
		KindUnauthorized,
		"TOKEN_EXPIRED",
		"Authentication failed",
	).WithReason(ReasonExpired)

	// Password reset errors
	ErrResetUnavailable = NewBaseError(
		KindConflict,
		"RESET_UNAVAILABLE",
		"Password reset cannot be started for this account",
	)

	// Validation errors
	ErrWeakPassword = NewBaseError(
		KindValidation,
		"PASSWORD_STRENGTH",
		"Password must be at least 8 characters and include upper-case, lower-case, digit and symbol",
	).WithReason(ReasonWeakPassword)

	ErrValidationFailed = NewBaseError(
		KindValidation,
		"VALIDATION_FAILED",
		"Input validation failed",
	)

	// Collaborator errors
	ErrEmailDelivery = NewBaseError(
		KindServer,
		"EMAIL_DELIVERY_FAILED",
		"Failed to send email, please try again later",
	).WithReason(ReasonDeliveryFailed)

	ErrInternalError = NewBaseError(
		KindServer,
		"INTERNAL_ERROR",
		"Internal server error",
	)
)

// Unauthorized returns the generic authentication error tagged with an internal reason.
func Unauthorized(reason string) *BaseError {
	return ErrUnauthorized.WithReason(reason)
}

// KindOf returns the kind of the first AppError in err's chain, or KindServer.
func KindOf(err error) Kind {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Kind()
	}

	return KindServer
}

// ReasonOf returns the internal reason of the first AppError in err's chain.
func ReasonOf(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Reason()
	}

	return ""
}

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// Unwrap exposes the driver error
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

// Kind returns KindServer
func (e *DatabaseExecuteError) Kind() Kind {
	return KindServer
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "Database execution failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}

// Reason returns the detail string
func (e *DatabaseExecuteError) Reason() string {
	return e.details
}
