package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/NomadCrew/jwkset-resolver/logger"
)

type ErrorType string

const (
	ValidationError ErrorType = "VALIDATION_ERROR"
	NotFoundError   ErrorType = "NOT_FOUND"
	AuthError       ErrorType = "AUTHENTICATION_ERROR"
	DatabaseError   ErrorType = "DATABASE_ERROR"
	ServerError     ErrorType = "SERVER_ERROR"
	ForbiddenError  ErrorType = "FORBIDDEN"

	// JWKSetUnavailableError marks a transient failure fetching or parsing a JWK
	// set. The retry and outage layers recover from it locally; anything above
	// them in the stack treats it as terminal for that call.
	JWKSetUnavailableError ErrorType = "JWKS_SET_UNAVAILABLE"
	// RateLimitReachedError is the rate limiter's refusal. It is distinct from
	// JWKSetUnavailableError so a caller can tell "upstream is down" apart from
	// "you are asking too often".
	RateLimitReachedError ErrorType = "RATE_LIMIT_REACHED"
	// KeySourceError is the generic top-level error kind surfaced to
	// applications when no more specific kind applies.
	KeySourceError ErrorType = "KEY_SOURCE_ERROR"

	ErrorTypeValidation ErrorType = "validation_failed"
	ErrorTypeConflict   ErrorType = "CONFLICT"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Raw        error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to the wrapped cause.
func (e *AppError) Unwrap() error {
	return e.Raw
}

// New creates a new AppError
func New(errType ErrorType, message string, detail string) *AppError {
	httpStatus := getHTTPStatus(errType)
	return &AppError{
		Type:       errType,
		Message:    message,
		Detail:     detail,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps a raw error with AppError context
func Wrap(err error, errType ErrorType, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Type:       errType,
		Message:    message,
		Detail:     err.Error(),
		HTTPStatus: getHTTPStatus(errType),
		Raw:        err,
	}
}

// Helper functions for common errors
func NotFound(entity string, id interface{}) *AppError {
	return &AppError{
		Type:       NotFoundError,
		Message:    fmt.Sprintf("%s not found", entity),
		Detail:     fmt.Sprintf("ID: %v", id),
		HTTPStatus: http.StatusNotFound,
	}
}

func ValidationFailed(message string, details string) *AppError {
	return &AppError{
		Type:       ValidationError,
		Message:    message,
		Detail:     details,
		HTTPStatus: http.StatusBadRequest,
	}
}

func AuthenticationFailed(message string) *AppError {
	return &AppError{
		Type:       AuthError,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

func NewDatabaseError(err error) *AppError {
	// Log original error but return sanitized message
	logger.GetLogger().Errorw("Database error", "error", err)
	return &AppError{
		Type:       DatabaseError,
		Message:    "Database operation failed",
		Detail:     "Please try again later",
		HTTPStatus: 500,
		Raw:        err,
	}
}

func InternalServerError(message string) *AppError {
	return &AppError{
		Type:       ServerError,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

func Forbidden(message string, details string) *AppError {
	return &AppError{
		Type:       ForbiddenError,
		Message:    message,
		Detail:     details,
		HTTPStatus: http.StatusForbidden,
	}
}

// JWKSetUnavailable marks a transient failure fetching or parsing a JWK set
// (I/O error, non-2xx response, or malformed JSON).
func JWKSetUnavailable(message string, cause error) *AppError {
	return &AppError{
		Type:       JWKSetUnavailableError,
		Message:    message,
		Detail:     causeDetail(cause),
		HTTPStatus: http.StatusServiceUnavailable,
		Raw:        cause,
	}
}

// RateLimitReached marks a rejection by the rate limiter. Not retried.
func RateLimitReached(message string) *AppError {
	return &AppError{
		Type:       RateLimitReachedError,
		Message:    message,
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// KeySource wraps an arbitrary failure surfaced to the application as the
// top-level error kind of the key resolution pipeline.
func KeySource(message string, cause error) *AppError {
	return &AppError{
		Type:       KeySourceError,
		Message:    message,
		Detail:     causeDetail(cause),
		HTTPStatus: http.StatusInternalServerError,
		Raw:        cause,
	}
}

func causeDetail(cause error) string {
	if cause == nil {
		return ""
	}
	return cause.Error()
}

func NewConflictError(message string, detail string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		Detail:     detail,
		HTTPStatus: http.StatusConflict,
	}
}

func Unauthorized(code, message string) error {
	return NewError(
		"unauthorized",
		code,
		message,
		http.StatusUnauthorized,
	)
}

// IsJWKSetUnavailable reports whether err is (or wraps) a transient
// upstream-fetch failure.
func IsJWKSetUnavailable(err error) bool {
	return hasType(err, JWKSetUnavailableError)
}

// IsRateLimitReached reports whether err is (or wraps) a rate-limiter refusal.
func IsRateLimitReached(err error) bool {
	return hasType(err, RateLimitReachedError)
}

// hasType walks err's Unwrap chain and reports whether any *AppError in it
// has type t.
func hasType(err error, t ErrorType) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Type == t {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

func getHTTPStatus(errType ErrorType) int {
	switch errType {
	case ValidationError:
		return http.StatusBadRequest
	case NotFoundError:
		return http.StatusNotFound
	case AuthError:
		return http.StatusUnauthorized
	case DatabaseError:
		return http.StatusInternalServerError
	case ForbiddenError:
		return http.StatusForbidden
	case JWKSetUnavailableError:
		return http.StatusServiceUnavailable
	case RateLimitReachedError:
		return http.StatusTooManyRequests
	case KeySourceError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func NewError(errType ErrorType, code string, message string, status int) error {
	return &AppError{
		Type:       errType,
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}
