// Package errors provides the ledger error taxonomy.
//
// Every failure returned by the core carries one of four kinds (NotFound,
// AlreadyExists, InvalidPayload, Forbidden) plus a human-readable message.
// The HTTP layer renders AppError as {code, message, params}.
//
// Import Path: seatledger.io/ledger/internal/pkg/errors
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors, one per ledger error kind.
// AppError values unwrap to the sentinel of their kind so callers can use errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrForbidden      = errors.New("forbidden")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternal       = errors.New("internal error")
)

// Kind classifies an error for callers that only care about the category.
type Kind string

const (
	KindNotFound       Kind = "NotFound"
	KindAlreadyExists  Kind = "AlreadyExists"
	KindInvalidPayload Kind = "InvalidPayload"
	KindForbidden      Kind = "Forbidden"
	KindUnauthorized   Kind = "Unauthorized"
	KindInternal       Kind = "Internal"
)

// AppError is a structured application error with HTTP status and error code.
type AppError struct {
	// Code is a machine-readable error code (e.g., "EVENT_NOT_FOUND").
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// HTTPStatus is the corresponding HTTP status code.
	HTTPStatus int `json:"-"`

	// Params carries structured context for clients.
	Params map[string]interface{} `json:"params,omitempty"`

	// Err is the wrapped underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil && !isSentinel(e.Err) {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Kind reports the ledger kind of the error.
func (e *AppError) Kind() Kind {
	switch e.HTTPStatus {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindAlreadyExists
	case http.StatusBadRequest:
		return KindInvalidPayload
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusUnauthorized:
		return KindUnauthorized
	default:
		return KindInternal
	}
}

// New creates a new AppError.
func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        sentinelFor(httpStatus),
	}
}

// Wrap wraps an existing error into an AppError.
func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// WithParams attaches structured parameters to the error.
func (e *AppError) WithParams(params map[string]interface{}) *AppError {
	if e == nil || len(params) == 0 {
		return e
	}
	e.Params = params
	return e
}

// Common error constructors.

// NotFound creates a 404 error.
func NotFound(code, message string) *AppError {
	return New(code, message, http.StatusNotFound)
}

// AlreadyExists creates a 409 error for uniqueness violations.
func AlreadyExists(code, message string) *AppError {
	return New(code, message, http.StatusConflict)
}

// InvalidPayload creates a 400 error.
func InvalidPayload(code, message string) *AppError {
	return New(code, message, http.StatusBadRequest)
}

// Unauthorized creates a 401 error.
func Unauthorized(code, message string) *AppError {
	return New(code, message, http.StatusUnauthorized)
}

// Forbidden creates a 403 error.
func Forbidden(code, message string) *AppError {
	return New(code, message, http.StatusForbidden)
}

// Internal creates a 500 error.
func Internal(code, message string) *AppError {
	return New(code, message, http.StatusInternalServerError)
}

// IsAppError checks if an error is an AppError and returns it.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf classifies any error. Non-AppError values are Internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if appErr, ok := IsAppError(err); ok {
		return appErr.Kind()
	}
	return KindInternal
}

func sentinelFor(httpStatus int) error {
	switch httpStatus {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrAlreadyExists
	case http.StatusBadRequest:
		return ErrInvalidPayload
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusInternalServerError:
		return ErrInternal
	}
	return nil
}

func isSentinel(err error) bool {
	switch err {
	case ErrNotFound, ErrAlreadyExists, ErrInvalidPayload, ErrForbidden, ErrUnauthorized, ErrInternal:
		return true
	}
	return false
}
