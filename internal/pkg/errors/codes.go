package errors

import "fmt"

// Error code constants.
// Codes are stable identifiers for clients; messages are English detail strings.

// Event error codes.
const (
	CodeEventNotFound     = "EVENT_NOT_FOUND"
	CodeEventNameExists   = "EVENT_NAME_ALREADY_EXISTS"
	CodeOwnerHasNoEvents  = "OWNER_EVENTS_NOT_FOUND"
	CodeEventPastReadOnly = "EVENT_PAST_TIMES_READ_ONLY"
)

// Code ledger error codes.
const (
	CodeCodeNotFound      = "CODE_NOT_FOUND"
	CodeCodeConsumed      = "CODE_ALREADY_CONSUMED"
	CodeMaxCodesReached   = "MAX_CODES_REACHED"
	CodeCodeMintExhausted = "CODE_MINT_EXHAUSTED"
	CodeCodeGenFailed     = "CODE_GENERATION_FAILED"
)

// Seat error codes.
const (
	CodeSeatAlreadyHeld = "SEAT_ALREADY_CLAIMED"
	CodeSeatNotFound    = "SEAT_NOT_FOUND"
)

// Auth error codes.
const (
	CodeNotEventOwner   = "NOT_EVENT_OWNER"
	CodeNotStoreAdmin   = "NOT_STORE_ADMIN"
	CodeAdminCannotSeat = "ADMIN_CANNOT_CLAIM_SEAT"
	CodeIdentityMissing = "IDENTITY_REQUIRED"
	CodeTokenInvalid    = "TOKEN_INVALID"
	CodeTokenExpired    = "TOKEN_EXPIRED"
)

// Validation error codes.
const (
	CodeInvalidPayload   = "INVALID_PAYLOAD"
	CodeValidationFailed = "VALIDATION_FAILED"
)

// Convenience constructors using predefined codes.

// ErrEventNotFoundf creates an event not found error.
func ErrEventNotFoundf(eventID string) *AppError {
	return NotFound(CodeEventNotFound, "event not found").
		WithParams(map[string]interface{}{"event_id": eventID})
}

// ErrNotEventOwnerf creates an authorization error for a caller that neither owns the event nor is the store admin.
func ErrNotEventOwnerf(eventID string) *AppError {
	return Forbidden(CodeNotEventOwner, "caller is not the event owner or store admin").
		WithParams(map[string]interface{}{"event_id": eventID})
}

// ErrEventNameExistsf creates a name collision error.
func ErrEventNameExistsf(name string) *AppError {
	return AlreadyExists(CodeEventNameExists, fmt.Sprintf("an event with name %s already exists", name)).
		WithParams(map[string]interface{}{"name": name})
}

// ErrInvalidPayloadf creates a validation error with a formatted message.
func ErrInvalidPayloadf(format string, args ...interface{}) *AppError {
	return InvalidPayload(CodeInvalidPayload, fmt.Sprintf(format, args...))
}
