package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  New("EVENT_NOT_FOUND", "event not found", http.StatusNotFound),
			want: "EVENT_NOT_FOUND: event not found",
		},
		{
			name: "with wrapped error",
			err:  Wrap(fmt.Errorf("db error"), "DB_ERROR", "database failure", http.StatusInternalServerError),
			want: "DB_ERROR: database failure: db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap(inner, "CODE", "msg", 500)

	if !errors.Is(appErr, inner) {
		t.Error("errors.Is should match inner error")
	}
}

func TestAppError_UnwrapsToKindSentinel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"not found", NotFound("NF", "missing"), ErrNotFound},
		{"already exists", AlreadyExists("AE", "dup"), ErrAlreadyExists},
		{"invalid payload", InvalidPayload("IP", "bad"), ErrInvalidPayload},
		{"forbidden", Forbidden("FB", "no"), ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("op: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.sentinel)
			}
		})
	}
}

func TestIsAppError(t *testing.T) {
	appErr := NotFound("NOT_FOUND", "resource not found")
	wrapped := fmt.Errorf("wrapped: %w", appErr)

	got, ok := IsAppError(wrapped)
	if !ok {
		t.Fatal("IsAppError should return true for wrapped AppError")
	}
	if got.Code != "NOT_FOUND" {
		t.Errorf("Code = %q, want NOT_FOUND", got.Code)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"NotFound", NotFound("NF", "not found"), KindNotFound},
		{"AlreadyExists", AlreadyExists("AE", "exists"), KindAlreadyExists},
		{"InvalidPayload", InvalidPayload("IP", "bad"), KindInvalidPayload},
		{"Forbidden", Forbidden("FB", "forbidden"), KindForbidden},
		{"Unauthorized", Unauthorized("UA", "unauthorized"), KindUnauthorized},
		{"plain error", fmt.Errorf("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
		wantCode   string
	}{
		{"event not found", ErrEventNotFoundf("e-1"), http.StatusNotFound, CodeEventNotFound},
		{"not owner", ErrNotEventOwnerf("e-1"), http.StatusForbidden, CodeNotEventOwner},
		{"name exists", ErrEventNameExistsf("Launch"), http.StatusConflict, CodeEventNameExists},
		{"invalid payload", ErrInvalidPayloadf("name is %s", "empty"), http.StatusBadRequest, CodeInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("HTTPStatus = %d, want %d", tt.err.HTTPStatus, tt.wantStatus)
			}
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
			}
		})
	}
}

func TestErrEventNameExistsf_Message(t *testing.T) {
	err := ErrEventNameExistsf("Launch")
	if err.Message != "an event with name Launch already exists" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Params["name"] != "Launch" {
		t.Errorf("Params[name] = %v, want Launch", err.Params["name"])
	}
}
