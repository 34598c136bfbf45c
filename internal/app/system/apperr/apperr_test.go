package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIs_MatchesByCode(t *testing.T) {
	err := Conflict("vote already cast")
	if !errors.Is(err, ErrConflict) {
		t.Error("expected conflict error to match ErrConflict")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("conflict error should not match ErrNotFound")
	}

	wrapped := fmt.Errorf("cast vote: %w", err)
	if !errors.Is(wrapped, ErrConflict) {
		t.Error("expected wrapped error to match ErrConflict")
	}
}

func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeInternal, "load assembly", cause)
	if !errors.Is(err, cause) {
		t.Error("expected Wrap to preserve cause")
	}
	if err.Error() != "load assembly: boom" {
		t.Errorf("Error(): got %q", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"domain error", NotFound("assembly not found"), CodeNotFound},
		{"wrapped domain error", fmt.Errorf("x: %w", Validation("bad")), CodeValidation},
		{"plain error", errors.New("plain"), CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessageOf_HidesInternalErrors(t *testing.T) {
	if got := MessageOf(errors.New("mongo: connection refused")); got != "internal error" {
		t.Errorf("MessageOf: got %q, want %q", got, "internal error")
	}
	if got := MessageOf(Unauthorized("invalid or expired code")); got != "invalid or expired code" {
		t.Errorf("MessageOf: got %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := map[Code]int{
		CodeNotFound:           http.StatusNotFound,
		CodeInvalidState:       http.StatusConflict,
		CodePreconditionFailed: http.StatusPreconditionFailed,
		CodeConflict:           http.StatusConflict,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeValidation:         http.StatusBadRequest,
		CodeRateLimited:        http.StatusTooManyRequests,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := code.HTTPStatus(); got != want {
			t.Errorf("%s: got %d, want %d", code, got, want)
		}
	}
}
