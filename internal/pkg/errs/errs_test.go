package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewErrorFormatsTemplates(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		code    int
		details []any
		message string
		status  int
	}{
		{name: "password length", code: ErrPasswordTooShort, details: []any{6}, message: "Password must be at least 6 characters.", status: http.StatusUnprocessableEntity},
		{name: "cooldown", code: ErrCooldown, details: []any{3}, message: "Please wait 3 seconds.", status: http.StatusTooManyRequests},
		{name: "remote passthrough", code: ErrRemote, details: []any{"Nickname already taken"}, message: "Nickname already taken", status: http.StatusBadRequest},
		{name: "hours", code: ErrHoursLimitRange, details: []any{1, 180}, message: "Hour limit must be between 1 and 180.", status: http.StatusUnprocessableEntity},
		{name: "unknown code", code: 999999, message: "Something went wrong. Please try again.", status: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := NewError(tc.code, tc.details...)
			if got.Message != tc.message {
				t.Fatalf("unexpected message: %q", got.Message)
			}
			if got.Status != tc.status {
				t.Fatalf("unexpected status: %d", got.Status)
			}
		})
	}
}

func TestFromAndHasCode(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("submit: %w", NewError(ErrAlreadySubmitting))
	if !HasCode(wrapped, ErrAlreadySubmitting) {
		t.Fatal("expected wrapped code to be detected")
	}
	if got := From(wrapped); got.Code != ErrAlreadySubmitting {
		t.Fatalf("unexpected code: %d", got.Code)
	}
	if got := From(errors.New("boom")); got.Code != ErrUnknown {
		t.Fatalf("expected unknown, got %d", got.Code)
	}
	if From(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}
