package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)

	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "validation failed" {
		t.Errorf("expected message 'validation failed', got %s", err.Message)
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, err.HTTPStatus)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("store connection failed")
	wrapped := Wrap(originalErr, CodeInternal, "internal error", http.StatusInternalServerError)

	if wrapped.Err != originalErr {
		t.Errorf("expected wrapped error to contain original error")
	}
	if wrapped.Code != CodeInternal {
		t.Errorf("expected code %s, got %s", CodeInternal, wrapped.Code)
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeNotFound,
				Message: "booking not found",
			},
			expected: "NOT_FOUND: booking not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("store connection failed"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: store connection failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appErr.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := Wrap(originalErr, CodeInternal, "wrapped", http.StatusInternalServerError)

	unwrapped := errors.Unwrap(appErr)
	if unwrapped != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
}

func TestAppError_WithDetails(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)
	details := map[string]any{
		"field": "customer_phone",
		"error": "invalid format",
	}

	err = err.WithDetails(details)

	if err.Details["field"] != "customer_phone" {
		t.Errorf("expected field 'customer_phone', got %v", err.Details["field"])
	}
}

func TestAlreadyTaken(t *testing.T) {
	err := AlreadyTaken("bk-42")

	if err.Code != CodeAlreadyTaken {
		t.Errorf("expected code %s, got %s", CodeAlreadyTaken, err.Code)
	}
	if err.HTTPStatus != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, err.HTTPStatus)
	}
	if err.Details["booking_id"] != "bk-42" {
		t.Errorf("expected booking_id 'bk-42', got %v", err.Details["booking_id"])
	}
}

func TestInvalidTransition(t *testing.T) {
	err := InvalidTransition("accepted", "in_progress")

	if err.Code != CodeInvalidTransition {
		t.Errorf("expected code %s, got %s", CodeInvalidTransition, err.Code)
	}
	if err.Details["current"] != "accepted" || err.Details["target"] != "in_progress" {
		t.Errorf("expected both statuses in details, got %v", err.Details)
	}
}

func TestNotEligible(t *testing.T) {
	err := NotEligible("bk-1", "prov-9")

	if err.Code != CodeNotEligible {
		t.Errorf("expected code %s, got %s", CodeNotEligible, err.Code)
	}
	if err.HTTPStatus != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, err.HTTPStatus)
	}
}

func TestOtpOutcomes(t *testing.T) {
	if err := OtpExpired(); err.Code != CodeOtpExpired || err.HTTPStatus != http.StatusGone {
		t.Errorf("unexpected OtpExpired shape: %v", err)
	}
	if err := OtpMismatch(); err.Code != CodeOtpMismatch || err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("unexpected OtpMismatch shape: %v", err)
	}
}

func TestIsCode(t *testing.T) {
	err := AlreadyTaken("bk-1")

	if !IsCode(err, CodeAlreadyTaken) {
		t.Error("IsCode should match the carried code")
	}
	if IsCode(err, CodeConflict) {
		t.Error("IsCode should not match a different code")
	}
	if IsCode(errors.New("plain"), CodeInternal) {
		t.Error("IsCode should be false for non-AppError values")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Booking")
	if got := AsAppError(appErr); got != appErr {
		t.Error("AsAppError should return the same AppError")
	}

	plain := errors.New("plain failure")
	converted := AsAppError(plain)
	if converted.Code != CodeInternal {
		t.Errorf("expected plain errors converted to %s, got %s", CodeInternal, converted.Code)
	}
	if errors.Unwrap(converted) != plain {
		t.Error("converted error should wrap the original")
	}
}
