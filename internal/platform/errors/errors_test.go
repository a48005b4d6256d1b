package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	t.Parallel()

	base := New(CodeAppointmentConflict, "appointment overlaps an existing booking")
	other := WithMetadata(CodeAppointmentConflict, "different message", map[string]string{"CalendarID": "cal-1"})

	if !stderrors.Is(other, base) {
		t.Fatal("expected errors with the same code to match")
	}
	if stderrors.Is(New(CodeNotFound, "missing"), base) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("disk full")
	wrapped := Wrap(CodeInfrastructureError, "save business", cause)

	if !stderrors.Is(wrapped, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if wrapped.Error() != "save business" {
		t.Fatalf("message = %q, want %q", wrapped.Error(), "save business")
	}
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("handler: %w", New(CodeRBACPermissionDenied, "denied"))
	if got := CodeOf(wrapped); got != CodeRBACPermissionDenied {
		t.Fatalf("code = %q, want %q", got, CodeRBACPermissionDenied)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != CodeUnknown {
		t.Fatalf("code = %q, want %q", got, CodeUnknown)
	}
	if got := CodeOf(nil); got != CodeUnknown {
		t.Fatalf("code = %q, want %q", got, CodeUnknown)
	}
}

func TestHTTPStatusClasses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code Code
		want int
	}{
		{CodeBusinessNameEmpty, http.StatusBadRequest},
		{CodeAppointmentInvalidStatusTransition, http.StatusUnprocessableEntity},
		{CodeAppointmentConflict, http.StatusConflict},
		{CodePlanLimitAppointmentsExceeded, http.StatusPaymentRequired},
		{CodeAuthTokenExpired, http.StatusUnauthorized},
		{CodeRBACPermissionDenied, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeInfrastructureError, http.StatusInternalServerError},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("HTTPStatus(%s) = %d, want %d", tc.code, got, tc.want)
		}
	}
}
