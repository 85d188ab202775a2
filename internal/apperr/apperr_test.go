package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("order not found"), http.StatusNotFound},
		{"unavailable", Unavailable("requested item is not available"), http.StatusConflict},
		{"conflict", Conflict("warranty already exists", nil), http.StatusConflict},
		{"validation", Validation(FieldError{Field: "model", Message: "required"}), http.StatusBadRequest},
		{"upstream", Upstream("warehouse service unavailable", nil), http.StatusUnprocessableEntity},
		{"internal", Internal("warehouse answered without item uid", nil), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("reserve: %w", NotFound("requested item not found")), http.StatusNotFound},
		{"sentinel", fmt.Errorf("lookup: %w", ErrNotFound), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Status(tc.err); got != tc.want {
				t.Fatalf("status=%d want=%d", got, tc.want)
			}
		})
	}
}

func TestErrorsIsMatchesSentinelOnly(t *testing.T) {
	err := fmt.Errorf("place order: %w", Unavailable("requested item is not available"))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable match")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("unexpected ErrNotFound match")
	}
}

func TestPublicMessageHidesCause(t *testing.T) {
	err := Internal("internal error", errors.New("pq: relation \"orders\" does not exist"))
	if got := PublicMessage(err); got != "internal error" {
		t.Fatalf("unexpected public message %q", got)
	}
	if got := PublicMessage(errors.New("dial tcp: refused")); got != ErrInternal.Error() {
		t.Fatalf("unexpected public message for plain error %q", got)
	}
}

func TestFieldsOf(t *testing.T) {
	err := Validation(FieldError{Field: "size", Message: "required"})
	fields := FieldsOf(fmt.Errorf("bind: %w", err))
	if len(fields) != 1 || fields[0].Field != "size" {
		t.Fatalf("unexpected fields %+v", fields)
	}
}
