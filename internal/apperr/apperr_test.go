package apperr

import (
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrDuplicateVersion, http.StatusConflict},
		{ErrCycle, http.StatusConflict},
		{ErrInvalidRange, http.StatusUnprocessableEntity},
		{ErrValidation, http.StatusUnprocessableEntity},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.err); got != c.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestHTTPStatus_Wrapped(t *testing.T) {
	err := fmt.Errorf("template: promote: %w", ErrConflict)
	if got := HTTPStatus(err); got != http.StatusConflict {
		t.Errorf("HTTPStatus(wrapped conflict) = %d, want 409", got)
	}
}
