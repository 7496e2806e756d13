package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{Auth("invalid credentials"), http.StatusUnauthorized},
		{Conflict("exists"), http.StatusConflict},
		{NotFound("missing"), http.StatusNotFound},
		{Unavailable("store down", errors.New("dial tcp")), http.StatusServiceUnavailable},
		{Internal("oops", errors.New("nil deref")), http.StatusInternalServerError},
		{errors.New("untyped"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), "err=%v", tc.err)
	}
}

func TestMessage_HidesInternalCauses(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "bad input", Message(Validation("bad input")))
	assert.Equal(t, "internal server error", Message(Internal("db exploded", errors.New("secret detail"))))
	assert.Equal(t, "internal server error", Message(errors.New("raw error")))
}

func TestKindOf_SurvivesWrapping(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("while sending: %w", Conflict("duplicate"))
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, http.StatusConflict, Status(wrapped))
}

func TestUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := Unavailable("store unavailable", cause)
	assert.ErrorIs(t, err, cause)
}
