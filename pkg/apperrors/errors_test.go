package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	t.Run("typed error carries its code", func(t *testing.T) {
		err := NotFound("missing")
		assert.Equal(t, CodeNotFound, CodeOf(err))
		assert.True(t, Is(err, CodeNotFound))
	})

	t.Run("wrapped typed error is still visible", func(t *testing.T) {
		inner := Conflict("duplicate")
		wrapped := fmt.Errorf("outer: %w", inner)
		assert.Equal(t, CodeConflict, CodeOf(wrapped))
	})

	t.Run("plain error is unknown", func(t *testing.T) {
		assert.Equal(t, CodeUnknown, CodeOf(errors.New("plain")))
	})

	t.Run("cause is unwrappable", func(t *testing.T) {
		cause := errors.New("db down")
		err := Wrap(CodeInternal, "query failed", cause)
		assert.ErrorIs(t, err, cause)
	})
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidArgument:    http.StatusBadRequest,
		CodeUnauthenticated:    http.StatusUnauthorized,
		CodePermissionDenied:   http.StatusForbidden,
		CodeNotFound:           http.StatusNotFound,
		CodeConflict:           http.StatusConflict,
		CodeFailedPrecondition: http.StatusBadRequest,
		CodeInternal:           http.StatusInternalServerError,
		CodeUnknown:            http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, code.HTTPStatus(), string(code))
	}
}
