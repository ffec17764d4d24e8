package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	err := New(CodeConflict, "email already bound")
	assert.True(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(nil, CodeConflict))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestHasCodeThroughWrapping(t *testing.T) {
	inner := New(CodeNotFound, "experience not found")
	outer := Wrap(inner, CodeInternal, "load failed")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(outer, CodeConflict))

	// fmt wrapping in between does not break the chain.
	mixed := fmt.Errorf("context: %w", outer)
	assert.True(t, HasCode(mixed, CodeNotFound))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeValidation, CodeOf(New(CodeValidation, "bad input")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))

	// Outermost code wins.
	wrapped := Wrap(New(CodeNotFound, "inner"), CodeInternal, "outer")
	assert.Equal(t, CodeInternal, CodeOf(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeCollaborator, "signer unreachable")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "signer unreachable")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:   http.StatusBadRequest,
		CodeBadRequest:   http.StatusBadRequest,
		CodeNotFound:     http.StatusNotFound,
		CodeUnauthorized: http.StatusForbidden,
		CodeInvalidState: http.StatusUnprocessableEntity,
		CodeConflict:     http.StatusConflict,
		CodeCollaborator: http.StatusBadGateway,
		CodeTimeout:      http.StatusGatewayTimeout,
		CodeInternal:     http.StatusInternalServerError,
		Code("unknown"):  http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equalf(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
