package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, CodeOf(NotFound("credit_request", "abc")))
	assert.Equal(t, ErrCodeInvalidInput, CodeOf(InvalidInput("amount", "must be positive")))
	assert.Equal(t, ErrCodeConflict, CodeOf(Conflict("version mismatch")))
	assert.Equal(t, ErrCodeInternal, CodeOf(stderrors.New("plain")))
}

func TestCodeOfWrapped(t *testing.T) {
	inner := NotFound("sector", "s-1")
	outer := fmt.Errorf("loading process: %w", inner)
	assert.True(t, IsNotFound(outer))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrCodeInternal, "querying requests")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "querying requests")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestErrorString(t *testing.T) {
	err := New(ErrCodeInvalidInput, "invalid amount")
	assert.Equal(t, "INVALID_INPUT: invalid amount", err.Error())
}
