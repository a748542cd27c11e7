package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	err := NewNotFound("a/b", "file")
	assert.Equal(t, CodeNotFound, CodeOf(err))
	assert.True(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(err, CodeAlreadyExists))

	// Codes survive wrapping.
	wrapped := fmt.Errorf("save failed: %w", err)
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))

	assert.Equal(t, Code(0), CodeOf(errors.New("plain")))
	assert.Equal(t, Code(0), CodeOf(nil))
}

func TestRetryable(t *testing.T) {
	assert.True(t, NewConflict("p", "move").Retryable())
	assert.True(t, NewUnavailable("get", errors.New("down")).Retryable())
	assert.False(t, NewNotFound("p", "file").Retryable())
	assert.False(t, NewInvalidPath("p", "bad").Retryable())
}

func TestWithPath(t *testing.T) {
	orig := NewNotFound("nb.ipynb", "file")
	rerouted := WithPath(orig, "shared/nb.ipynb")

	var e *Error
	assert.True(t, errors.As(rerouted, &e))
	assert.Equal(t, "shared/nb.ipynb", e.Path)
	assert.Equal(t, CodeNotFound, e.Code)

	// The original is untouched.
	assert.Equal(t, "nb.ipynb", orig.Path)

	plain := errors.New("plain")
	assert.Equal(t, plain, WithPath(plain, "anything"))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "NotFound: file not found (path: a/b)", NewNotFound("a/b", "file").Error())
	assert.Equal(t, "InvalidArgument: bad input", NewInvalidArgument("bad input").Error())
}
