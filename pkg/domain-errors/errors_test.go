package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("nil error stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("wrapped cause is reachable", func(t *testing.T) {
		cause := errors.New("redis down")
		err := Wrap(cause, CodeInternal, "load state")
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "load state")
		assert.Contains(t, err.Error(), "redis down")
	})
}

func TestHasCode(t *testing.T) {
	inner := New(CodeInvalidConfig, "address key is required")
	outer := Wrap(inner, CodeInternal, "construct step")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeInvalidConfig))
	assert.False(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	assert.True(t, HasCode(fmt.Errorf("ctx: %w", inner), CodeInvalidConfig))
}

func TestIsAndCodeOf(t *testing.T) {
	inner := New(CodeInvalidConfig, "address key is required")
	outer := Wrap(inner, CodeInternal, "construct step")

	assert.True(t, Is(outer, CodeInternal))
	assert.False(t, Is(outer, CodeInvalidConfig))
	assert.Equal(t, CodeInternal, CodeOf(outer))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, "address key is required", MessageOf(inner))
}
