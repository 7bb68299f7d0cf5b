package planner

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	base := errors.New("boom")
	wrapped := fmt.Errorf("plan: %w", malformed(base))

	assert.True(t, IsMalformed(wrapped))
	assert.False(t, IsInvalid(wrapped))
	assert.False(t, IsUnavailable(wrapped))
	assert.Equal(t, KindMalformed, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, "planner malformed: boom", malformed(base).Error())

	assert.Equal(t, Kind(""), KindOf(base))
}
