package tree

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator_ValidAndOrdered(t *testing.T) {
	gen := UUIDv7Generator{}

	first := gen.Generate()
	second := gen.Generate()

	u, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), u.Version())
	assert.NotEqual(t, first, second)
	assert.Less(t, first, second)
}

func TestFixedGenerator_InOrderThenPanics(t *testing.T) {
	gen := NewFixedGenerator("A", "B")

	assert.Equal(t, "A", gen.Generate())
	assert.Equal(t, "B", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestFixedGenerator_Push(t *testing.T) {
	gen := NewFixedGenerator("A")
	gen.Push("B", "C")

	assert.Equal(t, "A", gen.Generate())
	assert.Equal(t, "B", gen.Generate())
	assert.Equal(t, "C", gen.Generate())
}
