package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceGenerator_Increments(t *testing.T) {
	gen := NewSequenceGenerator("n")

	assert.Equal(t, "n-1", gen.Generate())
	assert.Equal(t, "n-2", gen.Generate())
	assert.Equal(t, "n-3", gen.Generate())
}

func TestSequenceGenerator_EmptyPrefixDefault(t *testing.T) {
	gen := NewSequenceGenerator("")
	assert.Equal(t, "node-1", gen.Generate())
}

func TestSequenceGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequenceGenerator("t")

	ids := make(chan string, 1000)
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				ids <- gen.Generate()
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, 1000)
}
