package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator returns ids of the form "<prefix>-<n>" starting at 1.
//
// It implements tree.IDGenerator for tests that create more nodes than they
// care to name individually:
//
//	gen := NewSequenceGenerator("n")
//	gen.Generate() // "n-1"
//	gen.Generate() // "n-2"
//
// Safe for concurrent use.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a generator with the given prefix.
// An empty prefix defaults to "node".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "node"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
