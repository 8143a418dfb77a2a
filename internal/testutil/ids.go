package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator returns predictable run IDs for tests:
// "<prefix>-0001", "<prefix>-0002", and so on.
//
// This keeps audit-log output stable across runs so it can be compared
// against golden files.
//
// Thread-safety: SequentialIDGenerator is safe for concurrent use via
// internal mutex.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a generator. If prefix is empty, "run"
// is used.
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
