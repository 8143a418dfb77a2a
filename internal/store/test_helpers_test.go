package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/ecldeck/internal/testutil"
)

// createTestStore creates a store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a successful run with minimal required fields.
func createTestRun(id, deck string) Run {
	return Run{
		ID:            id,
		Deck:          deck,
		Status:        StatusOK,
		Title:         "TEST",
		Digest:        "digest-" + id,
		Records:       3,
		Keywords:      2,
		ToolVersion:   "0.1.0",
		FormatVersion: "1",
		ParsedAt:      testutil.Epoch.Add(time.Minute),
		Diagnostics:   []Diagnostic{},
	}
}
