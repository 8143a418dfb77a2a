package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// NorneDeck is a small deck exercising every terminator convention.
const NorneDeck = `-- Cut-down NORNE style deck
RUNSPEC
TITLE
  NORNE FIELD MODEL

DIMENS
  2 2 1 /

OIL
WATER
METRIC

START
  6 'NOV' 1997 /

GRID
DXV
  2*100 /
DYV
  2*50 /
DZV
  20 /
TOPS
  4*2500 /
PORO -- porosity
  0.25 0.2 2*0.18 /
NTG
  1.0 1.0 0.95 0.9 /
PERMX
  4*100.5 /
ACTNUM
  1 1 0 1 /

REGIONS
SATNUM
  4*1 /

SOLUTION
PRESSURE
  4*250 /
SWAT
  4*0.2 /

SCHEDULE
END
`

// WriteDeck writes content to dir/name and returns the path.
// The test fails if the file cannot be written.
func WriteDeck(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create deck dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}
	return path
}
