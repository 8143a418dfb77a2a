package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ecldeck/pkg/ir"
)

// Snapshot renders the outcome of a scenario as canonical JSON. Run IDs,
// timestamps and deck paths are left out so the bytes depend only on the
// deck content and the parse options.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	diags := make([]any, len(result.Run.Diagnostics))
	for i, d := range result.Run.Diagnostics {
		m := map[string]any{
			"severity": string(d.Severity),
			"code":     d.Code,
			"line":     d.Line,
			"column":   d.Column,
			"message":  d.Message,
		}
		if d.Keyword != "" {
			m["keyword"] = d.Keyword
		}
		diags[i] = m
	}

	snapshot := map[string]any{
		"scenario_name": scenarioName,
		"status":        string(result.Run.Status),
		"diagnostics":   diags,
	}
	if result.Run.ErrorCode != "" {
		snapshot["error_code"] = result.Run.ErrorCode
	}
	if st := result.State; st != nil {
		keywords := make(map[string]any, st.NumKeywords())
		for _, name := range st.Keywords() {
			v, err := st.Get(name)
			if err != nil {
				return nil, err
			}
			keywords[name] = v
		}
		snapshot["title"] = st.Title()
		snapshot["has_title"] = st.HasTitle()
		snapshot["records"] = st.Deck().Size()
		snapshot["keywords"] = keywords
	}
	return ir.MarshalCanonical(snapshot)
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's snapshot against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}

// GoldenPath returns the golden file of a scenario file: golden/<name>.golden
// next to it.
func GoldenPath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

// UpdateGolden writes the snapshot of result as the golden file of
// scenarioFile.
func UpdateGolden(scenarioFile string, scenario *Scenario, result *Result) error {
	data, err := Snapshot(scenario.Name, result)
	if err != nil {
		return fmt.Errorf("failed to snapshot result: %w", err)
	}

	path := GoldenPath(scenarioFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether result matches the golden file of
// scenarioFile. ok is false with a nil error when the file does not exist.
func CompareGolden(scenarioFile string, scenario *Scenario, result *Result) (match, ok bool, err error) {
	golden, err := os.ReadFile(GoldenPath(scenarioFile))
	if os.IsNotExist(err) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to read golden file: %w", err)
	}

	data, err := Snapshot(scenario.Name, result)
	if err != nil {
		return false, true, fmt.Errorf("failed to snapshot result: %w", err)
	}
	return bytes.Equal(golden, data), true, nil
}
