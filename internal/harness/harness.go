package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/ecldeck/internal/store"
	"github.com/roach88/ecldeck/internal/testutil"
	"github.com/roach88/ecldeck/pkg/eclipse"
)

// inlineSource is the audit deck name of scenarios that carry their deck text.
const inlineSource = "<inline>"

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory audit log with sequential
// run IDs and a deterministic clock. A deck that fails to parse is not an
// execution error: the failure is part of the Result and is checked against
// ExpectError. Run returns an error only when the scenario cannot be
// executed at all, e.g. the deck file is missing.
func Run(scenario *Scenario) (*Result, error) {
	if scenario.Deck != "" {
		if _, err := os.Stat(scenario.Deck); err != nil {
			return nil, fmt.Errorf("deck %s: %w", scenario.Deck, err)
		}
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	rec := store.NewRecorder(st,
		store.WithIDGenerator(testutil.NewSequentialIDGenerator(scenario.Name)),
		store.WithClock(testutil.NewDeterministicClock()),
	)

	opts := scenario.Options.eclipseOptions()
	source := inlineSource
	var state *eclipse.State
	var parseErr error
	if scenario.Deck != "" {
		source = scenario.Deck
		state, parseErr = eclipse.ParseDeck(scenario.Deck, opts...)
	} else {
		state, parseErr = eclipse.ParseData(scenario.Source, opts...)
	}

	ctx := context.Background()
	run, err := rec.Record(ctx, source, state, parseErr)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	result := NewResult()
	result.State = state
	result.ParseErr = parseErr
	result.Run = run

	checkOutcome(scenario, result)

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// checkOutcome compares the parse outcome with ExpectError.
func checkOutcome(scenario *Scenario, result *Result) {
	switch {
	case scenario.ExpectError == "" && result.ParseErr != nil:
		result.AddError(fmt.Sprintf("parse failed: %v", result.ParseErr))
	case scenario.ExpectError != "" && result.ParseErr == nil:
		result.AddError(fmt.Sprintf("expected parse to fail with %s, but it succeeded", scenario.ExpectError))
	case scenario.ExpectError != "" && result.Run.ErrorCode != scenario.ExpectError:
		result.AddError(fmt.Sprintf("parse failed with %s, expected %s: %v",
			result.Run.ErrorCode, scenario.ExpectError, result.ParseErr))
	}
}

// FindScenarios returns the YAML scenario files under dir in lexical order.
// A non-empty filter is a glob matched against the file name without its
// extension.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	return files, err
}
