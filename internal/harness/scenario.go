package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ecldeck/pkg/eclipse"
	"github.com/roach88/ecldeck/pkg/parser"
)

// Scenario defines a deck conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Deck is the path of the deck to parse. Relative paths are resolved
	// against the scenario file's directory.
	Deck string `yaml:"deck,omitempty"`

	// Source is inline deck text, used when Deck is empty.
	Source string `yaml:"source,omitempty"`

	// Options selects the parse policies.
	Options Options `yaml:"options,omitempty"`

	// ExpectError is the error code the parse must fail with, e.g.
	// MALFORMED_NUMBER or STATE_BUILD. Empty means the parse must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions validate the parsed state and diagnostics.
	Assertions []Assertion `yaml:"assertions"`
}

// Options are the parse policies of a scenario. Empty fields take the
// library defaults.
type Options struct {
	OnError    string `yaml:"on_error,omitempty"`
	Duplicates string `yaml:"duplicates,omitempty"`
}

// eclipseOptions translates Options for eclipse.ParseData.
func (o Options) eclipseOptions() []eclipse.Option {
	var opts []eclipse.Option
	if o.OnError != "" {
		opts = append(opts, eclipse.WithErrorPolicy(parser.ErrorPolicy(o.OnError)))
	}
	if o.Duplicates != "" {
		opts = append(opts, eclipse.WithDuplicatePolicy(eclipse.DuplicatePolicy(o.Duplicates)))
	}
	return opts
}

// Assertion validates one property of the outcome.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Keyword is the keyword under test (contains, absent, length, values,
	// and optionally warning and error).
	Keyword string `yaml:"keyword,omitempty"`

	// Equals is the expected title (title).
	Equals string `yaml:"equals,omitempty"`

	// Count is the expected number of values (length).
	Count int `yaml:"count,omitempty"`

	// Values are the expected values, compared element-wise (values).
	Values []any `yaml:"values,omitempty"`

	// Code is the expected diagnostic code (warning, error).
	Code string `yaml:"code,omitempty"`

	// Status is the expected audit status, "ok" or "failed" (audit).
	Status string `yaml:"status,omitempty"`
}

// Assertion type constants.
const (
	AssertTitle    = "title"
	AssertContains = "contains"
	AssertAbsent   = "absent"
	AssertLength   = "length"
	AssertValues   = "values"
	AssertWarning  = "warning"
	AssertError    = "error"
	AssertAudit    = "audit"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative deck path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Deck != "" && !filepath.IsAbs(scenario.Deck) {
		scenario.Deck = filepath.Join(filepath.Dir(path), scenario.Deck)
	}
	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML. Deck paths are left
// as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields so "assertion:" vs "assertions:" typos surface.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Deck == "" && s.Source == "" {
		return fmt.Errorf("deck or source is required")
	}
	if s.Deck != "" && s.Source != "" {
		return fmt.Errorf("deck and source are mutually exclusive")
	}
	if s.Options.OnError != "" && !parser.ValidErrorPolicies[parser.ErrorPolicy(s.Options.OnError)] {
		return fmt.Errorf("options.on_error: unknown policy %q", s.Options.OnError)
	}
	if s.Options.Duplicates != "" && !eclipse.ValidDuplicatePolicies[eclipse.DuplicatePolicy(s.Options.Duplicates)] {
		return fmt.Errorf("options.duplicates: unknown policy %q", s.Options.Duplicates)
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion.
func validateAssertion(index int, a Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTitle:
	case AssertContains, AssertAbsent:
		if a.Keyword == "" {
			return fmt.Errorf("assertions[%d]: keyword is required for %s", index, a.Type)
		}
	case AssertLength:
		if a.Keyword == "" {
			return fmt.Errorf("assertions[%d]: keyword is required for length", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for length", index)
		}
	case AssertValues:
		if a.Keyword == "" {
			return fmt.Errorf("assertions[%d]: keyword is required for values", index)
		}
	case AssertWarning, AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for %s", index, a.Type)
		}
	case AssertAudit:
		if a.Status != "ok" && a.Status != "failed" {
			return fmt.Errorf("assertions[%d]: status must be ok or failed for audit", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
