package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/ecldeck/internal/store"
	"github.com/roach88/ecldeck/pkg/ir"
)

// AssertionContext carries what assertions need beyond the Result.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// errNoState is reported by state assertions when the deck failed to parse.
func errNoState(a Assertion) error {
	return &AssertionError{Type: a.Type, Expected: "a parsed deck", Actual: "parse failure"}
}

func assertTitle(result *Result, a Assertion) error {
	if result.State == nil {
		return errNoState(a)
	}
	if got := result.State.Title(); got != a.Equals {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("title %q", a.Equals), Actual: fmt.Sprintf("%q", got)}
	}
	return nil
}

func assertContains(result *Result, a Assertion) error {
	if result.State == nil {
		return errNoState(a)
	}
	if !result.State.Contains(a.Keyword) {
		return &AssertionError{Type: a.Type, Expected: "keyword " + a.Keyword, Actual: "not present"}
	}
	return nil
}

func assertAbsent(result *Result, a Assertion) error {
	if result.State == nil {
		return errNoState(a)
	}
	if result.State.Contains(a.Keyword) {
		return &AssertionError{Type: a.Type, Expected: "no keyword " + a.Keyword, Actual: "present"}
	}
	return nil
}

func assertLength(result *Result, a Assertion) error {
	if result.State == nil {
		return errNoState(a)
	}
	n, err := result.State.Len(a.Keyword)
	if err != nil {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s with %d values", a.Keyword, a.Count), Actual: err.Error()}
	}
	if n != a.Count {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s with %d values", a.Keyword, a.Count), Actual: fmt.Sprintf("%d values", n)}
	}
	return nil
}

func assertValues(result *Result, a Assertion) error {
	if result.State == nil {
		return errNoState(a)
	}
	v, err := result.State.Get(a.Keyword)
	if err != nil {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s = %v", a.Keyword, a.Values), Actual: err.Error()}
	}

	actual := arrayValues(v)
	if len(actual) != len(a.Values) {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s = %v", a.Keyword, a.Values), Actual: fmt.Sprintf("%v", actual)}
	}
	for i := range actual {
		if !valueEqual(v.Kind(), actual[i], a.Values[i]) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s[%d] = %v", a.Keyword, i, a.Values[i]),
				Actual:   fmt.Sprintf("%v", actual[i]),
			}
		}
	}
	return nil
}

// arrayValues flattens a TypedArray for comparison with YAML values.
func arrayValues(v ir.TypedArray) []any {
	var out []any
	switch arr := v.(type) {
	case ir.IntArray:
		for _, x := range arr.All() {
			out = append(out, x)
		}
	case ir.FloatArray:
		for _, x := range arr.All() {
			out = append(out, x)
		}
	case ir.StringArray:
		for _, x := range arr.All() {
			out = append(out, x)
		}
	}
	return out
}

// valueEqual compares a deck value with a YAML value. YAML integers match
// float values exactly, and string values match any scalar by its text.
func valueEqual(kind ir.ValueKind, actual, expected any) bool {
	switch kind {
	case ir.KindInt:
		n, ok := toInt64(expected)
		return ok && actual.(int64) == n
	case ir.KindFloat:
		f, ok := toFloat64(expected)
		return ok && actual.(float64) == f
	case ir.KindString:
		return actual.(string) == fmt.Sprint(expected)
	default:
		return false
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// assertDiagnostic checks that the run recorded a diagnostic of the given
// severity and code, for Keyword when one is named.
func assertDiagnostic(result *Result, a Assertion, severity store.Severity) error {
	var seen []string
	for _, d := range result.Run.Diagnostics {
		if d.Severity != severity {
			continue
		}
		if d.Code == a.Code && (a.Keyword == "" || d.Keyword == a.Keyword) {
			return nil
		}
		seen = append(seen, d.Code+" "+d.Keyword)
	}

	want := a.Code
	if a.Keyword != "" {
		want += " " + a.Keyword
	}
	actual := "none"
	if len(seen) > 0 {
		actual = "[" + strings.Join(seen, ", ") + "]"
	}
	return &AssertionError{Type: a.Type, Expected: want, Actual: actual}
}

// assertAudit checks the status of the most recent run in the audit log.
func assertAudit(actx *AssertionContext, a Assertion) error {
	runs, err := actx.Store.ReadRuns(actx.Ctx, "")
	if err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	if len(runs) == 0 {
		return &AssertionError{Type: a.Type, Expected: "status " + a.Status, Actual: "no recorded run"}
	}
	if got := string(runs[len(runs)-1].Status); got != a.Status {
		return &AssertionError{Type: a.Type, Expected: "status " + a.Status, Actual: got}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// An empty slice means all assertions passed.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTitle:
			err = assertTitle(result, assertion)
		case AssertContains:
			err = assertContains(result, assertion)
		case AssertAbsent:
			err = assertAbsent(result, assertion)
		case AssertLength:
			err = assertLength(result, assertion)
		case AssertValues:
			err = assertValues(result, assertion)
		case AssertWarning:
			err = assertDiagnostic(result, assertion, store.SeverityWarning)
		case AssertError:
			err = assertDiagnostic(result, assertion, store.SeverityError)
		case AssertAudit:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("audit requires a store")
			} else {
				err = assertAudit(actx, assertion)
			}
		default:
			err = fmt.Errorf("unknown assertion type %q", assertion.Type)
		}

		if err != nil {
			errors = append(errors, fmt.Sprintf("assertion[%d]: %v", i, err))
		}
	}

	return errors
}
