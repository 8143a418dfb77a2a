package eclipse

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/roach88/ecldeck/pkg/ir"
	"github.com/roach88/ecldeck/pkg/parser"
)

// DuplicatePolicy decides which record wins when a deck repeats a keyword.
type DuplicatePolicy string

const (
	// LastWins keeps the values of the last occurrence.
	LastWins DuplicatePolicy = "last"

	// FirstWins keeps the values of the first occurrence.
	FirstWins DuplicatePolicy = "first"

	// Reject fails the build with a StateBuildError.
	Reject DuplicatePolicy = "reject"
)

// ValidDuplicatePolicies lists the accepted policies.
var ValidDuplicatePolicies = map[DuplicatePolicy]bool{
	LastWins:  true,
	FirstWins: true,
	Reject:    true,
}

// State is the queryable result of parsing one deck. It maps each keyword
// name to exactly one typed array and never changes after construction, so
// any number of goroutines may read it without locking.
//
// A State can only be obtained from ParseDeck, ParseData or ParseFiles.
type State struct {
	source   string
	title    string
	hasTitle bool
	values   map[string]ir.TypedArray
	order    []string // first appearance
	deck     *Deck
	warnings []parser.Warning
	errors   []*parser.KeywordError
}

// build folds parsed records into a State. Either the whole State is
// returned or a *StateBuildError and nothing else.
func build(source string, res *parser.Result, policy DuplicatePolicy) (*State, error) {
	values := make(map[string]ir.TypedArray)
	first := make(map[string]ir.KeywordRecord)
	var order []string

	for _, rec := range res.Records {
		if rec.Kind == ir.KindNone {
			continue
		}
		prev, seen := first[rec.Name]
		if !seen {
			first[rec.Name] = rec
			values[rec.Name] = rec.Values
			order = append(order, rec.Name)
			continue
		}

		if prev.Kind != rec.Kind {
			return nil, &StateBuildError{
				Keyword: rec.Name,
				Records: []int{prev.Index, rec.Index},
				Reason:  fmt.Sprintf("records disagree on kind (%s and %s)", prev.Kind, rec.Kind),
			}
		}
		switch policy {
		case LastWins:
			values[rec.Name] = rec.Values
		case FirstWins:
		case Reject:
			return nil, &StateBuildError{
				Keyword: rec.Name,
				Records: []int{prev.Index, rec.Index},
				Reason:  "duplicate keyword rejected",
			}
		default:
			return nil, fmt.Errorf("unknown duplicate policy %q", policy)
		}
	}

	s := &State{
		source:   source,
		values:   values,
		order:    order,
		deck:     newDeck(res.Records),
		warnings: res.Warnings,
		errors:   res.Errors,
	}
	if title, ok := values[parser.TitleKeyword].(ir.StringArray); ok {
		s.hasTitle = true
		s.title, _ = title.At(0)
	}
	return s, nil
}

// Contains reports whether the deck declared keyword.
func (s *State) Contains(keyword string) bool {
	_, ok := s.values[keyword]
	return ok
}

// Get returns the values of keyword. Callers branch on the result's Kind or
// use a type switch over ir.IntArray, ir.FloatArray and ir.StringArray.
func (s *State) Get(keyword string) (ir.TypedArray, error) {
	v, ok := s.values[keyword]
	if !ok {
		return nil, &KeywordNotFoundError{Keyword: keyword}
	}
	return v, nil
}

// Len returns the number of values of keyword without copying them.
func (s *State) Len(keyword string) (int, error) {
	v, err := s.Get(keyword)
	if err != nil {
		return 0, err
	}
	return v.Len(), nil
}

// Ints returns the values of an int keyword.
func (s *State) Ints(keyword string) (ir.IntArray, error) {
	return typed[ir.IntArray](s, keyword, ir.KindInt)
}

// Floats returns the values of a float keyword.
func (s *State) Floats(keyword string) (ir.FloatArray, error) {
	return typed[ir.FloatArray](s, keyword, ir.KindFloat)
}

// Strings returns the values of a string keyword.
func (s *State) Strings(keyword string) (ir.StringArray, error) {
	return typed[ir.StringArray](s, keyword, ir.KindString)
}

func typed[T ir.TypedArray](s *State, keyword string, want ir.ValueKind) (T, error) {
	var zero T
	v, err := s.Get(keyword)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %s values, not %s", ErrWrongKind, keyword, v.Kind(), want)
	}
	return t, nil
}

// Title returns the deck title, or "" when the deck has no TITLE.
func (s *State) Title() string {
	return s.title
}

// HasTitle reports whether the deck has a TITLE record.
func (s *State) HasTitle() bool {
	return s.hasTitle
}

// Keywords returns the keyword names holding data, in order of first
// appearance in the deck.
func (s *State) Keywords() []string {
	return slices.Clone(s.order)
}

// NumKeywords returns the number of keywords holding data.
func (s *State) NumKeywords() int {
	return len(s.order)
}

// Deck returns the ordered records the State was built from.
func (s *State) Deck() *Deck {
	return s.deck
}

// Source returns the path the deck was read from, or "" for in-memory data.
func (s *State) Source() string {
	return s.source
}

// Warnings returns the non-fatal diagnostics collected while parsing.
func (s *State) Warnings() []parser.Warning {
	return slices.Clone(s.warnings)
}

// Errors returns the records dropped by a best-effort parse.
func (s *State) Errors() []*parser.KeywordError {
	return slices.Clone(s.errors)
}

// Digest returns a content digest over the title and keyword values.
// Source, positions and diagnostics do not contribute, so the same data
// parsed from differently formatted decks has the same digest.
func (s *State) Digest() (string, error) {
	keywords := make(map[string]any, len(s.values))
	for name, v := range s.values {
		keywords[name] = v
	}
	return ir.Digest(ir.DomainState, map[string]any{
		"format":    ir.FormatVersion,
		"has_title": s.hasTitle,
		"title":     s.title,
		"keywords":  keywords,
	})
}

// KeywordDigest returns the content digest of keyword's values. It matches
// ir.RecordDigest of any record holding the same name and values.
func (s *State) KeywordDigest(keyword string) (string, error) {
	v, err := s.Get(keyword)
	if err != nil {
		return "", err
	}
	return ir.RecordDigest(ir.KeywordRecord{Name: keyword, Kind: v.Kind(), Values: v})
}

func (s *State) String() string {
	return "EclipseState: " + s.title
}

type keywordView struct {
	Name   string        `json:"name"`
	Kind   ir.ValueKind  `json:"kind"`
	Len    int           `json:"len"`
	Values ir.TypedArray `json:"values"`
}

// MarshalJSON implements json.Marshaler. Keywords appear in first-appearance
// order.
func (s *State) MarshalJSON() ([]byte, error) {
	keywords := make([]keywordView, len(s.order))
	for i, name := range s.order {
		v := s.values[name]
		keywords[i] = keywordView{Name: name, Kind: v.Kind(), Len: v.Len(), Values: v}
	}
	warnings := s.warnings
	if warnings == nil {
		warnings = []parser.Warning{}
	}
	errs := s.errors
	if errs == nil {
		errs = []*parser.KeywordError{}
	}
	return json.Marshal(struct {
		Source   string                 `json:"source,omitempty"`
		Title    string                 `json:"title"`
		HasTitle bool                   `json:"has_title"`
		Keywords []keywordView          `json:"keywords"`
		Warnings []parser.Warning       `json:"warnings"`
		Errors   []*parser.KeywordError `json:"errors"`
	}{s.source, s.title, s.hasTitle, keywords, warnings, errs})
}
