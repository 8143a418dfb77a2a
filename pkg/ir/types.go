package ir

import "fmt"

// ValueKind is the element type a keyword carries.
type ValueKind string

const (
	KindInt    ValueKind = "int"
	KindFloat  ValueKind = "float"
	KindString ValueKind = "string"
	KindNone   ValueKind = "none" // section and flag keywords
)

// Arity says how many values a keyword takes.
type Arity string

const (
	ArityScalar Arity = "scalar"
	ArityArray  Arity = "array"
	ArityNone   Arity = "none"
)

// Terminator says how the end of a keyword's data is found.
type Terminator string

const (
	// TermCount reads exactly KeywordSpec.Count values, then an optional "/".
	// A scalar with TermCount has Count 1.
	TermCount Terminator = "count"

	// TermSlash reads values until a "/" record or section end. A scalar with
	// TermSlash reads one value and then requires the "/".
	TermSlash Terminator = "slash"

	// TermLine reads the rest of the keyword's line, or the next non-empty
	// line when the keyword stands alone. Used by TITLE.
	TermLine Terminator = "line"

	// TermNone reads nothing.
	TermNone Terminator = "none"
)

// ValidKinds defines allowed value kinds.
var ValidKinds = map[ValueKind]bool{
	KindInt:    true,
	KindFloat:  true,
	KindString: true,
	KindNone:   true,
}

// ValidArities defines allowed arities.
var ValidArities = map[Arity]bool{
	ArityScalar: true,
	ArityArray:  true,
	ArityNone:   true,
}

// ValidTerminators defines allowed terminators.
var ValidTerminators = map[Terminator]bool{
	TermCount: true,
	TermSlash: true,
	TermLine:  true,
	TermNone:  true,
}

// Position is a location in deck source.
type Position struct {
	Line   int `json:"line"`   // 1-based
	Column int `json:"column"` // 1-based
	Offset int `json:"offset"` // 0-based byte offset
}

// IsValid returns true if the position points into a source (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d (offset %d)", p.Line, p.Column, p.Offset)
}

// KeywordSpec describes how a registered keyword is parsed.
type KeywordSpec struct {
	Name        string     `json:"name" yaml:"name"`
	Kind        ValueKind  `json:"kind" yaml:"kind"`
	Arity       Arity      `json:"arity" yaml:"arity"`
	Terminator  Terminator `json:"terminator" yaml:"terminator"`
	Count       int        `json:"count,omitempty" yaml:"count,omitempty"` // TermCount only
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
}

// HasData reports whether records of this keyword carry values.
func (s KeywordSpec) HasData() bool {
	return s.Kind != KindNone
}

// Validate checks that the spec's fields are mutually consistent.
func (s KeywordSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("keyword name is required")
	}
	if !ValidKinds[s.Kind] {
		return fmt.Errorf("keyword %s: invalid kind %q", s.Name, s.Kind)
	}
	if !ValidArities[s.Arity] {
		return fmt.Errorf("keyword %s: invalid arity %q", s.Name, s.Arity)
	}
	if !ValidTerminators[s.Terminator] {
		return fmt.Errorf("keyword %s: invalid terminator %q", s.Name, s.Terminator)
	}

	switch {
	case s.Kind == KindNone || s.Arity == ArityNone || s.Terminator == TermNone:
		if s.Kind != KindNone || s.Arity != ArityNone || s.Terminator != TermNone {
			return fmt.Errorf("keyword %s: kind, arity and terminator must all be none together", s.Name)
		}
	case s.Terminator == TermLine:
		if s.Kind != KindString || s.Arity != ArityScalar {
			return fmt.Errorf("keyword %s: line terminator requires a scalar string", s.Name)
		}
	case s.Arity == ArityScalar:
		if s.Terminator != TermSlash && s.Terminator != TermCount {
			return fmt.Errorf("keyword %s: scalar requires slash or count terminator", s.Name)
		}
		if s.Terminator == TermCount && s.Count != 1 {
			return fmt.Errorf("keyword %s: scalar with count terminator requires count 1", s.Name)
		}
	case s.Terminator == TermCount:
		if s.Count <= 0 {
			return fmt.Errorf("keyword %s: count terminator requires count > 0", s.Name)
		}
	}
	if s.Terminator != TermCount && s.Count != 0 {
		return fmt.Errorf("keyword %s: count is only valid with the count terminator", s.Name)
	}
	return nil
}

// KeywordRecord is one keyword occurrence parsed from a deck.
type KeywordRecord struct {
	Name   string     `json:"name"`
	Index  int        `json:"index"` // position of this record in the deck
	Pos    Position   `json:"pos"`
	Kind   ValueKind  `json:"kind"`
	Values TypedArray `json:"values,omitempty"` // nil when Kind is KindNone
}

// Len returns the number of values in the record.
func (r KeywordRecord) Len() int {
	if r.Values == nil {
		return 0
	}
	return r.Values.Len()
}
