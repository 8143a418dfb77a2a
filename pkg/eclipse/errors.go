package eclipse

import (
	"errors"
	"fmt"
)

var (
	// ErrKeywordNotFound is matched by every *KeywordNotFoundError.
	ErrKeywordNotFound = errors.New("keyword not found")

	// ErrWrongKind is returned by the typed accessors when the keyword holds
	// values of another kind.
	ErrWrongKind = errors.New("wrong value kind")
)

// KeywordNotFoundError is returned when querying a keyword the deck never
// declared.
type KeywordNotFoundError struct {
	Keyword string
}

func (e *KeywordNotFoundError) Error() string {
	return fmt.Sprintf("keyword %s not found", e.Keyword)
}

// Is makes errors.Is(err, ErrKeywordNotFound) true.
func (e *KeywordNotFoundError) Is(target error) bool {
	return target == ErrKeywordNotFound
}

// StateBuildError reports records that cannot be folded into one State.
// No partial State is ever returned alongside it.
type StateBuildError struct {
	// Keyword is the keyword whose records conflict.
	Keyword string

	// Records are the deck indices of the conflicting records.
	Records []int

	// Reason describes the conflict.
	Reason string
}

func (e *StateBuildError) Error() string {
	return fmt.Sprintf("build state: keyword %s (records %v): %s", e.Keyword, e.Records, e.Reason)
}

// ParseError wraps a deck parse failure with the deck's source.
type ParseError struct {
	// Source is the deck path, or empty for in-memory data.
	Source string

	// Err is the underlying *parser.KeywordError or *StateBuildError.
	Err error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsKeywordNotFound returns true if err wraps a KeywordNotFoundError.
func IsKeywordNotFound(err error) bool {
	return errors.Is(err, ErrKeywordNotFound)
}

// IsStateBuild returns true if err wraps a StateBuildError.
func IsStateBuild(err error) bool {
	var se *StateBuildError
	return errors.As(err, &se)
}
