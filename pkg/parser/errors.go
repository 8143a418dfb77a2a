package parser

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/ecldeck/pkg/ir"
	"github.com/roach88/ecldeck/pkg/lexer"
)

// ErrorCode categorizes parse failures for reporting.
type ErrorCode string

const (
	// CodeMalformedNumber: a numeric-looking token parsed as neither int nor float.
	CodeMalformedNumber ErrorCode = "MALFORMED_NUMBER"

	// CodeUnterminatedArray: a slash-terminated record never saw its "/".
	CodeUnterminatedArray ErrorCode = "UNTERMINATED_ARRAY"

	// CodeTypeMismatch: a value token of the wrong kind for its keyword.
	CodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// CodeArity: a record with too few or too many values.
	CodeArity ErrorCode = "ARITY"

	// CodeUnknown is used for errors outside the taxonomy above.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// UnterminatedArrayError reports a slash-terminated record that reached end
// of input, or the next registered keyword, before its "/".
type UnterminatedArrayError struct {
	Keyword string
	Start   ir.Position // position of the keyword
	Found   string      // "EOF" or the keyword that interrupted the record
}

func (e *UnterminatedArrayError) Error() string {
	return fmt.Sprintf("%s record starting at %s not terminated by '/' before %s", e.Keyword, e.Start, e.Found)
}

// TypeMismatchError reports a value token that does not fit the keyword's kind.
type TypeMismatchError struct {
	Want ir.ValueKind
	Got  lexer.TokenType
	Text string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("expected %s value, got %s %q", e.Want, e.Got, e.Text)
}

// ArityError reports a record whose value count does not match its spec.
type ArityError struct {
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	if e.Got > e.Want {
		return fmt.Sprintf("expected %d value(s), got more", e.Want)
	}
	return fmt.Sprintf("expected %d value(s), got %d", e.Want, e.Got)
}

// KeywordError locates a parse failure in the deck. Every error returned by
// the parser is a *KeywordError wrapping one of the specific errors above or
// a *lexer.MalformedNumberError.
type KeywordError struct {
	// Keyword is the keyword whose record failed.
	Keyword string

	// Record is the deck index the record would have had.
	Record int

	// Pos is where the offending token starts.
	Pos ir.Position

	// Err is the underlying error.
	Err error
}

func (e *KeywordError) Error() string {
	return fmt.Sprintf("keyword %s (record %d) at %s: %v", e.Keyword, e.Record, e.Pos, e.Err)
}

// Unwrap returns the underlying error.
func (e *KeywordError) Unwrap() error {
	return e.Err
}

// Code returns the category of the underlying error.
func (e *KeywordError) Code() ErrorCode {
	return Code(e.Err)
}

// MarshalJSON implements json.Marshaler.
func (e *KeywordError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code    ErrorCode   `json:"code"`
		Keyword string      `json:"keyword"`
		Record  int         `json:"record"`
		Pos     ir.Position `json:"pos"`
		Message string      `json:"message"`
	}{e.Code(), e.Keyword, e.Record, e.Pos, e.Err.Error()})
}

// Code returns the category of err, looking through wrapping.
func Code(err error) ErrorCode {
	switch {
	case lexer.IsMalformedNumber(err):
		return CodeMalformedNumber
	case IsUnterminatedArray(err):
		return CodeUnterminatedArray
	case IsTypeMismatch(err):
		return CodeTypeMismatch
	case IsArity(err):
		return CodeArity
	default:
		return CodeUnknown
	}
}

// IsUnterminatedArray returns true if err wraps an UnterminatedArrayError.
func IsUnterminatedArray(err error) bool {
	var ue *UnterminatedArrayError
	return errors.As(err, &ue)
}

// IsTypeMismatch returns true if err wraps a TypeMismatchError.
func IsTypeMismatch(err error) bool {
	var te *TypeMismatchError
	return errors.As(err, &te)
}

// IsArity returns true if err wraps an ArityError.
func IsArity(err error) bool {
	var ae *ArityError
	return errors.As(err, &ae)
}

// WarningCode categorizes non-fatal diagnostics.
type WarningCode string

const (
	// WarnUnknownKeyword: a keyword absent from the registry was skipped.
	WarnUnknownKeyword WarningCode = "UNKNOWN_KEYWORD"

	// WarnRandomText: values outside any keyword record were skipped.
	WarnRandomText WarningCode = "RANDOM_TEXT"
)

// Warning is a non-fatal diagnostic collected during a parse.
type Warning struct {
	Code    WarningCode `json:"code"`
	Keyword string      `json:"keyword,omitempty"`
	Pos     ir.Position `json:"pos"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s at %s: %s", w.Code, w.Pos, w.Message)
}
