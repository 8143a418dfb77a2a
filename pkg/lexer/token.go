package lexer

import (
	"fmt"

	"github.com/roach88/ecldeck/pkg/ir"
)

// TokenType represents the type of a lexer token.
type TokenType uint8

const (
	TokenEOF TokenType = iota

	// TokenInvalid is returned together with a lexical error.
	TokenInvalid

	TokenKeyword // bare upper-case word at the start of a line
	TokenInt     // 42, -7
	TokenFloat   // 0.25, 1e-3, 2.5D2
	TokenString  // 'quoted' or bare text

	TokenRecordEnd  // "/" after other tokens on its line
	TokenSectionEnd // "/" alone on its line
	TokenComment    // -- text
)

// String returns the token type name.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenInvalid:
		return "INVALID"
	case TokenKeyword:
		return "KEYWORD"
	case TokenInt:
		return "INT"
	case TokenFloat:
		return "FLOAT"
	case TokenString:
		return "STRING"
	case TokenRecordEnd:
		return "RECORD_END"
	case TokenSectionEnd:
		return "SECTION_END"
	case TokenComment:
		return "COMMENT"
	default:
		return fmt.Sprintf("TokenType(%d)", t)
	}
}

// Token is one lexical unit of a deck.
//
// Tokens expanded from a repeat count (3*2.5) share Pos and Raw; Text holds
// the repeated value only.
type Token struct {
	Type  TokenType
	Text  string // keyword name, number text, string contents or comment body
	Raw   string // source lexeme, including any repeat prefix or quotes
	Int   int64
	Float float64
	Pos   ir.Position
}

// IsValue reports whether the token can be a keyword value.
func (t Token) IsValue() bool {
	return t.Type == TokenInt || t.Type == TokenFloat || t.Type == TokenString
}

// IsTerminator reports whether the token closes a slash-terminated record.
func (t Token) IsTerminator() bool {
	return t.Type == TokenRecordEnd || t.Type == TokenSectionEnd
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenRecordEnd, TokenSectionEnd:
		return fmt.Sprintf("%s at %d:%d", t.Type, t.Pos.Line, t.Pos.Column)
	default:
		return fmt.Sprintf("%s(%q) at %d:%d", t.Type, t.Raw, t.Pos.Line, t.Pos.Column)
	}
}
