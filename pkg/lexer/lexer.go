package lexer

import (
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/ecldeck/pkg/ir"
)

var (
	keywordPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_+-]{0,7}$`)
	intPattern     = regexp.MustCompile(`^[+-]?[0-9]+$`)
	floatPattern   = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eEdD][+-]?[0-9]+)?$`)
)

// MaxRepeat is the largest repeat count accepted in N*value. It is above
// the cell count of any practical grid and keeps a short lexeme from
// expanding into an unbounded array.
const MaxRepeat = 100_000_000

// Lexer tokenizes deck source.
type Lexer struct {
	src     string
	pos     int  // next byte to read
	line    int  // current line number (1-based)
	lineOff int  // byte offset of the current line's first byte
	bol     bool // no token read yet on the current line

	// Remaining copies of a repeat-count token.
	pending     Token
	pendingLeft int64
}

// New creates a Lexer for the given source.
func New(src string) *Lexer {
	l := &Lexer{src: src}
	l.Reset()
	return l
}

// Reset rewinds the lexer to the start of its source.
func (l *Lexer) Reset() {
	l.pos = 0
	l.line = 1
	l.lineOff = 0
	l.bol = true
	l.pending = Token{}
	l.pendingLeft = 0
}

// Tokens iterates over every token up to and including EOF.
// Each call restarts from the beginning of the source. A lexical error is
// yielded alongside a TokenInvalid token; iteration continues after it
// unless the consumer stops.
func (l *Lexer) Tokens() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		l.Reset()
		for {
			tok, err := l.Next()
			if !yield(tok, err) {
				return
			}
			if tok.Type == TokenEOF {
				return
			}
		}
	}
}

// Tokenize returns all tokens of src up to and including EOF, stopping at
// the first lexical error.
func Tokenize(src string) ([]Token, error) {
	var toks []Token
	for tok, err := range New(src).Tokens() {
		if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

// Next returns the next token. After a MalformedNumberError the lexer has
// already moved past the bad lexeme, so the caller may keep reading.
func (l *Lexer) Next() (Token, error) {
	if l.pendingLeft > 0 {
		l.pendingLeft--
		return l.pending, nil
	}

	l.skipSpace()
	if l.pos >= len(l.src) {
		return Token{Type: TokenEOF, Pos: l.position(l.pos)}, nil
	}

	start := l.pos
	pos := l.position(start)
	atLineStart := l.bol
	l.bol = false

	switch {
	case strings.HasPrefix(l.src[l.pos:], "--"):
		end := l.lineEnd()
		raw := l.src[start:end]
		l.pos = end
		return Token{Type: TokenComment, Text: strings.TrimSpace(raw[2:]), Raw: raw, Pos: pos}, nil

	case l.src[l.pos] == '/':
		// Text after a slash is ignored up to the end of the line.
		l.pos = l.lineEnd()
		typ := TokenRecordEnd
		if atLineStart {
			typ = TokenSectionEnd
		}
		return Token{Type: typ, Text: "/", Raw: "/", Pos: pos}, nil

	case l.src[l.pos] == '\'':
		raw, text := l.readQuoted()
		return Token{Type: TokenString, Text: text, Raw: raw, Pos: pos}, nil
	}

	word := l.readWord()
	if count, value, ok := splitRepeat(word); ok {
		return l.repeat(word, count, value, pos)
	}
	if looksNumeric(word) {
		return classifyNumber(word, word, pos)
	}
	if atLineStart && keywordPattern.MatchString(word) {
		return Token{Type: TokenKeyword, Text: word, Raw: word, Pos: pos}, nil
	}
	return Token{Type: TokenString, Text: word, Raw: word, Pos: pos}, nil
}

// RestOfLine consumes and returns the raw text from the current position to
// the end of the line, and moves to the start of the next line. ok is false
// at end of input. Pending repeat copies are discarded.
func (l *Lexer) RestOfLine() (text string, pos ir.Position, ok bool) {
	l.pendingLeft = 0
	if l.pos >= len(l.src) {
		return "", l.position(l.pos), false
	}
	pos = l.position(l.pos)
	end := l.lineEnd()
	text = l.src[l.pos:end]
	l.pos = end
	if l.pos < len(l.src) {
		l.newline()
	}
	return strings.TrimSuffix(text, "\r"), pos, true
}

// PeekLine returns the raw text from the current position to the end of
// the line without consuming it. ok is false at end of input.
func (l *Lexer) PeekLine() (text string, ok bool) {
	if l.pos >= len(l.src) {
		return "", false
	}
	return strings.TrimSuffix(l.src[l.pos:l.lineEnd()], "\r"), true
}

// AtLineStart reports whether no token has been read on the current line.
func (l *Lexer) AtLineStart() bool {
	return l.bol && l.pendingLeft == 0
}

// repeat expands N*value into N tokens.
func (l *Lexer) repeat(raw, countText, value string, pos ir.Position) (Token, error) {
	count, err := strconv.ParseInt(countText, 10, 64)
	if err != nil || count <= 0 {
		return invalid(raw, pos), &MalformedNumberError{Pos: pos, Text: raw, Reason: "repeat count must be a positive integer"}
	}
	if count > MaxRepeat {
		return invalid(raw, pos), &MalformedNumberError{Pos: pos, Text: raw, Reason: fmt.Sprintf("repeat count exceeds %d", MaxRepeat)}
	}
	if value == "" {
		return invalid(raw, pos), &MalformedNumberError{Pos: pos, Text: raw, Reason: "repeat count without a value"}
	}

	var tok Token
	switch {
	case value[0] == '\'':
		// An unterminated quote runs to the end of the line.
		tok = Token{Type: TokenString, Text: strings.TrimSuffix(value[1:], "'"), Raw: raw, Pos: pos}
	case looksNumeric(value):
		tok, err = classifyNumber(value, raw, pos)
		if err != nil {
			return tok, err
		}
	default:
		tok = Token{Type: TokenString, Text: value, Raw: raw, Pos: pos}
	}

	l.pending = tok
	l.pendingLeft = count - 1
	return tok, nil
}

// classifyNumber parses text as an integer, else as a float.
func classifyNumber(text, raw string, pos ir.Position) (Token, error) {
	if intPattern.MatchString(text) {
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return invalid(raw, pos), &MalformedNumberError{Pos: pos, Text: raw, Reason: "integer out of range"}
		}
		return Token{Type: TokenInt, Text: text, Raw: raw, Int: n, Pos: pos}, nil
	}
	if floatPattern.MatchString(text) {
		f, err := strconv.ParseFloat(strings.NewReplacer("d", "e", "D", "e").Replace(text), 64)
		if err != nil {
			return invalid(raw, pos), &MalformedNumberError{Pos: pos, Text: raw, Reason: "float out of range"}
		}
		return Token{Type: TokenFloat, Text: text, Raw: raw, Float: f, Pos: pos}, nil
	}
	return invalid(raw, pos), &MalformedNumberError{Pos: pos, Text: raw, Reason: "not an integer or float"}
}

func invalid(raw string, pos ir.Position) Token {
	return Token{Type: TokenInvalid, Text: raw, Raw: raw, Pos: pos}
}

// splitRepeat splits "3*2.5" into ("3", "2.5"). ok is false unless the
// text before the first '*' is all digits.
func splitRepeat(word string) (count, value string, ok bool) {
	i := strings.IndexByte(word, '*')
	if i <= 0 {
		return "", "", false
	}
	for _, c := range word[:i] {
		if c < '0' || c > '9' {
			return "", "", false
		}
	}
	return word[:i], word[i+1:], true
}

// looksNumeric reports whether a word is meant to be a number: it starts
// with a digit, or with a sign and/or dot followed by a digit.
func looksNumeric(word string) bool {
	s := strings.TrimLeft(word, "+-")
	if len(word)-len(s) > 1 {
		return false
	}
	s = strings.TrimPrefix(s, ".")
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// skipSpace advances over whitespace, tracking line starts.
func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\n':
			l.newline()
		case ' ', '\t', '\r', '\f', '\v':
			l.pos++
		default:
			return
		}
	}
}

// newline consumes the '\n' at l.pos.
func (l *Lexer) newline() {
	l.pos++
	l.line++
	l.lineOff = l.pos
	l.bol = true
}

// lineEnd returns the offset of the next '\n' (or end of input).
func (l *Lexer) lineEnd() int {
	if i := strings.IndexByte(l.src[l.pos:], '\n'); i >= 0 {
		return l.pos + i
	}
	return len(l.src)
}

// readWord reads a bare word ending at whitespace, a slash or a comment.
// A quote is an ordinary character except right after a repeat prefix,
// where N*'text' is read up to and including the closing quote.
func (l *Lexer) readWord() string {
	start := l.pos
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\n' || c == ' ' || c == '\t' || c == '\r' || c == '/' {
			break
		}
		if c == '-' && l.pos > start && strings.HasPrefix(l.src[l.pos:], "--") {
			break
		}
		if c == '\'' && isRepeatPrefix(l.src[start:l.pos]) {
			end := l.lineEnd()
			if i := strings.IndexByte(l.src[l.pos+1:end], '\''); i >= 0 {
				l.pos += i + 2
			} else {
				l.pos = end
			}
			break
		}
		l.pos++
	}
	return l.src[start:l.pos]
}

// isRepeatPrefix reports whether s is a repeat count followed by '*'.
func isRepeatPrefix(s string) bool {
	count, value, ok := splitRepeat(s)
	return ok && value == "" && count != ""
}

// readQuoted reads 'text'. An unterminated quote runs to the end of the line.
func (l *Lexer) readQuoted() (raw, text string) {
	start := l.pos
	l.pos++ // opening quote
	end := l.lineEnd()
	if i := strings.IndexByte(l.src[l.pos:end], '\''); i >= 0 {
		text = l.src[l.pos : l.pos+i]
		l.pos += i + 1
	} else {
		text = l.src[l.pos:end]
		l.pos = end
	}
	return l.src[start:l.pos], text
}

func (l *Lexer) position(offset int) ir.Position {
	return ir.Position{
		Line:   l.line,
		Column: offset - l.lineOff + 1,
		Offset: offset,
	}
}
