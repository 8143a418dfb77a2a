package parser

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/ecldeck/pkg/ir"
	"github.com/roach88/ecldeck/pkg/lexer"
	"github.com/roach88/ecldeck/pkg/registry"
)

// TitleKeyword is the keyword whose text becomes the deck title.
const TitleKeyword = "TITLE"

// ErrorPolicy decides what a parse does when a record fails.
type ErrorPolicy string

const (
	// Abort stops at the first failing record and returns its error.
	Abort ErrorPolicy = "abort"

	// BestEffort drops the failing record, resumes at the next registered
	// keyword and collects the error in Result.Errors.
	BestEffort ErrorPolicy = "best_effort"
)

// ValidErrorPolicies lists the accepted policies.
var ValidErrorPolicies = map[ErrorPolicy]bool{
	Abort:      true,
	BestEffort: true,
}

// Result is the outcome of parsing one deck.
type Result struct {
	// Title is the text of the last TITLE record; empty if there is none.
	Title string

	// HasTitle is true if the deck contains a TITLE record.
	HasTitle bool

	// Records holds every successfully parsed record in deck order.
	Records []ir.KeywordRecord

	// Warnings holds non-fatal diagnostics in the order they were found.
	Warnings []Warning

	// Errors holds the records dropped under BestEffort.
	Errors []*KeywordError
}

// Option configures a Parser.
type Option func(*Parser)

// WithErrorPolicy sets the error policy. The default is Abort.
func WithErrorPolicy(policy ErrorPolicy) Option {
	return func(p *Parser) {
		p.policy = policy
	}
}

// WithLogger sets the logger for per-keyword debug events and
// unknown-keyword warnings. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Parser turns deck text into keyword records, using a registry to decide
// how each keyword's values are read. A Parser holds no per-parse state and
// may be used from several goroutines.
type Parser struct {
	reg    *registry.Registry
	policy ErrorPolicy
	logger *slog.Logger
}

// New creates a Parser. A nil registry means registry.Default().
func New(reg *registry.Registry, opts ...Option) *Parser {
	if reg == nil {
		reg = registry.Default()
	}
	p := &Parser{
		reg:    reg,
		policy: Abort,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Registry returns the registry guiding the parser.
func (p *Parser) Registry() *registry.Registry {
	return p.reg
}

// ParseReader reads all of rd and parses it.
func (p *Parser) ParseReader(rd io.Reader) (*Result, error) {
	src, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}
	return p.Parse(string(src))
}

// Parse parses a complete deck.
//
// Under Abort the first failure is returned as a *KeywordError together
// with the partial result parsed before it. Under BestEffort the error is
// always nil and failures are collected in Result.Errors.
func (p *Parser) Parse(src string) (*Result, error) {
	r := &run{
		p:   p,
		lx:  lexer.New(src),
		res: &Result{},
	}
	if err := r.parse(); err != nil {
		return r.res, err
	}
	return r.res, nil
}

// run is the state of one parse.
type run struct {
	p   *Parser
	lx  *lexer.Lexer
	res *Result

	// One token of lookahead.
	peeked  bool
	peekTok lexer.Token
	peekErr error
}

func (r *run) next() (lexer.Token, error) {
	if r.peeked {
		r.peeked = false
		return r.peekTok, r.peekErr
	}
	return r.lx.Next()
}

// unread pushes back the token just returned by next.
func (r *run) unread(tok lexer.Token, err error) {
	r.peeked = true
	r.peekTok = tok
	r.peekErr = err
}

// nextSignificant returns the next token that is not a comment.
func (r *run) nextSignificant() (lexer.Token, error) {
	for {
		tok, err := r.next()
		if err != nil || tok.Type != lexer.TokenComment {
			return tok, err
		}
	}
}

func (r *run) parse() error {
	for {
		tok, err := r.nextSignificant()
		if err != nil {
			// A malformed number outside any record is stray text.
			r.warnRandom(tok)
			r.skipToKeyword()
			continue
		}

		switch tok.Type {
		case lexer.TokenEOF:
			return nil

		case lexer.TokenRecordEnd, lexer.TokenSectionEnd:
			// Stray slashes between records are tolerated.

		case lexer.TokenKeyword:
			spec, ok := r.p.reg.Lookup(tok.Text)
			if !ok {
				r.warnUnknown(tok)
				r.skipUnknown()
				continue
			}
			if err := r.record(spec, tok); err != nil {
				if r.p.policy != BestEffort {
					return err
				}
				r.res.Errors = append(r.res.Errors, err)
				r.p.logger.Warn("dropping failed record",
					"keyword", err.Keyword,
					"line", err.Pos.Line,
					"error", err.Err,
				)
				r.skipToRegistered()
			}

		default:
			r.warnRandom(tok)
			r.skipToKeyword()
		}
	}
}

// record parses the data of one registered keyword and appends it.
func (r *run) record(spec ir.KeywordSpec, kw lexer.Token) *KeywordError {
	rec := ir.KeywordRecord{
		Name:  spec.Name,
		Index: len(r.res.Records),
		Pos:   kw.Pos,
		Kind:  spec.Kind,
	}

	var (
		values ir.TypedArray
		pos    ir.Position
		err    error
	)
	switch spec.Terminator {
	case ir.TermNone:
	case ir.TermLine:
		text := r.lineText()
		values = ir.NewStringArray(text)
		if spec.Name == TitleKeyword {
			r.res.Title = text
			r.res.HasTitle = true
		}
	case ir.TermCount:
		values, pos, err = r.countValues(spec, kw)
	case ir.TermSlash:
		values, pos, err = r.slashValues(spec, kw)
	default:
		err = fmt.Errorf("unsupported terminator %q", spec.Terminator)
		pos = kw.Pos
	}
	if err != nil {
		return &KeywordError{Keyword: spec.Name, Record: rec.Index, Pos: pos, Err: err}
	}

	rec.Values = values
	r.res.Records = append(r.res.Records, rec)
	r.p.logger.Debug("parsed keyword",
		"keyword", rec.Name,
		"record", rec.Index,
		"line", rec.Pos.Line,
		"values", rec.Len(),
	)
	return nil
}

// lineText reads line-terminated text: the rest of the keyword's line, or
// the next line holding anything but a comment. A following line that
// starts with a registered keyword is left for that keyword and the text
// is empty.
func (r *run) lineText() string {
	for own := true; ; own = false {
		if line, ok := r.lx.PeekLine(); ok && !own && r.startsWithRegistered(line) {
			return ""
		}
		text, _, ok := r.lx.RestOfLine()
		if !ok {
			return ""
		}
		if i := strings.Index(text, "--"); i >= 0 {
			text = text[:i]
		}
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
}

func (r *run) startsWithRegistered(line string) bool {
	fields := strings.Fields(line)
	return len(fields) > 0 && r.p.reg.Has(fields[0])
}

// countValues reads exactly spec.Count values and an optional "/".
func (r *run) countValues(spec ir.KeywordSpec, kw lexer.Token) (ir.TypedArray, ir.Position, error) {
	b := ir.NewArrayBuilder(spec.Kind)
	for b.Len() < spec.Count {
		tok, err := r.nextSignificant()
		if err != nil {
			return nil, tok.Pos, err
		}
		if tok.Type == lexer.TokenEOF || tok.IsTerminator() || r.isRegistered(tok) {
			if !tok.IsTerminator() {
				r.unread(tok, nil)
			}
			return nil, tok.Pos, &ArityError{Want: spec.Count, Got: b.Len()}
		}
		if err := appendValue(b, tok); err != nil {
			return nil, tok.Pos, err
		}
	}

	tok, err := r.nextSignificant()
	if err != nil || tok.IsValue() {
		return nil, tok.Pos, &ArityError{Want: spec.Count, Got: spec.Count + r.countExtra()}
	}
	if err != nil || !tok.IsTerminator() {
		r.unread(tok, err)
	}
	return b.Build(), kw.Pos, nil
}

// countExtra counts the value just read and any others up to the end of
// the record.
func (r *run) countExtra() int {
	extra := 1
	for {
		tok, err := r.nextSignificant()
		switch {
		case err != nil || tok.IsValue():
			extra++
		case tok.IsTerminator():
			return extra
		default:
			r.unread(tok, nil)
			return extra
		}
	}
}

// slashValues reads values up to a "/". A scalar takes exactly one.
func (r *run) slashValues(spec ir.KeywordSpec, kw lexer.Token) (ir.TypedArray, ir.Position, error) {
	b := ir.NewArrayBuilder(spec.Kind)
	for {
		tok, err := r.nextSignificant()
		if err != nil {
			return nil, tok.Pos, err
		}

		switch {
		case tok.IsTerminator():
			if spec.Arity == ir.ArityScalar && b.Len() != 1 {
				return nil, tok.Pos, &ArityError{Want: 1, Got: b.Len()}
			}
			return b.Build(), kw.Pos, nil

		case tok.Type == lexer.TokenEOF:
			return nil, tok.Pos, &UnterminatedArrayError{Keyword: spec.Name, Start: kw.Pos, Found: "EOF"}

		case r.isRegistered(tok):
			r.unread(tok, nil)
			return nil, tok.Pos, &UnterminatedArrayError{Keyword: spec.Name, Start: kw.Pos, Found: tok.Text}
		}

		if spec.Arity == ir.ArityScalar && b.Len() == 1 {
			return nil, tok.Pos, &ArityError{Want: 1, Got: 2}
		}
		if err := appendValue(b, tok); err != nil {
			return nil, tok.Pos, err
		}
	}
}

// appendValue adds tok to b if its type fits the builder's kind. Integer
// literals are valid float values; strings take any token's text.
func appendValue(b *ir.ArrayBuilder, tok lexer.Token) error {
	switch b.Kind() {
	case ir.KindInt:
		if tok.Type == lexer.TokenInt {
			b.AppendInt(tok.Int)
			return nil
		}
	case ir.KindFloat:
		switch tok.Type {
		case lexer.TokenFloat:
			b.AppendFloat(tok.Float)
			return nil
		case lexer.TokenInt:
			b.AppendFloat(float64(tok.Int))
			return nil
		}
	case ir.KindString:
		if tok.IsValue() || tok.Type == lexer.TokenKeyword {
			b.AppendString(tok.Text)
			return nil
		}
	}
	return &TypeMismatchError{Want: b.Kind(), Got: tok.Type, Text: tok.Raw}
}

func (r *run) isRegistered(tok lexer.Token) bool {
	return tok.Type == lexer.TokenKeyword && r.p.reg.Has(tok.Text)
}

// skipUnknown skips the data of an unregistered keyword up to the next
// registered one. Further unregistered keywords met at a record boundary
// get their own warning.
func (r *run) skipUnknown() {
	boundary := true
	for {
		tok, err := r.next()
		if err != nil {
			boundary = false
			continue
		}
		switch {
		case tok.Type == lexer.TokenEOF:
			return
		case r.isRegistered(tok):
			r.unread(tok, nil)
			return
		case tok.Type == lexer.TokenKeyword:
			if boundary {
				r.warnUnknown(tok)
			}
			boundary = true
		case tok.Type == lexer.TokenComment:
		case tok.IsTerminator():
			boundary = true
		default:
			boundary = false
		}
	}
}

// skipToRegistered discards tokens up to the next registered keyword.
func (r *run) skipToRegistered() {
	for {
		tok, err := r.next()
		if err != nil {
			continue
		}
		if tok.Type == lexer.TokenEOF || r.isRegistered(tok) {
			r.unread(tok, nil)
			return
		}
	}
}

// skipToKeyword discards tokens up to the next keyword, registered or not.
func (r *run) skipToKeyword() {
	for {
		tok, err := r.next()
		if err != nil {
			continue
		}
		if tok.Type == lexer.TokenEOF || tok.Type == lexer.TokenKeyword {
			r.unread(tok, nil)
			return
		}
	}
}

func (r *run) warnUnknown(tok lexer.Token) {
	r.res.Warnings = append(r.res.Warnings, Warning{
		Code:    WarnUnknownKeyword,
		Keyword: tok.Text,
		Pos:     tok.Pos,
		Message: fmt.Sprintf("unknown keyword %s skipped", tok.Text),
	})
	r.p.logger.Warn("unknown keyword", "keyword", tok.Text, "line", tok.Pos.Line)
}

func (r *run) warnRandom(tok lexer.Token) {
	r.res.Warnings = append(r.res.Warnings, Warning{
		Code:    WarnRandomText,
		Pos:     tok.Pos,
		Message: fmt.Sprintf("text %q outside any keyword skipped", tok.Raw),
	})
	r.p.logger.Debug("random text", "text", tok.Raw, "line", tok.Pos.Line)
}
