package store

import (
	"errors"
	"time"

	"github.com/roach88/ecldeck/pkg/eclipse"
	"github.com/roach88/ecldeck/pkg/ir"
	"github.com/roach88/ecldeck/pkg/parser"
)

// Status is the outcome of a run.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Severity distinguishes warnings from dropped-record errors.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Error codes recorded for failures outside the parser taxonomy.
const (
	CodeStateBuild = "STATE_BUILD"
	CodeRead       = "READ"
)

// Run is one recorded deck parse.
type Run struct {
	ID            string       `json:"id"`
	Seq           int64        `json:"seq"`
	Deck          string       `json:"deck"`
	Status        Status       `json:"status"`
	Title         string       `json:"title"`
	Digest        string       `json:"digest"`
	Records       int          `json:"records"`
	Keywords      int          `json:"keywords"`
	ErrorCode     string       `json:"error_code,omitempty"`
	ErrorMessage  string       `json:"error_message,omitempty"`
	ToolVersion   string       `json:"tool_version"`
	FormatVersion string       `json:"format_version"`
	ParsedAt      time.Time    `json:"parsed_at"`
	Diagnostics   []Diagnostic `json:"diagnostics"`
}

// Diagnostic is a warning or a best-effort keyword error of a run.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Keyword  string   `json:"keyword,omitempty"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Message  string   `json:"message"`
}

// NewRun describes the outcome of parsing deck. Exactly one of st and
// parseErr is non-nil. ID and Seq are left for the Recorder and WriteRun.
func NewRun(deck string, st *eclipse.State, parseErr error, parsedAt time.Time) (Run, error) {
	run := Run{
		Deck:          deck,
		ToolVersion:   ir.ToolVersion,
		FormatVersion: ir.FormatVersion,
		ParsedAt:      parsedAt.UTC(),
		Diagnostics:   []Diagnostic{},
	}

	if parseErr != nil {
		run.Status = StatusFailed
		run.ErrorCode = errorCode(parseErr)
		run.ErrorMessage = parseErr.Error()
		var ke *parser.KeywordError
		if errors.As(parseErr, &ke) {
			run.Diagnostics = append(run.Diagnostics, keywordDiagnostic(ke))
		}
		return run, nil
	}

	digest, err := st.Digest()
	if err != nil {
		return Run{}, err
	}
	run.Status = StatusOK
	run.Title = st.Title()
	run.Digest = digest
	run.Records = st.Deck().Size()
	run.Keywords = st.NumKeywords()
	for _, w := range st.Warnings() {
		run.Diagnostics = append(run.Diagnostics, Diagnostic{
			Severity: SeverityWarning,
			Code:     string(w.Code),
			Keyword:  w.Keyword,
			Line:     w.Pos.Line,
			Column:   w.Pos.Column,
			Message:  w.Message,
		})
	}
	for _, ke := range st.Errors() {
		run.Diagnostics = append(run.Diagnostics, keywordDiagnostic(ke))
	}
	return run, nil
}

func keywordDiagnostic(ke *parser.KeywordError) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Code:     string(ke.Code()),
		Keyword:  ke.Keyword,
		Line:     ke.Pos.Line,
		Column:   ke.Pos.Column,
		Message:  ke.Err.Error(),
	}
}

func errorCode(err error) string {
	var ke *parser.KeywordError
	switch {
	case errors.As(err, &ke):
		return string(ke.Code())
	case eclipse.IsStateBuild(err):
		return CodeStateBuild
	default:
		return CodeRead
	}
}
