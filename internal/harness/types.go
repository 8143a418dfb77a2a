package harness

import (
	"github.com/roach88/ecldeck/internal/store"
	"github.com/roach88/ecldeck/pkg/eclipse"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when the parse outcome and every assertion match.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the parsed deck, nil when the parse failed.
	State *eclipse.State `json:"-"`

	// ParseErr is the parse failure, nil when the parse succeeded.
	ParseErr error `json:"-"`

	// Run is the audit record written for the parse.
	Run store.Run `json:"run"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
