package lexer

import (
	"errors"
	"fmt"

	"github.com/roach88/ecldeck/pkg/ir"
)

// MalformedNumberError reports a numeric-looking lexeme that is neither a
// valid integer nor a valid float, or a bad N*value repeat count.
type MalformedNumberError struct {
	Pos    ir.Position
	Text   string
	Reason string
}

// Error implements the error interface.
func (e *MalformedNumberError) Error() string {
	return fmt.Sprintf("malformed number %q at %s: %s", e.Text, e.Pos, e.Reason)
}

// IsMalformedNumber reports whether err wraps a MalformedNumberError.
func IsMalformedNumber(err error) bool {
	var me *MalformedNumberError
	return errors.As(err, &me)
}
