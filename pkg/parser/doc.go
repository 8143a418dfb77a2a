// Package parser turns a deck's token stream into ordered keyword records.
//
// Parsing is single-pass and registry-guided. For each keyword token the
// parser looks up its spec and reads values by the spec's terminator:
//
//   - none:  no values (section and flag keywords such as GRID or OIL)
//   - line:  the rest of the keyword's line, else the next non-comment line
//     unless that line starts with a registered keyword
//   - count: exactly Count values, then an optional "/"; any further value
//     is an *ArityError
//   - slash: values up to the next "/", with N*value repeats expanded
//
// Values are never coerced across kinds, with one exception: an integer
// literal is a valid value for a float keyword.
//
// ERROR HANDLING:
//
// Every failure is a *KeywordError naming the keyword, the record index and
// the source position, wrapping one of *lexer.MalformedNumberError,
// *UnterminatedArrayError, *TypeMismatchError or *ArityError. The
// ErrorPolicy option chooses between stopping at the first failure (Abort)
// and dropping failed records (BestEffort).
//
// Unknown keywords are not errors. They are skipped up to the next
// registered keyword and reported as UNKNOWN_KEYWORD warnings.
package parser
