// Package lexer splits Eclipse deck text into tokens.
//
// The lexer is lazy: Next produces one token at a time, and N*value repeat
// counts expand without allocating N tokens. It never decides whether a
// keyword-shaped word really is a keyword. The parser makes that call using
// the keyword registry.
//
// LEXICAL RULES:
//
//   - Whitespace, including newlines, separates tokens.
//   - "--" starts a comment running to the end of the line.
//   - "/" terminates a record and the rest of its line is ignored. A slash
//     that is the first non-blank character of its line is a SectionEnd,
//     any other slash a RecordEnd.
//   - A bare word at the start of a line matching [A-Z][A-Z0-9_+-]{0,7} is
//     a Keyword token. Other words and 'quoted' text are String tokens. A
//     quote inside a bare word is an ordinary character, except in the
//     repeat form N*'text'.
//   - Words that look numeric are Int if they match [+-]?[0-9]+, else Float
//     (Fortran D exponents accepted), else a MalformedNumberError.
//   - A repeat count must be between 1 and MaxRepeat.
package lexer
