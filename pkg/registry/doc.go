// Package registry holds the keyword table that drives deck parsing.
//
// Each registered keyword has an ir.KeywordSpec saying what kind of values
// it carries, how many, and how its record ends. The built-in table is
// embedded as YAML and decoded once, on first call to Default. Callers that
// need extra keywords build a derived registry with Extend or Load; a
// Registry never changes after construction.
package registry
