// Package ir provides the value model shared by every ecldeck package.
//
// This package contains type definitions and their canonical forms only.
// lexer, registry, parser and eclipse import ir; ir imports nothing from
// this module. This keeps ir the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - TypedArray is sealed: IntArray, FloatArray and StringArray are the only
//     variants, and a value never changes kind after construction
//   - Arrays are immutable; the backing slice is never handed out
//   - Canonical JSON sorts object keys by UTF-16 code units and renders floats
//     in shortest round-trip form, so digests are stable across runs
package ir
