package ir

// FormatVersion identifies the layout of canonical state snapshots and
// digests. Bump it when digest inputs change.
const FormatVersion = "1"

// ToolVersion is the ecldeck release.
const ToolVersion = "0.1.0"
