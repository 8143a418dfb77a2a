// Package harness runs deck conformance scenarios.
//
// A scenario names a deck, either inline or as a file, the parse options to
// use, and assertions about the resulting state. The harness parses the deck,
// records the outcome in an in-memory audit log, evaluates the assertions and
// can compare a canonical snapshot of the outcome against a golden file.
//
// # Scenario Format
//
//	name: norne_grid
//	description: "Grid properties of the NORNE sample"
//	deck: decks/NORNE.DATA     # relative to the scenario file
//	options:
//	  on_error: best_effort
//	  duplicates: last
//	assertions:
//	  - type: title
//	    equals: NORNE FIELD MODEL
//	  - type: contains
//	    keyword: PORO
//	  - type: absent
//	    keyword: PERMZ
//	  - type: length
//	    keyword: TOPS
//	    count: 4
//	  - type: values
//	    keyword: ACTNUM
//	    values: [1, 1, 0, 1]
//	  - type: warning
//	    code: UNKNOWN_KEYWORD
//	    keyword: FOOBAR
//	  - type: error
//	    code: MALFORMED_NUMBER
//	    keyword: PORO
//	  - type: audit
//	    status: ok
//
// Instead of deck, a scenario may carry the deck text in source. A scenario
// whose deck must fail to parse sets expect_error to the error code.
//
// # Deterministic Testing
//
// Each scenario gets a fresh in-memory SQLite audit log, sequential run IDs
// and testutil.DeterministicClock, so snapshots are identical across runs.
package harness
