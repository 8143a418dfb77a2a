// Package eclipse builds immutable, queryable states from Eclipse decks.
//
// ParseDeck, ParseData and ParseFiles are the only ways to obtain a State.
// Each runs the deck through the lexer and parser, then folds the parsed
// records into a mapping from keyword name to one typed array:
//
//	state, err := eclipse.ParseDeck("NORNE.DATA")
//	if err != nil {
//		return err
//	}
//	if state.Contains("PORO") {
//		poro, _ := state.Floats("PORO")
//		...
//	}
//
// INVARIANTS:
//
//   - A keyword maps to exactly one array of one kind. Records of the same
//     keyword that disagree on kind fail the build.
//   - Repeated keywords resolve by DuplicatePolicy (LastWins by default).
//   - Section and flag keywords carry no data. They appear in the Deck only.
//   - A State never changes after construction and is safe for concurrent
//     readers.
package eclipse
