// Package config loads ecldeck configuration files.
//
// A configuration file is CUE. It is unified with an embedded schema, so
// unknown fields, misspelled policies and malformed keyword names are
// rejected with a file position before anything is parsed:
//
//	parse: {
//		on_error:   "best_effort"
//		duplicates: "first"
//	}
//	keywords: [
//		{name: "FOOBAR", kind: "int", arity: "array", terminator: "slash"},
//	]
//
// Omitted settings take the schema defaults. Keywords extend the built-in
// registry; a keyword with a built-in name replaces it.
package config
