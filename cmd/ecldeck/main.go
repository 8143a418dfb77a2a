// Command ecldeck parses ECLIPSE simulation decks.
//
// Usage:
//
//	ecldeck inspect <deck> <keyword>   Report the entries of one keyword
//	ecldeck keywords <deck>            List the keywords of a deck
//	ecldeck validate <deck>...         Parse decks and report diagnostics
//	ecldeck registry                   List the recognized keywords
//	ecldeck history --db audit.db      List recorded parse runs
//	ecldeck test <scenarios-dir>       Run deck scenarios
package main

import (
	"fmt"
	"os"

	"github.com/roach88/ecldeck/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ecldeck: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
