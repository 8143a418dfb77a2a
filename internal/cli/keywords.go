package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/ecldeck/pkg/eclipse"
	"github.com/roach88/ecldeck/pkg/ir"
)

// KeywordSummary describes one keyword of a parsed deck.
type KeywordSummary struct {
	Keyword     string       `json:"keyword"`
	Kind        ir.ValueKind `json:"kind"`
	Entries     int          `json:"entries"`
	Occurrences int          `json:"occurrences"`
	Digest      string       `json:"digest"`
}

// KeywordsResult is the JSON payload of the keywords command.
type KeywordsResult struct {
	Title    string           `json:"title"`
	Records  int              `json:"records"`
	Keywords []KeywordSummary `json:"keywords"`
}

// NewKeywordsCommand creates the keywords command.
func NewKeywordsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keywords <deck>",
		Short: "List the keywords of a deck",
		Long: `Parse a deck and list every keyword holding data, in the order the
keywords first appear, with their kind and number of entries.

Examples:
  ecldeck keywords NORNE.DATA
  ecldeck keywords NORNE.DATA --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeywords(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runKeywords(opts *RootOptions, deckPath string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	setup, err := opts.newParseSetup(cmd, formatter)
	if err != nil {
		return err
	}
	state, err := parseDeckFile(formatter, deckPath, setup.options)
	if err != nil {
		return err
	}

	result, err := summarizeKeywords(state)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	renderKeywordTable(cmd.OutOrStdout(), state, result.Keywords)
	return nil
}

func summarizeKeywords(state *eclipse.State) (KeywordsResult, error) {
	result := KeywordsResult{
		Title:    state.Title(),
		Records:  state.Deck().Size(),
		Keywords: make([]KeywordSummary, 0, state.NumKeywords()),
	}
	for _, name := range state.Keywords() {
		v, err := state.Get(name)
		if err != nil {
			return KeywordsResult{}, err
		}
		digest, err := state.KeywordDigest(name)
		if err != nil {
			return KeywordsResult{}, err
		}
		result.Keywords = append(result.Keywords, KeywordSummary{
			Keyword:     name,
			Kind:        v.Kind(),
			Entries:     v.Len(),
			Occurrences: state.Deck().Count(name),
			Digest:      digest,
		})
	}
	return result, nil
}

func renderKeywordTable(w io.Writer, state *eclipse.State, keywords []KeywordSummary) {
	fmt.Fprintln(w, state)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Keyword", "Kind", "Entries", "Occurrences"})
	for _, k := range keywords {
		t.AppendRow(table.Row{k.Keyword, k.Kind, k.Entries, k.Occurrences})
	}
	t.Render()

	fmt.Fprintf(w, "(%d keywords)\n", len(keywords))
}
