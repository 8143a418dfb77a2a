package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/ecldeck/pkg/eclipse"
	"github.com/roach88/ecldeck/pkg/ir"
	"github.com/roach88/ecldeck/pkg/parser"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Values bool // print the keyword's values
}

// InspectResult is the JSON payload of the inspect command.
type InspectResult struct {
	Title   string        `json:"title"`
	Keyword string        `json:"keyword"`
	Kind    ir.ValueKind  `json:"kind"`
	Entries int           `json:"entries"`
	Values  ir.TypedArray `json:"values,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <deck> <keyword>",
		Short: "Report how many entries a keyword has",
		Long: `Parse a deck and report the number of entries of one keyword.

A keyword that is not found is retried in upper case. The command exits
with status 1 when the deck does not have the keyword.

Examples:
  ecldeck inspect NORNE.DATA PORO
  ecldeck inspect NORNE.DATA ntg --values
  ecldeck inspect NORNE.DATA ACTNUM --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Values, "values", false, "print the keyword's values")

	return cmd
}

func runInspect(opts *InspectOptions, deckPath, keyword string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	setup, err := opts.newParseSetup(cmd, formatter)
	if err != nil {
		return err
	}
	state, err := parseDeckFile(formatter, deckPath, setup.options)
	if err != nil {
		return err
	}

	name, ok := lookupKeyword(state, keyword)
	if !ok {
		message := fmt.Sprintf("Does not have keyword %s", keyword)
		if opts.Format == "json" {
			return formatter.Fail(ExitFailure, ErrCodeKeywordMissing, message, map[string]string{"title": state.Title()})
		}
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, state)
		fmt.Fprintln(w, message)
		return NewExitError(ExitFailure, ErrCodeKeywordMissing+": "+message)
	}
	if name != keyword {
		formatter.VerboseLog("Keyword %s not found, using %s", keyword, name)
	}

	values, err := state.Get(name)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeKeywordMissing, err.Error(), nil)
	}

	if opts.Format == "json" {
		result := InspectResult{
			Title:   state.Title(),
			Keyword: name,
			Kind:    values.Kind(),
			Entries: values.Len(),
		}
		if opts.Values {
			result.Values = values
		}
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, state)
	fmt.Fprintf(w, "Keyword %s has %d entries\n", name, values.Len())
	if opts.Values {
		spec, ok := setup.registry.Lookup(name)
		if !ok {
			spec = ir.KeywordSpec{Name: name, Kind: values.Kind(), Arity: ir.ArityArray, Terminator: ir.TermSlash}
		}
		fmt.Fprint(w, ir.RenderRecord(spec, ir.KeywordRecord{Name: name, Kind: values.Kind(), Values: values}))
	}
	return nil
}

// lookupKeyword finds keyword in state, retrying with its upper-case form.
// The returned name is the one found.
func lookupKeyword(state *eclipse.State, keyword string) (string, bool) {
	if state.Contains(keyword) {
		return keyword, true
	}
	// A Caser keeps state between calls, so each lookup gets its own.
	upper := cases.Upper(language.Und).String(keyword)
	if upper != keyword && state.Contains(upper) {
		return upper, true
	}
	return keyword, false
}

// parseDeckFile parses the deck at path, reporting a missing file or a parse
// failure through f.
func parseDeckFile(f *OutputFormatter, path string, opts []eclipse.Option) (*eclipse.State, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("deck not found: %s", path), nil)
		}
		return nil, f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	state, err := eclipse.ParseDeck(path, opts...)
	if err != nil {
		return nil, f.Fail(ExitFailure, ErrCodeParse, err.Error(), parseErrorDetails(err))
	}
	return state, nil
}

// parseErrorDetails returns the located keyword error behind err, if any,
// for the JSON error details.
func parseErrorDetails(err error) any {
	var ke *parser.KeywordError
	if errors.As(err, &ke) {
		return ke
	}
	var be *eclipse.StateBuildError
	if errors.As(err, &be) {
		return map[string]any{"keyword": be.Keyword, "records": be.Records}
	}
	return nil
}
