package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/ecldeck/internal/store"
	"github.com/roach88/ecldeck/pkg/eclipse"
	"github.com/roach88/ecldeck/pkg/parser"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Database   string // audit database; empty disables recording
	BestEffort bool   // drop failing records instead of aborting

	// IDGenerator and Clock override the recorder defaults (for testing).
	IDGenerator store.IDGenerator
	Clock       store.Clock
}

// DeckResult is the outcome of validating one deck.
type DeckResult struct {
	Deck     string                 `json:"deck"`
	Valid    bool                   `json:"valid"`
	Title    string                 `json:"title,omitempty"`
	Keywords int                    `json:"keywords"`
	Records  int                    `json:"records"`
	Digest   string                 `json:"digest,omitempty"`
	RunID    string                 `json:"run_id,omitempty"`
	Warnings []parser.Warning       `json:"warnings,omitempty"`
	Dropped  []*parser.KeywordError `json:"dropped,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Details  any                    `json:"details,omitempty"`
}

// ValidationResult holds the results of all decks.
type ValidationResult struct {
	Decks  []DeckResult `json:"decks"`
	Valid  int          `json:"valid"`
	Failed int          `json:"failed"`
	Total  int          `json:"total"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return newValidateCommand(&ValidateOptions{RootOptions: rootOpts})
}

func newValidateCommand(opts *ValidateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <deck>...",
		Short: "Parse decks and report diagnostics",
		Long: `Parse one or more decks concurrently and report warnings and errors.

With --db every parse is appended to the audit log in the given SQLite
database, which is created if it does not exist.

Exit codes:
  0 - All decks parsed
  1 - One or more decks failed to parse
  2 - Command error (bad config, unusable database)

Examples:
  ecldeck validate NORNE.DATA
  ecldeck validate decks/*.DATA --db audit.db
  ecldeck validate NORNE.DATA --best-effort --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record runs in this SQLite audit database")
	cmd.Flags().BoolVar(&opts.BestEffort, "best-effort", false, "drop failing keyword records instead of aborting")

	return cmd
}

type deckOutcome struct {
	state *eclipse.State
	err   error
}

func runValidate(opts *ValidateOptions, decks []string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	var overrides []eclipse.Option
	if opts.BestEffort {
		overrides = append(overrides, eclipse.WithErrorPolicy(parser.BestEffort))
	}
	setup, err := opts.newParseSetup(cmd, formatter, overrides...)
	if err != nil {
		return err
	}

	var recorder *store.Recorder
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to open database: %v", err), nil)
		}
		defer st.Close()
		recorder = opts.newRecorder(st, cmd)
		formatter.VerboseLog("Recording runs in %s", opts.Database)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	outcomes := parseAll(ctx, decks, setup)

	result := ValidationResult{
		Decks: make([]DeckResult, 0, len(decks)),
		Total: len(decks),
	}
	// Runs are recorded in argument order so sequence numbers do not depend
	// on scheduling.
	for i, deck := range decks {
		dr, err := deckResult(deck, outcomes[i])
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
		}
		if recorder != nil {
			run, err := recorder.Record(ctx, deck, outcomes[i].state, outcomes[i].err)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to record run: %v", err), nil)
			}
			dr.RunID = run.ID
		}
		if dr.Valid {
			result.Valid++
		} else {
			result.Failed++
		}
		result.Decks = append(result.Decks, dr)
	}

	if opts.Format == "json" {
		return outputValidateJSON(formatter, result)
	}
	return outputValidateText(cmd.OutOrStdout(), result)
}

func (opts *ValidateOptions) newRecorder(st *store.Store, cmd *cobra.Command) *store.Recorder {
	recOpts := []store.RecorderOption{store.WithLogger(opts.logger(cmd.ErrOrStderr()))}
	if opts.IDGenerator != nil {
		recOpts = append(recOpts, store.WithIDGenerator(opts.IDGenerator))
	}
	if opts.Clock != nil {
		recOpts = append(recOpts, store.WithClock(opts.Clock))
	}
	return store.NewRecorder(st, recOpts...)
}

// parseAll parses every deck, bounded by the configured concurrency. Unlike
// eclipse.ParseFiles a failing deck does not stop the others: each outcome
// is kept so all of them can be reported.
func parseAll(ctx context.Context, decks []string, setup *parseSetup) []deckOutcome {
	limit := setup.concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	outcomes := make([]deckOutcome, len(decks))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, deck := range decks {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				outcomes[i] = deckOutcome{err: err}
				return nil
			}
			st, err := eclipse.ParseDeck(deck, setup.options...)
			outcomes[i] = deckOutcome{state: st, err: err}
			return nil
		})
	}
	_ = eg.Wait()
	return outcomes
}

func deckResult(deck string, out deckOutcome) (DeckResult, error) {
	if out.err != nil {
		return DeckResult{
			Deck:    deck,
			Error:   out.err.Error(),
			Details: parseErrorDetails(out.err),
		}, nil
	}

	digest, err := out.state.Digest()
	if err != nil {
		return DeckResult{}, fmt.Errorf("digest %s: %w", deck, err)
	}
	return DeckResult{
		Deck:     deck,
		Valid:    true,
		Title:    out.state.Title(),
		Keywords: out.state.NumKeywords(),
		Records:  out.state.Deck().Size(),
		Digest:   digest,
		Warnings: out.state.Warnings(),
		Dropped:  out.state.Errors(),
	}, nil
}

func outputValidateJSON(f *OutputFormatter, result ValidationResult) error {
	if result.Failed == 0 {
		return f.Success(result)
	}

	message := fmt.Sprintf("%d deck(s) failed to parse", result.Failed)
	if err := f.encode(CLIResponse{
		Status: "error",
		Data:   result,
		Error:  &CLIError{Code: ErrCodeParse, Message: message},
	}); err != nil {
		return err
	}
	return NewExitError(ExitFailure, ErrCodeParse+": "+message)
}

func outputValidateText(w io.Writer, result ValidationResult) error {
	for _, d := range result.Decks {
		if !d.Valid {
			fmt.Fprintf(w, "✗ %s\n", d.Deck)
			fmt.Fprintf(w, "  %s\n", d.Error)
			continue
		}

		fmt.Fprintf(w, "✓ %s (%d keywords, %d records)\n", d.Deck, d.Keywords, d.Records)
		for _, warn := range d.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warn)
		}
		for _, ke := range d.Dropped {
			fmt.Fprintf(w, "  dropped: %s\n", ke)
		}
		if d.RunID != "" {
			fmt.Fprintf(w, "  run %s\n", d.RunID)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Validation Summary: %d valid, %d failed, %d total\n", result.Valid, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d deck(s) failed to parse", ErrCodeParse, result.Failed))
	}

	fmt.Fprintln(w, "✓ All decks valid")
	return nil
}
