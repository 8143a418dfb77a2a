package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/ecldeck/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Deck     string // only runs of this deck
	Run      string // show one run with its diagnostics
	Latest   bool   // show the latest run of --deck
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded parse runs",
		Long: `List the parse runs recorded in an audit database by
'ecldeck validate --db'.

Examples:
  ecldeck history --db audit.db
  ecldeck history --db audit.db --deck NORNE.DATA --latest
  ecldeck history --db audit.db --run 0190f3a2-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite audit database (required)")
	cmd.Flags().StringVar(&opts.Deck, "deck", "", "only show runs of this deck")
	cmd.Flags().StringVar(&opts.Run, "run", "", "show a single run by ID")
	cmd.Flags().BoolVar(&opts.Latest, "latest", false, "show only the latest run of --deck")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	if opts.Latest && opts.Deck == "" {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "--latest requires --deck", nil)
	}
	// Opening would create an empty database; a typo should not.
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to open database: %v", err), nil)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	runs, err := selectRuns(ctx, st, opts)
	if errors.Is(err, store.ErrRunNotFound) {
		return formatter.Fail(ExitFailure, ErrCodeNotFound, err.Error(), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}

	if opts.Format == "json" {
		return formatter.Success(runs)
	}

	w := cmd.OutOrStdout()
	renderRunTable(w, runs)
	if opts.Run != "" || opts.Latest {
		for _, run := range runs {
			renderRunDetail(w, run)
		}
	}
	return nil
}

func selectRuns(ctx context.Context, st *store.Store, opts *HistoryOptions) ([]store.Run, error) {
	switch {
	case opts.Run != "":
		run, err := st.ReadRun(ctx, opts.Run)
		if err != nil {
			return nil, err
		}
		return []store.Run{run}, nil
	case opts.Latest:
		run, ok, err := st.LatestRun(ctx, opts.Deck)
		if err != nil {
			return nil, err
		}
		if !ok {
			return []store.Run{}, nil
		}
		return []store.Run{run}, nil
	default:
		return st.ReadRuns(ctx, opts.Deck)
	}
}

func renderRunTable(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "(0 runs)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Seq", "Run", "Deck", "Status", "Title", "Keywords", "Records", "Diagnostics", "Parsed At"})
	for _, r := range runs {
		status := string(r.Status)
		if r.ErrorCode != "" {
			status += " (" + r.ErrorCode + ")"
		}
		t.AppendRow(table.Row{
			r.Seq, r.ID, r.Deck, status, r.Title, r.Keywords, r.Records,
			len(r.Diagnostics), r.ParsedAt.UTC().Format(time.RFC3339),
		})
	}
	t.Render()
	fmt.Fprintf(w, "(%d runs)\n", len(runs))
}

func renderRunDetail(w io.Writer, run store.Run) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run %s\n", run.ID)
	if run.Digest != "" {
		fmt.Fprintf(w, "  digest: %s\n", run.Digest)
	}
	if run.ErrorMessage != "" {
		fmt.Fprintf(w, "  error: %s\n", run.ErrorMessage)
	}
	fmt.Fprintf(w, "  tool %s, format %s\n", run.ToolVersion, run.FormatVersion)
	for _, d := range run.Diagnostics {
		fmt.Fprintf(w, "  %s %s line %d, column %d: %s\n", d.Severity, d.Code, d.Line, d.Column, d.Message)
	}
}
