package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/ecldeck/internal/config"
	"github.com/roach88/ecldeck/pkg/eclipse"
	"github.com/roach88/ecldeck/pkg/registry"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // optional CUE config file
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ecldeck CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ecldeck",
		Short: "ecldeck - ECLIPSE deck parser",
		Long: `Parse ECLIPSE reservoir simulation input decks into a typed,
queryable state and keep an audit log of parse runs.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "CUE config file with parse policies and extra keywords")

	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewKeywordsCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRegistryCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newFormatter returns the formatter for cmd. Verbose output goes to stderr
// so JSON on stdout stays parseable.
func (o *RootOptions) newFormatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// logger returns the logger handed to the library: text on w, Debug level
// when --verbose is set.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig returns the --config file, or config.Default() when none was
// given.
func (o *RootOptions) loadConfig(f *OutputFormatter) (*config.Config, error) {
	if o.Config == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	f.VerboseLog("Loaded config %s (%d extra keyword(s))", o.Config, len(cfg.Keywords))
	return cfg, nil
}

// parseSetup is what a parsing command needs from the global flags.
type parseSetup struct {
	registry    *registry.Registry
	options     []eclipse.Option
	concurrency int // 0 means GOMAXPROCS
}

// newParseSetup builds the registry and eclipse options for cmd from the
// config file. The command's own overrides are applied last.
func (o *RootOptions) newParseSetup(cmd *cobra.Command, f *OutputFormatter, overrides ...eclipse.Option) (*parseSetup, error) {
	cfg, err := o.loadConfig(f)
	if err != nil {
		return nil, err
	}
	reg, err := cfg.Registry(nil)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	opts = append(opts, eclipse.WithLogger(o.logger(cmd.ErrOrStderr())))
	return &parseSetup{
		registry:    reg,
		options:     append(opts, overrides...),
		concurrency: cfg.Parse.Concurrency,
	}, nil
}
