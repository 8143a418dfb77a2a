package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/ecldeck/pkg/ir"
)

// NewRegistryCommand creates the registry command.
func NewRegistryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "List the keywords the parser recognizes",
		Long: `List the active keyword registry: the built-in keywords plus any
keywords added or replaced by the --config file.

Examples:
  ecldeck registry
  ecldeck registry --config ecldeck.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegistry(rootOpts, cmd)
		},
	}

	return cmd
}

func runRegistry(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	cfg, err := opts.loadConfig(formatter)
	if err != nil {
		return err
	}
	reg, err := cfg.Registry(nil)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}

	specs := reg.Specs()
	if opts.Format == "json" {
		return formatter.Success(specs)
	}

	w := cmd.OutOrStdout()
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Keyword", "Kind", "Arity", "Terminator", "Count", "Description"})
	for _, s := range specs {
		count := ""
		if s.Terminator == ir.TermCount {
			count = fmt.Sprint(s.Count)
		}
		t.AppendRow(table.Row{s.Name, s.Kind, s.Arity, s.Terminator, count, s.Description})
	}
	t.Render()

	fmt.Fprintf(w, "(%d keywords)\n", reg.Len())
	return nil
}
