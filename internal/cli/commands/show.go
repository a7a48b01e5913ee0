package commands

import (
	"github.com/spf13/cobra"

	"github.com/hatomachi/ocalc/internal/cli/output"
	"github.com/hatomachi/ocalc/internal/docfile"
	"github.com/hatomachi/ocalc/internal/engine"
)

// ShowOptions holds options for the show command.
type ShowOptions struct {
	Source bool
}

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	opts := &ShowOptions{}

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Display a document",
		Long: `Display a document as stored, including its cached totals.

The table is rendered according to --output. Formula columns are marked
with (fx); the total row shows "-" for columns that are not totaled.
Use --source to print the stored text instead.`,
		Example: `  ocalc show invoice.ocalc
  ocalc show invoice.ocalc -o json
  ocalc show invoice.ocalc --source`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: documentCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Source, "source", false, "Print the stored document text")

	return cmd
}

func runShow(cmd *cobra.Command, path string, opts *ShowOptions) error {
	cc := NewCommandContext(cmd)

	raw, err := docfile.Load(path)
	if err != nil {
		return err
	}
	if opts.Source {
		cc.Renderer = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeRaw)
	}

	state := engine.New(engine.Config{Logger: cc.Logger}).Open(raw)
	return cc.Renderer.Document(documentTitle(path), state.Raw, state.Document)
}
