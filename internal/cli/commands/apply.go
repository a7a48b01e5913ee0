package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hatomachi/ocalc/internal/cli/output"
	"github.com/hatomachi/ocalc/internal/engine"
)

// ApplyOptions holds options for the apply command.
type ApplyOptions struct {
	Quiet bool
}

// NewApplyCommand creates the apply command.
func NewApplyCommand() *cobra.Command {
	opts := &ApplyOptions{}

	cmd := &cobra.Command{
		Use:   "apply <file> <kind> [key=value...]",
		Short: "Apply an edit to a document",
		Long: `Apply one edit to a document, recompute formulas and totals, and save it.

Edits that are invalid or change nothing leave the file untouched.

Kinds and their parameters:
  rename_column  old=<name> new=<name>
  add_column     anchor=<name> side=left|right
  delete_column  name=<name>
  move_column    from=<index> to=<index>
  set_formula    column=<name> formula=<expr>   (empty formula clears it)
  toggle_total   column=<name>
  set_total_row  visible=true|false
  add_row        at=<index>
  delete_row     index=<index>
  move_row       from=<index> to=<index>
  edit_cell      row=<index> column=<name> value=<text>
  recalculate`,
		Example: `  ocalc apply invoice.ocalc rename_column old=Price new=Cost
  ocalc apply invoice.ocalc set_formula column=Total 'formula={Cost} * {Qty}'
  ocalc apply invoice.ocalc edit_cell row=0 column=Qty value=4`,
		Args: cobra.MinimumNArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			switch len(args) {
			case 0:
				return documentCompletion(cmd, args, toComplete)
			case 1:
				return kindCompletion(cmd, args, toComplete)
			default:
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, args[0], args[1], args[2:], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Do not print the resulting document")

	return cmd
}

func runApply(cmd *cobra.Command, path, kind string, paramArgs []string, opts *ApplyOptions) error {
	cc := NewCommandContext(cmd)

	params, err := parseParams(paramArgs)
	if err != nil {
		return err
	}
	op, err := engine.Decode(kind, params)
	if err != nil {
		return err
	}

	res, err := applyToFile(cmd.Context(), path, cc.Logger, op)
	if err != nil {
		return err
	}
	reportResult(cc.Renderer, path, kind, res)

	if opts.Quiet {
		return nil
	}
	return cc.Renderer.Document(documentTitle(path), res.Raw, res.Document)
}

func reportResult(r *output.Renderer, path, kind string, res engine.Result) {
	if res.Changed {
		r.Success(fmt.Sprintf("%s: applied %s", path, kind))
		return
	}
	r.Muted(fmt.Sprintf("%s: %s changed nothing", path, kind))
}
