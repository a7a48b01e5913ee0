package commands

import (
	"github.com/spf13/cobra"

	"github.com/hatomachi/ocalc/internal/editor"
)

// NewRecalcCommand creates the recalc command.
func NewRecalcCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recalc <file>...",
		Short: "Recompute formulas and totals",
		Long: `Recompute every formula column and the cached totals of each document
and save the result. Use it after editing a file by hand.`,
		Example:           `  ocalc recalc invoice.ocalc budget.ocalc`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: documentCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			for _, path := range args {
				res, err := applyToFile(cmd.Context(), path, cc.Logger, editor.Recalculate{})
				if err != nil {
					return err
				}
				reportResult(cc.Renderer, path, string(editor.KindRecalculate), res)
			}
			return nil
		},
	}
}
