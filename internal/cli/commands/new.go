package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hatomachi/ocalc/internal/docfile"
	"github.com/hatomachi/ocalc/internal/document"
)

// NewOptions holds options for the new command.
type NewOptions struct {
	Columns []string
}

// NewNewCommand creates the new command.
func NewNewCommand() *cobra.Command {
	opts := &NewOptions{}

	cmd := &cobra.Command{
		Use:   "new [file]",
		Short: "Create a new document",
		Long: `Create a new document file.

Without a file name the first free "Untitled.ocalc", "Untitled 1.ocalc", ...
in the current directory is used. The .ocalc extension is added when missing.`,
		Example: `  ocalc new
  ocalc new budget
  ocalc new invoice.ocalc --columns Item,Price,Qty`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(cmd, args, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "Initial column names (comma-separated)")

	return cmd
}

func runNew(cmd *cobra.Command, args []string, opts *NewOptions) error {
	cc := NewCommandContext(cmd)

	path := docfile.NextUntitled(".")
	if len(args) == 1 {
		path = args[0]
		if filepath.Ext(path) != docfile.Extension {
			path += docfile.Extension
		}
	}

	if err := validateColumns(opts.Columns); err != nil {
		return err
	}

	raw := docfile.Template
	if len(opts.Columns) > 0 {
		d := document.Parse(docfile.Template)
		d.Columns = opts.Columns
		d.Rows = []document.Row{document.NewRow(d.Columns)}
		raw = document.Serialize(d)
	}

	if err := docfile.Create(path, raw); err != nil {
		return err
	}
	cc.Logger.Debug("created document", "path", path)
	cc.Renderer.Success(fmt.Sprintf("Created %s", path))
	return nil
}

// validateColumns rejects blank and repeated column names.
func validateColumns(columns []string) error {
	seen := make(map[string]bool, len(columns))
	for _, name := range columns {
		if strings.TrimSpace(name) == "" {
			return errors.New("empty column name")
		}
		if seen[name] {
			return fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = true
	}
	return nil
}
