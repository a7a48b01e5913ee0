package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hatomachi/ocalc/internal/cli/config"
	"github.com/hatomachi/ocalc/internal/cli/output"
	"github.com/hatomachi/ocalc/internal/docfile"
	"github.com/hatomachi/ocalc/internal/editor"
	"github.com/hatomachi/ocalc/internal/engine"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration, or defaults when none was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		OutputFormat: config.DefaultOutput,
		LogLevel:     config.DefaultLogLevel,
		LogFormat:    config.DefaultLogFormat,
	}
}

// documentTitle is the file name of path without its extension.
func documentTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parseParams turns key=value arguments into operation params.
func parseParams(args []string) (map[string]any, error) {
	params := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected key=value)", arg)
		}
		params[key] = value
	}
	return params, nil
}

// applyToFile applies op to the document at path in a locked
// read-modify-write cycle and saves it when it changed.
func applyToFile(ctx context.Context, path string, logger *slog.Logger, op editor.Operation) (engine.Result, error) {
	var res engine.Result
	err := docfile.Update(ctx, path, func(raw string) (string, bool, error) {
		eng := engine.New(engine.Config{Logger: logger})
		eng.Open(raw)

		var err error
		res, err = eng.Apply(op)
		if err != nil {
			return "", false, err
		}
		return res.Raw, res.Changed, nil
	})
	if err != nil {
		return engine.Result{}, err
	}
	return res, nil
}

// kindCompletion completes operation kinds.
func kindCompletion(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return engine.Kinds(), cobra.ShellCompDirectiveNoFileComp
}

// documentCompletion completes document files.
func documentCompletion(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{strings.TrimPrefix(docfile.Extension, ".")}, cobra.ShellCompDirectiveFilterFileExt
}
