package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"github.com/hatomachi/ocalc/internal/cli/output"
	"github.com/hatomachi/ocalc/internal/docfile"
	"github.com/hatomachi/ocalc/internal/engine"
)

const editPrompt = "ocalc> "

// NewEditCommand creates the edit command.
func NewEditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <file>",
		Short: "Edit a document interactively",
		Long: `Start an interactive session on a document.

Each line is an edit of the form "<kind> key=value ..." and is saved
immediately. Quote values that contain spaces:

  set_formula column=Total "formula={Price} * {Qty}"

Type .help for session commands.`,
		Example:           `  ocalc edit invoice.ocalc`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: documentCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args[0])
		},
	}

	cmd.Flags().String("history-file", "", "Line history file (overrides editor.history_file)")

	return cmd
}

func runEdit(cmd *cobra.Command, path string) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	if _, err := docfile.Load(path); err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          editPrompt,
		HistoryFile:     cc.Cfg.GetEditorConfig().HistoryFile,
		AutoComplete:    newKindCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize editor: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ocalc editor (%s)\n", path)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	s := &editSession{path: path, logger: cc.Logger, renderer: cc.Renderer}
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if s.handleLine(ctx, line) {
			break
		}
	}
	return nil
}

// editSession executes editor lines against one document file.
type editSession struct {
	path     string
	logger   *slog.Logger
	renderer *output.Renderer
}

// handleLine runs one input line and reports whether the session should end.
func (s *editSession) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false
	}
	if strings.HasPrefix(line, ".") {
		return s.handleDotCommand(line)
	}

	if err := s.apply(ctx, line); err != nil {
		s.renderer.Error(err.Error())
	}
	return false
}

func (s *editSession) apply(ctx context.Context, line string) error {
	words, err := splitWords(line)
	if err != nil {
		return err
	}
	params, err := parseParams(words[1:])
	if err != nil {
		return err
	}
	op, err := engine.Decode(words[0], params)
	if err != nil {
		return err
	}

	res, err := applyToFile(ctx, s.path, s.logger, op)
	if err != nil {
		return err
	}
	if !res.Changed {
		s.renderer.Muted("no change")
		return nil
	}
	return s.renderer.Document(documentTitle(s.path), res.Raw, res.Document)
}

func (s *editSession) handleDotCommand(line string) bool {
	command := strings.ToLower(strings.Fields(line)[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printEditHelp(s.renderer.Writer())

	case ".kinds":
		for _, kind := range engine.Kinds() {
			s.renderer.Println(kind)
		}

	case ".show", ".source":
		raw, err := docfile.Load(s.path)
		if err != nil {
			s.renderer.Error(err.Error())
			return false
		}
		r := s.renderer
		if command == ".source" {
			r = output.NewRendererWithTTY(r.Writer(), io.Discard, r.IsTTY(), output.ModeRaw)
		}
		state := engine.New(engine.Config{Logger: s.logger}).Open(raw)
		if err := r.Document(documentTitle(s.path), state.Raw, state.Document); err != nil {
			s.renderer.Error(err.Error())
		}

	default:
		s.renderer.Error(fmt.Sprintf("unknown command: %s (type .help for commands)", command))
	}
	return false
}

func printEditHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .show           Show the document
  .source         Show the stored document text
  .kinds          List edit kinds
  .quit / .exit   Exit the editor

Edits:
  <kind> key=value ...   e.g. edit_cell row=0 column=Qty value=3
  Run "ocalc apply --help" for the parameters of each kind.
`
	_, _ = fmt.Fprintln(w, help)
}

// newKindCompleter creates a readline completer for edit kinds and dot commands.
func newKindCompleter() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, kind := range engine.Kinds() {
		items = append(items, readline.PcItem(kind))
	}
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".show"),
		readline.PcItem(".source"),
		readline.PcItem(".kinds"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	return readline.NewPrefixCompleter(items...)
}

// splitWords splits a line into shell-style words. Quotes group words and
// are removed; a backslash escapes the next character.
func splitWords(line string) ([]string, error) {
	words, err := shlex.Split(line)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, errors.New("empty command")
	}
	return words, nil
}
