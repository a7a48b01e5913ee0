package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hatomachi/ocalc/internal/cli/config"
	"github.com/hatomachi/ocalc/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <file>...",
		Short: "Serve documents over HTTP",
		Long: `Start an HTTP server that exposes the given documents.

Endpoints:
  GET  /api/documents/                   List open documents
  GET  /api/documents/{id}/              Document text and parsed state
  POST /api/documents/{id}/operations    Apply {"kind": ..., "params": {...}}
  GET  /api/documents/{id}/events        Server-sent change events

Every applied edit is saved to the file. With --watch, edits made to the
files by other programs are picked up and announced as well.`,
		Example: `  ocalc serve invoice.ocalc
  ocalc serve *.ocalc --port 9000 --watch=false`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: documentCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, args)
		},
	}

	cmd.Flags().IntP("port", "p", config.DefaultPort, "Port to listen on")
	cmd.Flags().Bool("watch", true, "Reload documents changed on disk")

	return cmd
}

func runServe(cmd *cobra.Command, paths []string) error {
	cc := NewCommandContext(cmd)
	serverCfg := cc.Cfg.GetServerConfig()

	srv, err := server.New(server.Config{
		Paths:  paths,
		Port:   serverCfg.Port,
		Watch:  serverCfg.Watch,
		Logger: cc.Logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cc.Renderer.Success(fmt.Sprintf("Serving %d document(s) at http://localhost:%d", len(paths), serverCfg.Port))
	return srv.Serve(ctx)
}
