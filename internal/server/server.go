// Package server exposes open documents over HTTP.
//
// Each document gets a random id and its own engine. Operations posted to a
// document are applied, saved back to its file and announced to subscribers
// of the document's event stream. With watching enabled, external edits of
// a file are reloaded and announced the same way.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hatomachi/ocalc/internal/docfile"
	"github.com/hatomachi/ocalc/internal/engine"
	"github.com/hatomachi/ocalc/internal/server/notifier"
)

// Config holds configuration for the server.
type Config struct {
	// Paths are the document files to serve.
	Paths []string
	Port  int
	Watch bool
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Server serves a fixed set of documents.
type Server struct {
	port     int
	watch    bool
	logger   *slog.Logger
	notifier *notifier.Notifier

	sessions []*session
	byID     map[string]*session
	byPath   map[string]*session
}

// session is one open document. mu serializes operations, reloads and
// reads of the engine.
type session struct {
	mu     sync.Mutex
	id     string
	path   string
	engine *engine.Engine
}

// New opens every configured document.
func New(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		port:     cfg.Port,
		watch:    cfg.Watch,
		logger:   logger,
		notifier: notifier.New(),
		byID:     make(map[string]*session, len(cfg.Paths)),
		byPath:   make(map[string]*session, len(cfg.Paths)),
	}
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		if _, dup := s.byPath[abs]; dup {
			continue
		}
		raw, err := docfile.Load(abs)
		if err != nil {
			return nil, err
		}

		sess := &session{
			id:     uuid.NewString(),
			path:   abs,
			engine: engine.New(engine.Config{Logger: logger.With("document", filepath.Base(abs))}),
		}
		sess.engine.Open(raw)
		s.sessions = append(s.sessions, sess)
		s.byID[sess.id] = sess
		s.byPath[abs] = sess
		logger.Debug("opened document", "id", sess.id, "path", abs)
	}
	return s, nil
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)
	s.routes(r)
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting server", "addr", fmt.Sprintf("http://localhost:%d", s.port), "documents", len(s.sessions))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start file watcher if enabled
	if s.watch {
		w, err := s.newWatcher()
		if err != nil {
			return fmt.Errorf("failed to watch documents: %w", err)
		}
		eg.Go(func() error {
			return s.runWatcher(egctx, w)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// reload re-reads the file of sess and reports whether its text changed.
func (s *Server) reload(sess *session) (bool, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	raw, err := docfile.Load(sess.path)
	if err != nil {
		return false, err
	}
	if raw == sess.engine.Current().Raw {
		return false, nil
	}
	sess.engine.Open(raw)
	return true, nil
}
