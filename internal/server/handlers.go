package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/hatomachi/ocalc/internal/docfile"
	"github.com/hatomachi/ocalc/internal/editor"
	"github.com/hatomachi/ocalc/internal/engine"
)

// DocumentSummary is an entry of the document list.
type DocumentSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	Columns int    `json:"columns"`
	Rows    int    `json:"rows"`
	// Subscribers is the number of open event streams.
	Subscribers int `json:"subscribers"`
}

// DocumentResponse is the full state of one document.
type DocumentResponse struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	engine.State
}

// OperationRequest is the body of an operation post.
type OperationRequest struct {
	Kind   string         `json:"kind"`
	Params map[string]any `json:"params"`
}

// OperationResponse is the outcome of an operation post.
type OperationResponse struct {
	ID string `json:"id"`
	engine.Result
}

func (s *Server) routes(r chi.Router) {
	r.Route("/api/documents", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Post("/operations", s.handleOperation)
			r.Get("/events", s.handleEvents)
		})
	})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	out := make([]DocumentSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sess.mu.Lock()
		state := sess.engine.Current()
		sess.mu.Unlock()

		out = append(out, DocumentSummary{
			ID:      sess.id,
			Name:    filepath.Base(sess.path),
			Path:    sess.path,
			Columns: len(state.Document.Columns),
			Rows:    len(state.Document.Rows),

			Subscribers: s.notifier.Listeners(sess.id),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := s.byID[id]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("document %q not found", id))
	}
	return sess, ok
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	state := sess.engine.Current()
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, DocumentResponse{ID: sess.id, Path: sess.path, State: state})
}

func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req OperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	op, err := engine.Decode(req.Kind, req.Params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess.mu.Lock()
	res, reloaded, err := s.apply(r, sess, req.Kind, op)
	sess.mu.Unlock()
	if err != nil {
		s.logger.Error("operation failed", "id", sess.id, "kind", req.Kind, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if res.Changed || reloaded {
		s.notifier.Broadcast(sess.id)
	}
	writeJSON(w, http.StatusOK, OperationResponse{ID: sess.id, Result: res})
}

// apply runs op and saves the result under the file lock. The file is
// re-read under the lock first so edits made since the last load are kept
// even when the watcher is off. reloaded reports whether that re-read
// replaced the session state. The caller holds sess.mu.
func (s *Server) apply(r *http.Request, sess *session, kind string, op editor.Operation) (res engine.Result, reloaded bool, err error) {
	unlock, err := docfile.Lock(r.Context(), sess.path)
	if err != nil {
		return engine.Result{}, false, err
	}
	defer unlock()

	raw, err := docfile.Load(sess.path)
	if err != nil {
		return engine.Result{}, false, err
	}
	if raw != sess.engine.Current().Raw {
		sess.engine.Open(raw)
		reloaded = true
		s.logger.Debug("reloaded document before operation", "id", sess.id)
	}

	before := sess.engine.Current()
	res, err = sess.engine.Apply(op)
	if err != nil {
		return engine.Result{}, reloaded, err
	}
	if !res.Changed {
		return res, reloaded, nil
	}
	if err := docfile.Save(sess.path, res.Raw); err != nil {
		// Roll back to the saved text.
		sess.engine.Open(before.Raw)
		return engine.Result{}, reloaded, err
	}
	s.logger.Info("applied operation", "id", sess.id, "kind", kind)
	return res, reloaded, nil
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ch := s.notifier.Subscribe(sess.id)
	defer s.notifier.Unsubscribe(sess.id, ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	_, _ = fmt.Fprintf(w, "event: connected\ndata: %s\n\n", sess.id)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch:
			_, _ = fmt.Fprintf(w, "event: changed\ndata: %s\n\n", sess.id)
			flusher.Flush()
		}
	}
}

// writeJSON encodes v as the JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
