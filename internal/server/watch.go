package server

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// newWatcher watches the directories of all documents. Directories are
// watched rather than files because saves replace the file by renaming.
func (s *Server) newWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dirs := make(map[string]struct{})
	for _, sess := range s.sessions {
		dirs[filepath.Dir(sess.path)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}
	return watcher, nil
}

// runWatcher reloads documents changed on disk until ctx is done.
func (s *Server) runWatcher(ctx context.Context, watcher *fsnotify.Watcher) error {
	defer func() { _ = watcher.Close() }()

	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			sess, tracked := s.byPath[filepath.Clean(event.Name)]
			if !tracked {
				continue
			}

			// Debounce
			if t, ok := timers[sess.path]; ok {
				t.Stop()
			}
			timers[sess.path] = time.AfterFunc(reloadDebounce, func() {
				changed, err := s.reload(sess)
				if err != nil {
					s.logger.Error("reload failed", "path", sess.path, "error", err)
					return
				}
				if changed {
					s.logger.Info("document changed on disk", "id", sess.id, "path", sess.path)
					s.notifier.Broadcast(sess.id)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}
