package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the store whenever prompts.json is replaced or written by
// another process. It returns once the watcher is running; the watcher
// stops when ctx is done.
func (s *FileStore) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory, not the file: writeFile renames over it.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch store dir: %w", err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				if err := s.Reload(); err != nil {
					s.logger.Warn("store reload failed", "path", s.path, "error", err)
					continue
				}
				s.logger.Debug("store reloaded", "path", s.path, "prompts", s.Len())
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("store watcher error", "error", err)
			}
		}
	}()

	return nil
}
