// Package watch re-runs a callback whenever a file changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDefault is how long the file must stay quiet before the callback runs.
const debounceDefault = 500 * time.Millisecond

// Watcher calls OnChange after each burst of writes to a single file.
type Watcher struct {
	path     string
	onChange func(ctx context.Context) error
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a watcher for path. The directory is watched rather than the
// file so that editors replacing the file by rename are still noticed.
func New(path string, onChange func(ctx context.Context) error) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		debounce: debounceDefault,
		logger:   slog.Default(),
	}
}

// Run invokes fn once, then again after every change to path, until ctx is
// cancelled. Errors from fn are logged and do not stop the watch.
func Run(ctx context.Context, path string, fn func(ctx context.Context) error) error {
	return New(path, fn).Run(ctx)
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.path, err)
	}

	w.fire(ctx)

	// A stopped timer whose channel is drained; armed by Reset on each event.
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug("file changed", "path", w.path, "op", event.Op.String())
				timer.Reset(w.debounce)
			}

		case <-timer.C:
			w.fire(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) fire(ctx context.Context) {
	if err := w.onChange(ctx); err != nil {
		w.logger.Warn("re-run failed", "path", w.path, "error", err)
	}
}
