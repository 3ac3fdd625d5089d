// Package watch re-runs a callback when source images change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ChangeFunc is called with the changed files once the tree has been quiet
// for the debounce period.
type ChangeFunc func(ctx context.Context, changed []string) error

// Watcher watches directory trees for new or modified *.png files.
type Watcher struct {
	roots    []string
	debounce time.Duration
	onChange ChangeFunc
	logger   *zap.Logger
}

// New creates a watcher over roots. Missing roots are created.
func New(roots []string, debounce time.Duration, logger *zap.Logger, onChange ChangeFunc) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		roots:    roots,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}
}

// Run watches until ctx is done. Callback errors are logged and watching
// continues.
func (w *Watcher) Run(ctx context.Context) (err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close file watcher: %w", closeErr)
		}
	}()

	for _, root := range w.roots {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return fmt.Errorf("create watched directory: %w", err)
		}
		if err := addTree(watcher, root); err != nil {
			return err
		}
	}
	w.logger.Info("Watching for source changes", zap.Strings("roots", w.roots))

	pending := map[string]struct{}{}
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
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, event.Name); err != nil {
						w.logger.Warn("Failed to watch directory", zap.String("dir", event.Name), zap.Error(err))
					}
					continue
				}
			}
			if !isSource(event) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", zap.Error(err))

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			sort.Strings(changed)
			clear(pending)

			w.logger.Info("Sources changed", zap.Int("files", len(changed)))
			if err := w.onChange(ctx, changed); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				w.logger.Error("Processing changed sources failed", zap.Error(err))
			}
		}
	}
}

func isSource(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".png")
}

// addTree watches root and every directory below it.
func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
