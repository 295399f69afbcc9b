package assets

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// EventCallback is called for asset directory changes. kind is one of
// "asset.added", "asset.removed"; name is the bare asset filename.
type EventCallback func(kind, name string)

// Watch starts an fsnotify watcher on the asset directory and reports asset
// additions and removals until ctx is cancelled. Removals let clients mark
// attachment records whose underlying file is gone.
func Watch(ctx context.Context, dir *Dir, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir.Root()); err != nil {
		return err
	}
	logger.Info("assets: watcher started", slog.String("root", dir.Root()))

	for {
		select {
		case <-ctx.Done():
			logger.Info("assets: watcher stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			// In-progress uploads land under temp names; skip them.
			if strings.HasPrefix(name, ".") {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				logger.Debug("assets: removed", slog.String("name", name))
				if cb != nil {
					cb("asset.removed", name)
				}
			case ev.Op&fsnotify.Create != 0:
				logger.Debug("assets: added", slog.String("name", name))
				if cb != nil {
					cb("asset.added", name)
				}
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("assets: watcher error", slog.String("error", err.Error()))
		}
	}
}
