package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reloader watches the settings overlay file and reloads settings when it
// changes.
type Reloader struct {
	watcher  *fsnotify.Watcher
	settings *SettingsService
	logger   *slog.Logger
	path     string
	debounce time.Duration
}

// NewReloader creates a watcher for path. The parent directory is watched so
// that editors which replace the file by rename are noticed.
func NewReloader(settings *SettingsService, path string, debounce time.Duration, logger *slog.Logger) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("resolving %q: %w", path, err)
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %q: %w", filepath.Dir(abs), err)
	}

	return &Reloader{
		watcher:  watcher,
		settings: settings,
		logger:   logger,
		path:     abs,
		debounce: debounce,
	}, nil
}

// Run watches for changes until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != r.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(r.debounce, func() {
				if _, err := r.settings.Reload(ctx); err != nil {
					r.logger.Warn("Hot reload failed", "path", r.path, "error", err)
				}
			})

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("File watcher error", "error", err)
		}
	}
}
