package server

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultWatchDebounce = 500 * time.Millisecond

// configWatcher calls reload when the config file is written or replaced.
// Bursts of events are collapsed into one reload after the debounce
// interval.
type configWatcher struct {
	path     string
	reload   func() error
	logger   *slog.Logger
	debounce time.Duration
}

func newConfigWatcher(path string, reload func() error, logger *slog.Logger) *configWatcher {
	return &configWatcher{
		path:     filepath.Clean(path),
		reload:   reload,
		logger:   logger,
		debounce: defaultWatchDebounce,
	}
}

// Run watches until ctx is cancelled. A failed reload is logged and the
// previous configuration stays in place.
func (w *configWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.logger.Info("watching config file", "config_path", w.path)

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
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
			if filepath.Clean(event.Name) != w.path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("config watcher error", "error", err)

		case <-fire:
			if err := w.reload(); err != nil {
				w.logger.Error("failed to reload changed config", "config_path", w.path, "error", err)
				continue
			}
			w.logger.Info("reloaded changed config", "config_path", w.path)
		}
	}
}
