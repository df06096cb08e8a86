package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mantonx/seasontracker/internal/logger"
)

// DefaultDebounce is how long WatchFile waits after the last write before reloading.
const DefaultDebounce = 250 * time.Millisecond

// WatchFile reloads the configuration whenever its file changes, until ctx is
// cancelled. The parent directory is watched so editors that replace the file
// by rename are handled. Reload failures are logged and the previous
// configuration is kept.
func (cm *ConfigManager) WatchFile(ctx context.Context, debounce time.Duration) error {
	path := cm.Path()
	if path == "" {
		return fmt.Errorf("no config path set")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	log := logger.Named("config")
	log.Info("watching configuration file", "path", path)

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		target := filepath.Clean(path)

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					timer.Reset(debounce)
				}
				fire = timer.C

			case <-fire:
				fire = nil
				if err := cm.Reload(); err != nil {
					log.Error("configuration reload failed", "path", path, "error", err)
					continue
				}
				log.Info("configuration reloaded", "path", path)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error("file watcher error", "error", err)

			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			}
		}
	}()

	return nil
}

// LogLevelWatcher re-applies the logging section after a reload.
func LogLevelWatcher(oldConfig, newConfig *Config) {
	if oldConfig.Logging == newConfig.Logging {
		return
	}
	logger.Configure(newConfig.Logging.Level, newConfig.Logging.Format)
	logger.Info("logging reconfigured", "level", newConfig.Logging.Level, "format", newConfig.Logging.Format)
}
