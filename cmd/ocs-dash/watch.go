package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"ocs/pkg/config"
)

// configFileChangedMsg is sent when the config file was written, created,
// renamed or removed.
type configFileChangedMsg struct{}

// configReloadedMsg carries the result of re-reading the config.
type configReloadedMsg struct {
	cfg config.Config
	err error
}

// configWatcher watches the config file. The parent directory is watched
// rather than the file so editors that replace the file are seen.
type configWatcher struct {
	watcher *fsnotify.Watcher
	file    string
	logger  *slog.Logger
}

// watchConfigFile creates a watcher for path. Returns nil if the
// directory doesn't exist or watcher creation fails (the dashboard then
// runs without hot reload).
func watchConfigFile(path string, logger *slog.Logger) *configWatcher {
	if path == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("fsnotify: failed to create watcher, config reload disabled", "error", err)
		return nil
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close() // Best effort close
		logger.Warn("fsnotify: failed to watch config dir, config reload disabled", "dir", dir, "error", err)
		return nil
	}
	return &configWatcher{watcher: watcher, file: filepath.Clean(path), logger: logger}
}

// Next returns a tea.Cmd that blocks until the config file changes and
// then returns configFileChangedMsg (with debouncing to collapse the
// burst of events a single save produces). It returns nil once the
// watcher is closed.
func (cw *configWatcher) Next() tea.Cmd {
	if cw == nil {
		return nil
	}
	return func() tea.Msg {
		debounceTimer := newDebounceTimer()
		defer debounceTimer.Stop()

		for {
			select {
			case event, ok := <-cw.watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != cw.file {
					continue
				}
				resetDebounceTimer(debounceTimer)

			case <-debounceTimer.C:
				return configFileChangedMsg{}

			case err, ok := <-cw.watcher.Errors:
				if !ok {
					return nil
				}
				cw.logger.Warn("fsnotify: watcher error", "error", err)
			}
		}
	}
}

// Close stops the watcher; a pending Next returns nil.
func (cw *configWatcher) Close() {
	if cw == nil {
		return
	}
	_ = cw.watcher.Close()
}

// newDebounceTimer creates a new timer for debouncing file system events.
func newDebounceTimer() *time.Timer {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	return timer
}

// resetDebounceTimer resets the debounce timer to prevent rapid-fire events.
func resetDebounceTimer(timer *time.Timer) {
	const debounceDuration = 100 * time.Millisecond
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(debounceDuration)
}
