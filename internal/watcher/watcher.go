// Package watcher reacts to external edits of the settings file.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// SettingsWatcher calls onChange when the settings file is written or
// recreated. The parent directory is what fsnotify actually watches; editors
// that replace files via rename would otherwise drop the watch.
type SettingsWatcher struct {
	settingsPath string
	parentPath   string
	onChange     func()
	watcher      *fsnotify.Watcher
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.Mutex
	running      bool
	debounce     time.Duration
}

// New creates a watcher for the settings file.
func New(settingsPath string, onChange func()) (*SettingsWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &SettingsWatcher{
		settingsPath: settingsPath,
		parentPath:   filepath.Dir(settingsPath),
		onChange:     onChange,
		watcher:      fsw,
		ctx:          ctx,
		cancel:       cancel,
		debounce:     250 * time.Millisecond,
	}, nil
}

// Start begins watching for settings changes.
func (w *SettingsWatcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addWatch(); err != nil {
		log.Warn().Err(err).Str("path", w.parentPath).Msg("Failed to add settings watch")
	}

	go w.watchLoop()
	return nil
}

// Stop stops the watcher.
func (w *SettingsWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	w.cancel()
	return w.watcher.Close()
}

func (w *SettingsWatcher) addWatch() error {
	if _, err := os.Stat(w.parentPath); os.IsNotExist(err) {
		return err
	}
	return w.watcher.Add(w.parentPath)
}

// watchLoop coalesces bursts of write events into a single onChange call.
// Editors commonly emit several events per save.
func (w *SettingsWatcher) watchLoop() {
	var debounceTimer *time.Timer

	for {
		select {
		case <-w.ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != filepath.Clean(w.settingsPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			log.Debug().Str("path", w.settingsPath).Str("op", event.Op.String()).Msg("Settings file changed")
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.fireChange)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Settings watcher error")
		}
	}
}

func (w *SettingsWatcher) fireChange() {
	log.Info().Str("path", w.settingsPath).Msg("Settings changed")
	if w.onChange != nil {
		w.onChange()
	}
	// A rename-based save may have replaced the inode; re-add to be safe.
	_ = w.addWatch()
}
