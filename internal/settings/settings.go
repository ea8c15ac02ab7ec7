// Package settings holds runtime-tunable site settings backed by a YAML
// file. Unlike the startup config, settings can change while the server
// is running: a watcher reloads the file on write, so toggles like the
// comments switch take effect without a restart.
package settings

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Settings is a point-in-time snapshot of the runtime settings.
type Settings struct {
	// EnableComments gates the paragraph comment API. When false the
	// comment endpoints reject reads and writes.
	EnableComments bool `yaml:"enable_comments"`

	// Announcement, when non-empty, is shown on the publish page.
	Announcement string `yaml:"announcement"`
}

func defaults() Settings {
	return Settings{EnableComments: true}
}

// Store owns the current settings snapshot and the file it came from.
type Store struct {
	path string

	mu      sync.RWMutex
	current Settings
}

// Load reads the settings file at path. A missing file is not an error;
// the store starts with defaults and picks the file up once it appears.
func Load(path string) (*Store, error) {
	s := &Store{path: path, current: defaults()}
	if err := s.reload(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return s, nil
}

// Current returns the latest snapshot. The returned value is a copy.
func (s *Store) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	next := defaults()
	if err := yaml.Unmarshal(data, &next); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return nil
}

// Watch reloads the settings file whenever it changes, until ctx is
// cancelled. The parent directory is watched rather than the file itself
// so that atomic rename-over saves from editors are picked up. Reload
// events are debounced; a parse failure keeps the previous snapshot.
func (s *Store) Watch(ctx context.Context, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("settings: watching", slog.String("path", s.path))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("settings: watcher stopped")
			return nil

		case <-reloadCh:
			if err := s.reload(); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				logger.Warn("settings: reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Info("settings: reloaded",
				slog.Bool("enable_comments", s.Current().EnableComments))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("settings: watcher error", slog.String("error", werr.Error()))
		}
	}
}
