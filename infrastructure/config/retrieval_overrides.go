package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"mnemo-backend/application/retrieval"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// RetrievalOverrides holds the tunable subset of retrieval defaults that
// operators may adjust at runtime through the overrides file.
type RetrievalOverrides struct {
	Default  *retrieval.Configuration `yaml:"default,omitempty"`
	Personal *retrieval.Configuration `yaml:"personal,omitempty"`
}

// RetrievalTuner serves the current retrieval presets, hot reloading them
// from a YAML file when one is configured.
type RetrievalTuner struct {
	mu        sync.RWMutex
	defaults  retrieval.Configuration
	personal  retrieval.Configuration
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	path      string
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewRetrievalTuner builds a tuner. With an empty path the built-in presets
// are served and no watcher starts.
func NewRetrievalTuner(path string, logger *zap.Logger) (*RetrievalTuner, error) {
	t := &RetrievalTuner{
		defaults: retrieval.DefaultConfiguration(),
		personal: retrieval.PersonalFocusConfiguration(),
		logger:   logger,
		path:     path,
		stopCh:   make(chan struct{}),
	}

	if path == "" {
		return t, nil
	}

	if err := t.load(); err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create overrides watcher: %w", err)
	}
	if err := fsWatcher.Add(path); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch overrides file: %w", err)
	}
	t.watcher = fsWatcher
	go t.watchLoop()

	logger.Info("retrieval overrides hot reload enabled", zap.String("file", path))
	return t, nil
}

// Default returns the current balanced preset
func (t *RetrievalTuner) Default() retrieval.Configuration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.defaults
}

// Personal returns the current first-person preset
func (t *RetrievalTuner) Personal() retrieval.Configuration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.personal
}

// Stop shuts the watcher down
func (t *RetrievalTuner) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
		if t.watcher != nil {
			t.watcher.Close()
		}
	})
}

func (t *RetrievalTuner) load() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return fmt.Errorf("read overrides file: %w", err)
	}

	var overrides RetrievalOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parse overrides file: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if overrides.Default != nil {
		t.defaults = *overrides.Default
	}
	if overrides.Personal != nil {
		t.personal = *overrides.Personal
	}
	return nil
}

func (t *RetrievalTuner) watchLoop() {
	var debounce *time.Timer
	const debounceDelay = 500 * time.Millisecond

	for {
		select {
		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				if err := t.load(); err != nil {
					t.logger.Error("retrieval overrides reload failed", zap.Error(err))
					return
				}
				t.logger.Info("retrieval overrides reloaded", zap.String("file", t.path))
			})

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			t.logger.Error("overrides watcher error", zap.Error(err))

		case <-t.stopCh:
			return
		}
	}
}
