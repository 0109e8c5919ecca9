// Package watcher watches the artifact directory and reports, after a quiet
// period, which artifacts were written, replaced or removed.
package watcher

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/modelreg/internal/log"
)

// Watcher monitors an artifact directory and emits batches of changed artifact keys.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	ext       string
	debounce  time.Duration
	onChange  chan []string
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	// Dir is the artifact directory to watch.
	Dir string
	// Ext restricts events to keys with this extension, e.g. ".gob". Empty matches all.
	Ext         string
	DebounceDur time.Duration
}

// DefaultConfig returns the watcher defaults for an artifact directory.
// Ext is left empty; callers set it to their artifact format.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:         dir,
		DebounceDur: 500 * time.Millisecond,
	}
}

// New creates a watcher. Call Start to begin watching.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	debounce := cfg.DebounceDur
	if debounce <= 0 {
		debounce = DefaultConfig(cfg.Dir).DebounceDur
	}
	return &Watcher{
		fsWatcher: fsw,
		dir:       cfg.Dir,
		ext:       cfg.Ext,
		debounce:  debounce,
		onChange:  make(chan []string, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the directory.
// The returned channel receives the sorted keys changed since the previous batch.
func (w *Watcher) Start() (<-chan []string, error) {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", w.dir, err)
	}
	go w.loop()
	log.Debug(log.CatWatcher, "watching artifacts", "dir", w.dir, "ext", w.ext)
	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	pending := map[string]struct{}{}

	timerC := func() <-chan time.Time {
		if timer != nil {
			return timer.C
		}
		return nil
	}

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			key, relevant := w.relevantKey(event)
			if !relevant {
				continue
			}
			pending[key] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC():
			if len(pending) == 0 {
				continue
			}
			keys := make([]string, 0, len(pending))
			for k := range pending {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			select {
			case w.onChange <- keys:
				clear(pending)
			default:
				// Consumer is busy; keep accumulating and retry later.
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err, "dir", w.dir)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// relevantKey reports whether the event touches an artifact and returns its key.
func (w *Watcher) relevantKey(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", false
	}
	key := filepath.Base(event.Name)
	if strings.HasPrefix(key, ".") {
		return "", false
	}
	if w.ext != "" && filepath.Ext(key) != w.ext {
		return "", false
	}
	return key, true
}
