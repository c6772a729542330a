// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/rigchat/internal/logger"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// =============================================================================
// WATCHER
// =============================================================================

// Watcher reloads a config file when it changes and publishes the result.
// The parent directory is watched rather than the file, so editors that
// save by rename are still seen.
type Watcher struct {
	path     string
	fs       *fsnotify.Watcher
	debounce time.Duration
	updates  chan *Config
	errs     chan error
	once     sync.Once
	done     chan struct{}
}

// NewWatcher prepares a watcher for path. Call Start to begin.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     abs,
		fs:       fw,
		debounce: debounce,
		updates:  make(chan *Config, 1),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}, nil
}

// Updates receives each successfully reloaded config. Only the newest
// pending config is kept.
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

// Errors receives reload failures (bad TOML, failed validation).
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Start runs the event loop until ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) {
	go w.run(ctx)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) run(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.L().Warn("config watcher error", "err", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		logger.L().Warn("config reload failed", "path", w.path, "err", err)
		replaceLatest(w.errs, err)
		return
	}
	logger.L().Info("config reloaded", "path", w.path)
	replaceLatest(w.updates, cfg)
}

// replaceLatest drops any unread value so the channel holds only v.
func replaceLatest[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
