// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logger configures the process-wide structured logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = "info"

var (
	mu     sync.RWMutex
	std    = newLogger(io.Discard, log.InfoLevel)
	closer io.Closer
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		Prefix:          "rigchat",
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
	return l
}

// L returns the shared logger. Until Configure is called it discards output.
func L() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

// ParseLevel parses a level name, defaulting to info for an empty string.
func ParseLevel(level string) (log.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = DefaultLevel
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// Configure points the shared logger at file (appending, created 0600) or at
// stderr when file is empty. Any previously opened log file is closed.
func Configure(level, file string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stderr
	var c io.Closer
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		w, c = f, f
	}

	swap(newLogger(w, lvl), c)
	return nil
}

// SetOutput replaces the shared logger with one writing to w.
func SetOutput(w io.Writer, level log.Level) {
	swap(newLogger(w, level), nil)
}

// Discard silences the shared logger.
func Discard() {
	swap(newLogger(io.Discard, log.InfoLevel), nil)
}

// Close releases the log file opened by Configure, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

func swap(l *log.Logger, c io.Closer) {
	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		closer.Close()
	}
	std, closer = l, c
}
