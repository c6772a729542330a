// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/export"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/session"
)

// =============================================================================
// MESSAGES
// =============================================================================

// SnapshotMsg carries the store state after a mutation.
type SnapshotMsg struct {
	Snapshot session.Snapshot
}

// TurnDoneMsg reports the end of a Submit call.
type TurnDoneMsg struct {
	Reply model.Message
	Err   error
}

// ConfigReloadedMsg carries a configuration reloaded from disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// ConfigErrorMsg reports a rejected config reload.
type ConfigErrorMsg struct {
	Err error
}

// ExportDoneMsg reports the result of a transcript export.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// =============================================================================
// COMMANDS
// =============================================================================

// waitForSnapshot blocks on the subscription until the store publishes.
// A closed channel ends the loop.
func waitForSnapshot(ch <-chan session.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

// waitForConfig blocks until the watcher reloads or fails.
func waitForConfig(w *config.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case cfg, ok := <-w.Updates():
			if !ok {
				return nil
			}
			return ConfigReloadedMsg{Config: cfg}
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			return ConfigErrorMsg{Err: err}
		}
	}
}

// submitCmd runs one turn off the update loop.
func submitCmd(ctx context.Context, s Submitter, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := s.Submit(ctx, text)
		return TurnDoneMsg{Reply: reply, Err: err}
	}
}

// exportCmd writes conv as Markdown into dir.
func exportCmd(conv *model.Conversation, dir string, now time.Time) tea.Cmd {
	return func() tea.Msg {
		path := export.DefaultFilename(dir, conv, ".md", now)
		err := export.WriteMarkdown(conv, path)
		return ExportDoneMsg{Path: path, Err: err}
	}
}
