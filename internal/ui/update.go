// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigchat/internal/chat"
	"github.com/jeranaias/rigchat/internal/logger"
	"github.com/jeranaias/rigchat/internal/ui/styles"
)

// NoticeOnlyConversation is shown when ctrl+w targets the last conversation.
const NoticeOnlyConversation = "cannot delete the only conversation"

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and returns the updated model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SnapshotMsg:
		m.snap = msg.Snapshot
		m.refreshTranscript()
		return m, waitForSnapshot(m.updates)

	case TurnDoneMsg:
		return m.handleTurnDone(msg)

	case ConfigReloadedMsg:
		m.applyConfig(msg)
		return m, waitForConfig(m.opts.Watcher)

	case ConfigErrorMsg:
		logger.L().Warn("config reload rejected", "err", msg.Err)
		m.setStatus(StatusError, "config reload failed: "+msg.Err.Error())
		return m, waitForConfig(m.opts.Watcher)

	case ExportDoneMsg:
		if msg.Err != nil {
			logger.L().Error("export failed", "path", msg.Path, "err", msg.Err)
			m.setStatus(StatusError, "export failed: "+msg.Err.Error())
		} else {
			logger.L().Info("conversation exported", "path", msg.Path)
			m.setStatus(StatusInfo, "exported to "+msg.Path)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshTranscript()
		return m, cmd
	}

	return m.updateInputs(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.Close()
		return m, tea.Quit
	}

	if m.editingKey {
		return m.handleKeyEdit(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.New):
		id := m.opts.Store.Create()
		logger.L().Debug("conversation created", "conversation", id)
		m.clearStatus()
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		m.deleteActive()
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		m.selectOffset(-1)
		return m, nil

	case key.Matches(msg, m.keys.Next):
		m.selectOffset(1)
		return m, nil

	case key.Matches(msg, m.keys.Credential):
		m.startKeyEdit()
		m.clearStatus()
		return m, nil

	case key.Matches(msg, m.keys.Export):
		if m.snap.Active == nil || m.snap.Active.IsEmpty() {
			m.setStatus(StatusWarn, "nothing to export")
			return m, nil
		}
		return m, exportCmd(m.snap.Active, m.opts.ExportDir, m.opts.Now())

	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m.updateInputs(msg)
}

func (m *Model) handleKeyEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		value := strings.TrimSpace(m.keyInput.Value())
		if value == "" {
			m.setStatus(StatusWarn, "API key is empty")
			return m, nil
		}
		m.opts.Credential.Set(value)
		logger.L().Info("credential set", "fingerprint", m.opts.Credential.Fingerprint())
		m.stopKeyEdit()
		m.setStatus(StatusInfo, "API key set")
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.stopKeyEdit()
		m.clearStatus()
		return m, nil
	}

	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	return m, cmd
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.editingKey {
		m.keyInput, cmd = m.keyInput.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m *Model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		m.setStatus(StatusWarn, "waiting for the current reply")
		return m, nil
	}
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	if !m.opts.Credential.IsSet() {
		m.setStatus(StatusError, chat.ErrMissingCredential.Error())
		return m, nil
	}

	m.input.SetValue("")
	m.busy = true
	m.busyConvID = m.snap.ActiveID
	m.clearStatus()
	m.refreshTranscript()
	return m, tea.Batch(
		submitCmd(m.ctx, m.opts.Controller, text),
		m.spinner.Tick,
	)
}

func (m *Model) handleTurnDone(msg TurnDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	m.busyConvID = ""

	if msg.Err != nil {
		switch {
		case errors.Is(msg.Err, chat.ErrEmptyInput):
			m.clearStatus()
		case errors.Is(msg.Err, chat.ErrMissingCredential):
			m.setStatus(StatusError, msg.Err.Error())
		default:
			logger.L().Error("turn failed", "err", msg.Err)
			m.setStatus(StatusError, msg.Err.Error())
		}
	}
	m.refreshTranscript()
	return m, nil
}

func (m *Model) deleteActive() {
	id := m.snap.ActiveID
	deleted, err := m.opts.Store.Delete(id)
	switch {
	case err != nil:
		m.setStatus(StatusError, err.Error())
	case !deleted:
		m.setStatus(StatusWarn, NoticeOnlyConversation)
	default:
		logger.L().Debug("conversation deleted", "conversation", id)
		m.clearStatus()
	}
}

// selectOffset moves the active pointer by delta, wrapping at either end.
func (m *Model) selectOffset(delta int) {
	entries := m.snap.Entries
	if len(entries) < 2 {
		return
	}
	cur := 0
	for i, e := range entries {
		if e.ID == m.snap.ActiveID {
			cur = i
			break
		}
	}
	next := (cur + delta + len(entries)) % len(entries)
	if err := m.opts.Store.Select(entries[next].ID); err != nil {
		m.setStatus(StatusError, err.Error())
		return
	}
	m.clearStatus()
}

// applyConfig takes the display settings from a reloaded config. Client
// settings apply on the next launch.
func (m *Model) applyConfig(msg ConfigReloadedMsg) {
	cfg := msg.Config
	if cfg == nil {
		return
	}
	if cfg.UI.Theme != m.opts.Config.UI.Theme {
		m.theme = styles.NewTheme(cfg.UI.Theme)
		m.input.PromptStyle = m.theme.InputPrompt
		m.keyInput.PromptStyle = m.theme.KeyPrompt
		m.spinner.Style = m.theme.StatusWarn
		m.markdown.SetStyle(cfg.UI.Theme)
	}
	m.sidebarWidth = cfg.UI.SidebarWidth
	m.opts.Config = cfg

	logger.L().Info("config reloaded", "theme", cfg.UI.Theme, "sidebar_width", cfg.UI.SidebarWidth)
	if m.opts.Watcher != nil {
		m.setStatus(StatusInfo, fmt.Sprintf("config reloaded from %s", m.opts.Watcher.Path()))
	} else {
		m.setStatus(StatusInfo, "config reloaded")
	}
	m.layout()
	m.refreshTranscript()
}
