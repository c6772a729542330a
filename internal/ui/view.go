// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/session"
	"github.com/jeranaias/rigchat/internal/ui/styles"
	"github.com/jeranaias/rigchat/internal/util"
)

// Fixed rows around the transcript: header, input box (3), status bar.
const chromeHeight = 5

const minSidebarWidth = 12

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes the widgets from the terminal dimensions.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	side := m.sidebarOuterWidth()
	m.viewport.Width = max(m.width-side, 10)
	m.viewport.Height = max(m.height-chromeHeight, 3)

	inputWidth := max(m.width-4-len(m.input.Prompt), 10)
	m.input.Width = inputWidth
	m.keyInput.Width = max(m.width-4-len(m.keyInput.Prompt), 10)
}

// sidebarOuterWidth includes the border and padding.
func (m *Model) sidebarOuterWidth() int {
	w := m.sidebarWidth
	if w < minSidebarWidth {
		w = minSidebarWidth
	}
	if m.width > 0 && w > m.width/2 {
		w = m.width / 2
	}
	return w
}

// refreshTranscript rebuilds the viewport content and keeps the newest
// message in view.
func (m *Model) refreshTranscript() {
	m.viewport.SetContent(m.renderTranscript(m.viewport.Width))
	m.viewport.GotoBottom()
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the whole screen.
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderSidebar(m.viewport.Height),
		m.viewport.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderInput(),
		m.renderStatusBar(),
	)
}

func (m *Model) renderHeader() string {
	title := "New Chat"
	if m.snap.Active != nil {
		title = m.snap.Active.DisplayTitle()
	}
	left := m.theme.HeaderBrand.Render("rigchat") + "  " + m.theme.HeaderInfo.Render(util.SingleLine(title))
	right := m.theme.HeaderInfo.Render(m.modelName)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		return m.theme.Header.Width(m.width).Render(left)
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// renderSidebar lists conversations in creation order with the active one
// highlighted, then the credential state.
func (m *Model) renderSidebar(height int) string {
	outer := m.sidebarOuterWidth()
	w := outer - 2 // border + padding
	var b strings.Builder

	b.WriteString(m.theme.SidebarTitle.Render("Conversations"))
	b.WriteString("\n")
	for i, e := range m.snap.Entries {
		b.WriteString(m.renderSidebarEntry(i, e, w))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.opts.Credential.IsSet() {
		b.WriteString(m.theme.StatusOK.Render(styles.StatusIndicators.Success + " key set"))
	} else {
		b.WriteString(m.theme.StatusWarn.Render(styles.StatusIndicators.Warning + " no API key"))
	}

	return m.theme.Sidebar.Width(outer - 1).Height(height).Render(b.String())
}

func (m *Model) renderSidebarEntry(i int, e session.Entry, width int) string {
	marker := "  "
	if e.Active {
		marker = "> "
	}
	label := fmt.Sprintf("%s%d. %s", marker, i+1, util.SingleLine(e.Title))
	label = SidebarLabel(label, width)
	if e.Active {
		return m.theme.SidebarActive.Render(label)
	}
	return m.theme.SidebarItem.Render(label)
}

// SidebarLabel fits s into width terminal cells, padding short labels and
// cutting long ones with "...". Wide runes count as two cells.
func SidebarLabel(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, util.Ellipsis)
	}
	return runewidth.FillRight(s, width)
}

func (m *Model) renderTranscript(width int) string {
	conv := m.snap.Active
	if conv == nil || conv.IsEmpty() {
		if m.busy && conv != nil && conv.ID == m.busyConvID {
			return m.renderThinking()
		}
		hint := "Start a conversation by typing below."
		if !m.opts.Credential.IsSet() {
			hint = "Enter your OpenRouter API key to begin (ctrl+k)."
		}
		return m.theme.EmptyHint.Render(hint)
	}

	parts := make([]string, 0, len(conv.Messages)+1)
	for _, msg := range conv.Messages {
		parts = append(parts, m.renderMessage(msg, width))
	}
	if m.busy && conv.ID == m.busyConvID {
		parts = append(parts, m.renderThinking())
	}
	return strings.Join(parts, "\n\n")
}

func (m *Model) renderMessage(msg model.Message, width int) string {
	var label string
	switch msg.Role {
	case model.RoleUser:
		label = m.theme.UserLabel.Render(msg.Role.DisplayName())
	case model.RoleAssistant:
		label = m.theme.AssistantLabel.Render(msg.Role.DisplayName())
	default:
		label = m.theme.SystemLabel.Render(msg.Role.DisplayName())
	}
	header := label + " " + m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))

	var body string
	if msg.Role == model.RoleAssistant {
		body = m.markdown.Render(msg.ID, msg.Content, width-2)
	} else {
		body = m.theme.MessageBody.Width(max(width-2, 10)).Render(msg.Content)
	}
	return header + "\n" + body
}

func (m *Model) renderThinking() string {
	return m.spinner.View() + " " + m.theme.StatusWarn.Render("Thinking...")
}

func (m *Model) renderInput() string {
	view := m.input.View()
	if m.editingKey {
		view = m.keyInput.View()
	}
	return m.theme.InputContainer.Width(max(m.width-2, 10)).Render(view)
}

func (m *Model) renderStatusBar() string {
	if m.status != "" {
		var style lipgloss.Style
		switch m.statusKind {
		case StatusError:
			style = m.theme.StatusError
		case StatusWarn:
			style = m.theme.StatusWarn
		default:
			style = m.theme.StatusOK
		}
		return m.theme.StatusBar.Width(m.width).Render(style.Render(m.status))
	}

	bindings := m.keys.ShortHelp()
	if m.editingKey {
		bindings = []key.Binding{m.keys.Submit, m.keys.Cancel, m.keys.Quit}
	}
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(hints, "  "))
}
