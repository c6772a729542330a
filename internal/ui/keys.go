// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat screen.
type KeyMap struct {
	Submit     key.Binding
	New        key.Binding
	Delete     key.Binding
	Prev       key.Binding
	Next       key.Binding
	Credential key.Binding
	Export     key.Binding
	Cancel     key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		New: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		Delete: key.NewBinding(
			key.WithKeys("ctrl+w"),
			key.WithHelp("C-w", "delete chat"),
		),
		Prev: key.NewBinding(
			key.WithKeys("ctrl+up", "alt+["),
			key.WithHelp("C-up", "previous chat"),
		),
		Next: key.NewBinding(
			key.WithKeys("ctrl+down", "alt+]"),
			key.WithHelp("C-down", "next chat"),
		),
		Credential: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("C-k", "API key"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "export"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancel"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.New, k.Delete, k.Prev, k.Next, k.Credential, k.Export, k.Quit}
}
