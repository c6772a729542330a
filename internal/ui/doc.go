// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui provides the full-screen Bubble Tea interface for rigchat.
//
// The screen has a header, a sidebar listing conversations in creation
// order, a transcript viewport, a single-line input and a status bar. The
// model never mutates conversations directly: it calls session.Store and the
// turn controller, then redraws from the snapshots the store publishes.
//
// # Key Types
//
//   - Model: the tea.Model for the chat screen
//   - Options: store, controller, credential, config and watcher wiring
//   - KeyMap: keyboard bindings
//
// # Key Bindings
//
//	Enter          send message (or save API key)
//	Ctrl+N         new conversation
//	Ctrl+W         delete active conversation
//	Ctrl+Up/Down   previous/next conversation (also Alt+[ and Alt+])
//	Ctrl+K         edit API key
//	Ctrl+E         export active conversation as Markdown
//	Ctrl+C         quit
//
// # Usage
//
//	err := ui.Run(ui.Options{
//		Store:      store,
//		Controller: chat.NewController(store, client, cred, nil),
//		Credential: cred,
//		Config:     cfg,
//		Watcher:    watcher,
//	})
package ui
