// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the rigchat TUI.
//
// Colors are lipgloss.AdaptiveColor values that resolve against the detected
// (or configured) terminal background. Theme groups the styles each part of
// the screen uses.
//
// # Usage
//
//	theme := styles.NewTheme(cfg.UI.Theme)
//	header := theme.Header.Width(width).Render("rigchat")
package styles
