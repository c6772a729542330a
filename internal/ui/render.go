// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/rigchat/internal/logger"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownCache renders assistant replies with glamour. Messages never change
// after creation, so output is cached by message id until the wrap width or
// style changes.
type markdownCache struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
	rendered map[string]string
}

func newMarkdownCache(style string) *markdownCache {
	return &markdownCache{
		style:    strings.ToLower(style),
		rendered: make(map[string]string),
	}
}

// SetStyle switches between "auto", "dark" and "light".
func (c *markdownCache) SetStyle(style string) {
	style = strings.ToLower(style)
	if style == c.style {
		return
	}
	c.style = style
	c.reset()
}

func (c *markdownCache) reset() {
	c.renderer = nil
	c.rendered = make(map[string]string)
}

// Render returns content as terminal Markdown wrapped at width. Plain content
// is returned when glamour fails.
func (c *markdownCache) Render(id, content string, width int) string {
	if width < 20 {
		width = 20
	}
	if width != c.width {
		c.width = width
		c.reset()
	}
	if out, ok := c.rendered[id]; ok {
		return out
	}

	if c.renderer == nil {
		r, err := glamour.NewTermRenderer(c.styleOption(), glamour.WithWordWrap(width))
		if err != nil {
			logger.L().Warn("markdown renderer unavailable", "err", err)
			return content
		}
		c.renderer = r
	}

	out, err := c.renderer.Render(content)
	if err != nil {
		return content
	}
	out = strings.Trim(out, "\n")
	c.rendered[id] = out
	return out
}

func (c *markdownCache) styleOption() glamour.TermRendererOption {
	switch c.style {
	case "dark", "light":
		return glamour.WithStandardStyle(c.style)
	default:
		return glamour.WithAutoStyle()
	}
}
