// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a conversation into a file format.
type Exporter interface {
	// Export converts a conversation to the target format and returns the content.
	Export(conv *model.Conversation) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md").
	FileExtension() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool

	// IncludeFooter appends an "Exported from rigchat" line.
	IncludeFooter bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeTimestamps: true,
		IncludeFooter:     true,
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ForPath picks an exporter from the file extension: .json gives JSON,
// anything else Markdown.
func ForPath(path string, opts *Options) Exporter {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return NewJSONExporter()
	}
	return NewMarkdownExporter(opts)
}

// WriteFile exports conv with exporter and writes it atomically to path with
// 0600 permissions. The transcript is never read back.
func WriteFile(conv *model.Conversation, exporter Exporter, path string) error {
	content, err := exporter.Export(conv)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := util.AtomicWriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// WriteMarkdown writes conv as Markdown to path.
func WriteMarkdown(conv *model.Conversation, path string) error {
	return WriteFile(conv, NewMarkdownExporter(nil), path)
}

// DefaultFilename builds "conversation_<title>_<timestamp><ext>" in dir.
func DefaultFilename(dir string, conv *model.Conversation, ext string, now time.Time) string {
	name := fmt.Sprintf("conversation_%s_%s%s",
		sanitizeFilename(conv.DisplayTitle()),
		now.Format("20060102_150405"),
		ext,
	)
	return filepath.Join(dir, name)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	s = util.TruncateRunes(strings.TrimSuffix(s, util.Ellipsis), 50)

	// Windows and Unix reserved characters
	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := []rune{}
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "conversation"
	}
	return string(result)
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
