// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a conversation transcript to a file on request.
//
// Exports are one-way: nothing written here is ever loaded back.
//
// # Key Types
//
//   - Exporter: format interface
//   - MarkdownExporter: human-readable transcript with role labels
//   - JSONExporter: full conversation structure
//
// # Usage
//
//	path := export.DefaultFilename(".", conv, ".md", time.Now())
//	err := export.WriteMarkdown(conv, path)
package export
