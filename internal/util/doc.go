// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across rigchat packages.
//
// # Key Functions
//
//   - TruncateWithEllipsis: rune-safe prefix plus "..." marker
//   - TruncateRunes: rune-safe prefix without marker
//   - SingleLine: fold line breaks for one-line displays
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	title := util.TruncateWithEllipsis(firstMessage, 30)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
