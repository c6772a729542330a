// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across rigchat packages.
package util

import "strings"

// Ellipsis is appended to strings shortened by TruncateWithEllipsis.
const Ellipsis = "..."

// UNICODE: All truncation counts runes, so multi-byte characters are never
// split in the middle.

// TruncateWithEllipsis keeps the first maxRunes runes of s and appends
// Ellipsis when anything was cut. The kept prefix is exactly maxRunes long,
// so the result may be up to maxRunes+3 runes.
func TruncateWithEllipsis(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + Ellipsis
}

// TruncateRunes shortens s to at most maxRunes runes without a marker.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}

// SingleLine collapses line breaks into spaces for one-line displays.
func SingleLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", "")
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return len([]rune(s))
}
