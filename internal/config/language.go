// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ParseLanguage parses a BCP 47 tag such as "id" or "pt-BR".
func ParseLanguage(tag string) (language.Tag, error) {
	t, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return language.Und, fmt.Errorf("invalid language tag '%s': %w", tag, err)
	}
	return t, nil
}

// LanguageName returns the English name of tag ("id" gives "Indonesian").
// Unparseable or unnamed tags are returned as given.
func LanguageName(tag string) string {
	t, err := ParseLanguage(tag)
	if err != nil {
		return tag
	}
	if name := display.English.Tags().Name(t); name != "" {
		return name
	}
	return tag
}
