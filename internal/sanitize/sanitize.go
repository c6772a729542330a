// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sanitize

import (
	"regexp"
	"strings"
)

// maxPasses bounds the fixed-point loop. Every rule only removes text, so
// the loop terminates long before this on any realistic input.
const maxPasses = 64

// =============================================================================
// RULE TYPE
// =============================================================================

// Rule is one textual cleanup applied to model output.
type Rule struct {
	Name        string         // Short identifier for logs and tests
	Pattern     *regexp.Regexp // Compiled pattern
	Replacement string         // Replacement text, usually empty
}

// DefaultRules returns the ordered token-cleanup rules for instruction-tuned
// models: strike tags, angle-bracket sequence markers, and instruction or
// system markers.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "strike-short", Pattern: regexp.MustCompile(`\[/?s\]`)},
		{Name: "strike-long", Pattern: regexp.MustCompile(`\[/?strike\]`)},
		{Name: "double-angle", Pattern: regexp.MustCompile(`<<>>|<</>>|<<s>>|<</s>>`)},
		{Name: "sequence-marker", Pattern: regexp.MustCompile(`<<?s?>?>|<<?/s?>?>`)},
		{Name: "inst-marker", Pattern: regexp.MustCompile(`\[/?INST\]`)},
		{Name: "sys-marker", Pattern: regexp.MustCompile(`\[/?SYS\]`)},
	}
}

// =============================================================================
// SANITIZER
// =============================================================================

// Sanitizer applies an ordered list of rules.
type Sanitizer struct {
	rules []Rule
}

// New creates a sanitizer over rules, or DefaultRules when none are given.
func New(rules ...Rule) *Sanitizer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Sanitizer{rules: rules}
}

// Rules returns a copy of the configured rules.
func (s *Sanitizer) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Clean applies every rule in order, repeating the whole pass until the text
// stops changing, then trims surrounding whitespace. Removing one marker can
// expose another (e.g. "[<s>s]"), so a single pass is not enough for
// Clean(Clean(x)) == Clean(x).
func (s *Sanitizer) Clean(text string) string {
	out := text
	for i := 0; i < maxPasses; i++ {
		next := s.pass(out)
		if next == out {
			break
		}
		out = next
	}
	return strings.TrimSpace(out)
}

func (s *Sanitizer) pass(text string) string {
	for _, r := range s.rules {
		text = r.Pattern.ReplaceAllString(text, r.Replacement)
	}
	return text
}

var defaultSanitizer = New()

// Sanitize cleans text with the default rules.
func Sanitize(text string) string {
	return defaultSanitizer.Clean(text)
}
