// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewTheme_ForcedModes(t *testing.T) {
	if !NewTheme("dark").IsDark {
		t.Error("dark theme should report IsDark")
	}
	if NewTheme("LIGHT").IsDark {
		t.Error("light theme should not report IsDark")
	}
}

func TestTheme_RendersText(t *testing.T) {
	theme := NewTheme("dark")
	out := theme.SidebarActive.Render("chat_1")
	if !strings.Contains(out, "chat_1") {
		t.Errorf("rendered output lost its text: %q", out)
	}
}

func TestStatusIndicators_ASCII(t *testing.T) {
	for _, s := range []string{
		StatusIndicators.Success, StatusIndicators.Error,
		StatusIndicators.Warning, StatusIndicators.Active,
	} {
		for _, r := range s {
			if r > 127 {
				t.Errorf("indicator %q is not ASCII", s)
			}
		}
	}
}
