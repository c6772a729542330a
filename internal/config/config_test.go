// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"RIGCHAT_MODEL", "RIGCHAT_BASE_URL", "RIGCHAT_LANGUAGE", "RIGCHAT_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

// =============================================================================
// DEFAULTS
// =============================================================================

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Chat.HistoryWindow != 10 {
		t.Errorf("HistoryWindow = %d, want 10", cfg.Chat.HistoryWindow)
	}
	if cfg.Cloud.Model != "mistralai/mistral-7b-instruct" {
		t.Errorf("Model = %q", cfg.Cloud.Model)
	}
	if cfg.Cloud.Temperature != 0.7 || cfg.Cloud.MaxTokens != 500 {
		t.Errorf("sampling = %v/%d, want 0.7/500", cfg.Cloud.Temperature, cfg.Cloud.MaxTokens)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("Timeout() = %v, want 30s", cfg.Timeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestSystemPrompt_Default(t *testing.T) {
	cfg := Default()
	prompt := cfg.SystemPrompt()
	if !strings.Contains(prompt, "Indonesian") || strings.Contains(prompt, "{language}") {
		t.Errorf("SystemPrompt() = %q", prompt)
	}
}

func TestSystemPrompt_CustomLanguage(t *testing.T) {
	cfg := Default()
	cfg.Chat.ResponseLanguage = "fr"
	cfg.Chat.Persona = "Reply in {language} only."
	assert.Equal(t, "Reply in French only.", cfg.SystemPrompt())
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "Indonesian", LanguageName("id"))
	assert.Equal(t, "English", LanguageName("en"))
	assert.Equal(t, "not a tag!", LanguageName("not a tag!"))
}

// =============================================================================
// LOADING
// =============================================================================

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", os.Getenv("HOME"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Cloud, cfg.Cloud)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_TOMLOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), `
[chat]
history_window = 4
response_language = "en"

[cloud]
model = "openai/gpt-4o-mini"
temperature = 0.0
requests_per_minute = 20
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Chat.HistoryWindow)
	assert.Equal(t, "en", cfg.Chat.ResponseLanguage)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.Cloud.Model)
	assert.Equal(t, 0.0, cfg.Cloud.Temperature, "explicit zero temperature is kept")
	assert.Equal(t, 20, cfg.Cloud.RequestsPerMinute)
	// Untouched keys keep defaults.
	assert.Equal(t, 500, cfg.Cloud.MaxTokens)
	assert.Equal(t, DefaultPersona, cfg.Chat.Persona)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), `
[cloud]
model = "from-file"
`)
	t.Setenv("RIGCHAT_MODEL", "from-env")
	t.Setenv("RIGCHAT_LANGUAGE", "de")
	t.Setenv("RIGCHAT_BASE_URL", "http://localhost:8080/v1")
	t.Setenv("RIGCHAT_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Cloud.Model)
	assert.Equal(t, "de", cfg.Chat.ResponseLanguage)
	assert.Equal(t, "http://localhost:8080/v1", cfg.Cloud.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EmptyStringsRestored(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), `
[cloud]
model = ""
[chat]
persona = "  "
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Cloud.Model, cfg.Cloud.Model)
	assert.Equal(t, DefaultPersona, cfg.Chat.Persona)
}

func TestLoad_BadTOML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), "[cloud\nmodel = ")
	_, err := Load(path)
	assert.Error(t, err)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Chat.HistoryWindow = -1
	cfg.Chat.ResponseLanguage = "!!"
	cfg.Cloud.BaseURL = "ftp://example.com"
	cfg.Cloud.Temperature = 3
	cfg.Cloud.MaxTokens = 0
	cfg.Cloud.TimeoutSecs = 0
	cfg.Cloud.RequestsPerMinute = -5
	cfg.UI.Theme = "neon"
	cfg.Log.Level = "chatty"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))

	fields := make(map[string]bool)
	for _, v := range verrs {
		fields[v.Field] = true
	}
	for _, f := range []string{
		"chat.history_window", "chat.response_language", "cloud.base_url",
		"cloud.temperature", "cloud.max_tokens", "cloud.timeout_secs",
		"cloud.requests_per_minute", "ui.theme", "log.level",
	} {
		assert.True(t, fields[f], "missing validation error for %s", f)
	}
}

func TestValidate_BadFileFailsLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), `
[cloud]
timeout_secs = 9999
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cloud.timeout_secs")
}

func TestString_RendersTOML(t *testing.T) {
	out := Default().String()
	assert.Contains(t, out, "[cloud]")
	assert.Contains(t, out, "mistralai/mistral-7b-instruct")
}

// =============================================================================
// WATCHER
// =============================================================================

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, "[cloud]\nmodel = \"first\"\n")

	w, err := NewWatcher(path, 100*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.WriteFile(path, []byte("[cloud]\nmodel = \"second\"\n"), 0600))

	select {
	case cfg := <-w.Updates():
		assert.Equal(t, "second", cfg.Cloud.Model)
	case err := <-w.Errors():
		t.Fatalf("unexpected reload error: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed")
	}
}

func TestWatcher_ReportsInvalidConfig(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, "")

	w, err := NewWatcher(path, 100*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()
	w.Start(context.Background())

	require.NoError(t, os.WriteFile(path, []byte("[cloud]\nmax_tokens = -1\n"), 0600))

	select {
	case err := <-w.Errors():
		assert.Contains(t, err.Error(), "cloud.max_tokens")
	case <-time.After(3 * time.Second):
		t.Fatal("no reload error observed")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, "")

	w, err := NewWatcher(path, 10*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()
	w.Start(context.Background())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0600))

	select {
	case <-w.Updates():
		t.Fatal("reload triggered by an unrelated file")
	case <-w.Errors():
		t.Fatal("reload triggered by an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}
