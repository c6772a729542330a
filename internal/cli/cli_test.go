// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigchat/internal/chat"
	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/security"
	"github.com/jeranaias/rigchat/internal/session"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

// scriptedLines replays inputs, then reports EOF.
type scriptedLines struct {
	inputs  []string
	history []string
	prompts int
}

func (s *scriptedLines) Prompt(string) (string, error) {
	s.prompts++
	if len(s.inputs) == 0 {
		return "", io.EOF
	}
	next := s.inputs[0]
	s.inputs = s.inputs[1:]
	if next == "^C" {
		return "", liner.ErrPromptAborted
	}
	return next, nil
}

func (s *scriptedLines) AppendHistory(item string) { s.history = append(s.history, item) }
func (s *scriptedLines) Close() error              { return nil }

type echoCompleter struct {
	calls int
}

func (e *echoCompleter) Complete(ctx context.Context, userMessage, credential string, history []model.Message) (string, error) {
	e.calls++
	return "echo: " + userMessage, nil
}

func newTestREPL(key string, inputs ...string) (*REPL, *scriptedLines, *bytes.Buffer, *echoCompleter) {
	store := session.New()
	cred := security.NewCredential(key)
	comp := &echoCompleter{}
	s := &Session{
		Config:     config.Default(),
		Credential: cred,
		Store:      store,
		Controller: chat.NewController(store, comp, cred, nil),
	}
	lines := &scriptedLines{inputs: inputs}
	out := &bytes.Buffer{}
	r := NewREPL(s, lines, out)
	r.readKey = func() (string, error) { return "", errors.New("no terminal") }
	r.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }
	return r, lines, out, comp
}

// =============================================================================
// REPL TESTS
// =============================================================================

func TestREPL_SendsMessage(t *testing.T) {
	r, lines, out, comp := newTestREPL("sk-test", "Hello")
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, 1, comp.calls)
	assert.Contains(t, out.String(), "echo: Hello")
	assert.Equal(t, []string{"Hello"}, lines.history)

	conv := r.session.Store.Active()
	require.Equal(t, 2, conv.MessageCount())
	assert.Equal(t, model.RoleUser, conv.Messages[0].Role)
	assert.Equal(t, model.RoleAssistant, conv.Messages[1].Role)
}

func TestREPL_QuitStopsLoop(t *testing.T) {
	r, lines, _, comp := newTestREPL("sk-test", "/quit", "never sent")
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, 0, comp.calls)
	assert.Equal(t, 1, lines.prompts)
}

func TestREPL_AbortContinues(t *testing.T) {
	r, _, out, comp := newTestREPL("sk-test", "^C", "Hi")
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, 1, comp.calls)
	assert.Contains(t, out.String(), "/quit")
}

func TestREPL_MissingKey(t *testing.T) {
	r, _, out, comp := newTestREPL("", "Hello")
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, 0, comp.calls)
	assert.Contains(t, out.String(), chat.ErrMissingCredential.Error())
	assert.True(t, r.session.Store.Active().IsEmpty())
}

func TestREPL_KeyCommand(t *testing.T) {
	r, _, out, comp := newTestREPL("", "/key", "Hello")
	first := true
	r.readKey = func() (string, error) {
		if first {
			first = false
			return "", nil // startup prompt skipped
		}
		return "sk-or-secret", nil
	}
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, "sk-or-secret", r.session.Credential.Get())
	assert.Equal(t, 1, comp.calls)
	assert.NotContains(t, out.String(), "sk-or-secret")
}

func TestREPL_ConversationCommands(t *testing.T) {
	r, _, out, _ := newTestREPL("sk-test",
		"first question",
		"/new",
		"second question",
		"/list",
		"/switch 1",
	)
	require.NoError(t, r.Run(context.Background()))

	store := r.session.Store
	entries := store.List()
	require.Len(t, entries, 2)
	assert.Equal(t, entries[0].ID, store.ActiveID())
	assert.Equal(t, "first question", entries[0].Title)
	assert.Equal(t, "second question", entries[1].Title)
	assert.Contains(t, out.String(), "Switched to "+entries[0].ID)
}

func TestREPL_SwitchByID(t *testing.T) {
	r, _, _, _ := newTestREPL("sk-test", "/new", "/switch chat_1")
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, "chat_1", r.session.Store.ActiveID())
}

func TestREPL_SwitchUnknown(t *testing.T) {
	r, _, out, _ := newTestREPL("sk-test", "/switch 9", "/switch chat_99", "/switch")
	require.NoError(t, r.Run(context.Background()))

	s := out.String()
	assert.Contains(t, s, "no conversation #9")
	assert.Contains(t, s, "chat_99")
	assert.Contains(t, s, "Usage: /switch")
}

func TestREPL_DeleteOnlyConversation(t *testing.T) {
	r, _, out, _ := newTestREPL("sk-test", "/delete")
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, 1, r.session.Store.Len())
	assert.Contains(t, out.String(), NoticeOnlyConversation)
}

func TestREPL_DeleteByPosition(t *testing.T) {
	r, _, _, _ := newTestREPL("sk-test", "/new", "/new", "/delete 1")
	require.NoError(t, r.Run(context.Background()))

	store := r.session.Store
	require.Equal(t, 2, store.Len())
	entries := store.List()
	assert.Equal(t, "chat_2", entries[0].ID)
	assert.Equal(t, "chat_2", store.ActiveID())
}

func TestREPL_ExportMarkdownAndJSON(t *testing.T) {
	dir := t.TempDir()
	mdPath := filepath.Join(dir, "out.md")
	jsonPath := filepath.Join(dir, "out.json")

	r, _, out, _ := newTestREPL("sk-test", "Hello", "/export "+mdPath, "/export "+jsonPath)
	require.NoError(t, r.Run(context.Background()))

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "Hello")
	assert.Contains(t, string(md), "echo: Hello")

	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.True(t, json.Valid(raw))
	assert.Contains(t, out.String(), "Exported to "+jsonPath)
}

func TestREPL_ExportEmpty(t *testing.T) {
	r, _, out, _ := newTestREPL("sk-test", "/export")
	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), "Nothing to export")
}

func TestREPL_UnknownCommand(t *testing.T) {
	r, _, out, _ := newTestREPL("sk-test", "/bogus")
	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), "Unknown command /bogus")
}

func TestREPL_CancelledContext(t *testing.T) {
	r, lines, _, _ := newTestREPL("sk-test", "Hello")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, r.Run(ctx))
	assert.Equal(t, 0, lines.prompts)
}

// =============================================================================
// COMMAND TESTS
// =============================================================================

// isolateEnv keeps the user's real config, .env and environment out of a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(security.CredentialEnvVar, "")
	for _, k := range []string{"RIGCHAT_MODEL", "RIGCHAT_BASE_URL", "RIGCHAT_LANGUAGE", "RIGCHAT_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	app := NewApp()
	app.Out, app.Err = out, out
	err := app.Execute(context.Background(), args)
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version", "--detailed")
	require.NoError(t, err)
	assert.Contains(t, out, "rigchat "+Version)
	assert.Contains(t, out, "commit:")
}

func TestConfigCommand_MasksKeyAndAppliesFlags(t *testing.T) {
	isolateEnv(t)
	t.Setenv(security.CredentialEnvVar, "sk-or-very-secret")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chat]\nresponse_language = \"en\"\n"), 0600))

	out, err := runCommand(t, "config", "--config", path, "--model", "openai/gpt-4o-mini")
	require.NoError(t, err)

	assert.NotContains(t, out, "sk-or-very-secret")
	assert.Contains(t, out, "[REDACTED, length=17")
	assert.Contains(t, out, `model = "openai/gpt-4o-mini"`)
	assert.Contains(t, out, `response_language = "en"`)
	assert.Contains(t, out, path)
}

func TestConfigCommand_InvalidFile(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[cloud]\ntemperature = 9.5\n"), 0600))

	_, err := runCommand(t, "config", "--config", path)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "temperature"), err.Error())
}

func TestConfigCommand_InvalidFlag(t *testing.T) {
	isolateEnv(t)
	_, err := runCommand(t, "config", "--log-level", "chatty")
	require.Error(t, err)
}

func TestNewClient_FromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Cloud.Model = "openai/gpt-4o-mini"
	cfg.Cloud.TimeoutSecs = 12

	c := NewClient(cfg)
	assert.Equal(t, "openai/gpt-4o-mini", c.Model())
	assert.Equal(t, 12*time.Second, c.Timeout())
}
