// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package internal provides integration tests for the complete rigchat
// pipeline.
//
// These tests wire the real session store, turn controller, sanitizer and
// OpenRouter client against an httptest provider:
// - History windowing on the wire
// - Sanitized replies landing in the originating conversation
// - API failures recorded as transcript text
// - Snapshot publication to subscribers
// - Markdown export of the resulting transcript
package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigchat/internal/chat"
	"github.com/jeranaias/rigchat/internal/cloud"
	"github.com/jeranaias/rigchat/internal/export"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/security"
	"github.com/jeranaias/rigchat/internal/session"
)

// =============================================================================
// TEST UTILITIES
// =============================================================================

// provider is a scripted OpenRouter stand-in that records every request.
type provider struct {
	mu       sync.Mutex
	requests []cloud.ChatRequest
	status   int
	reply    string
}

func (p *provider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req cloud.ChatRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	p.mu.Lock()
	p.requests = append(p.requests, req)
	status, reply := p.status, p.reply
	p.mu.Unlock()

	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"scripted failure"}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": reply}}},
	})
}

func (p *provider) set(status int, reply string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status, p.reply = status, reply
}

func (p *provider) last() cloud.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

type pipeline struct {
	store *session.Store
	ctrl  *chat.Controller
	prov  *provider
}

func newPipeline(t *testing.T, window int) *pipeline {
	t.Helper()
	prov := &provider{reply: "ok"}
	srv := httptest.NewServer(prov)
	t.Cleanup(srv.Close)

	client := cloud.NewOpenRouterClient().
		WithBaseURL(srv.URL).
		WithTimeout(5 * time.Second).
		WithHistoryWindow(window)
	store := session.New()
	cred := security.NewCredential("sk-or-integration")
	return &pipeline{
		store: store,
		ctrl:  chat.NewController(store, client, cred, nil),
		prov:  prov,
	}
}

// =============================================================================
// FULL PIPELINE TESTS
// =============================================================================

func TestFullTurnPipeline(t *testing.T) {
	p := newPipeline(t, cloud.DefaultHistoryWindow)
	p.prov.set(http.StatusOK, "[INST] Halo! </s>")

	reply, err := p.ctrl.Submit(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Halo!", reply.Content)

	req := p.prov.last()
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.Equal(t, "Hello", req.Messages[1].Content)

	conv := p.store.Active()
	require.Equal(t, 2, conv.MessageCount())
	assert.Equal(t, "Hello", conv.DisplayTitle())
}

func TestHistoryWindowOnTheWire(t *testing.T) {
	p := newPipeline(t, 4)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := p.ctrl.Submit(ctx, "question "+string(rune('A'+i)))
		require.NoError(t, err)
	}

	// system + 4 prior messages + the new user message
	req := p.prov.last()
	require.Len(t, req.Messages, 6)
	assert.Equal(t, "question C", req.Messages[1].Content)
	assert.Equal(t, "question D", req.Messages[3].Content)
	assert.Equal(t, "question E", req.Messages[5].Content)
	assert.Equal(t, 10, p.store.Active().MessageCount())
}

func TestErrorsBecomeTranscript(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   string
	}{
		{"invalid key", http.StatusUnauthorized, "401"},
		{"no credits", http.StatusPaymentRequired, "402"},
		{"server", http.StatusBadGateway, "502"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newPipeline(t, cloud.DefaultHistoryWindow)
			p.prov.set(tc.status, "")

			reply, err := p.ctrl.Submit(context.Background(), "Hello")
			require.NoError(t, err)
			assert.Contains(t, reply.Content, tc.want)

			conv := p.store.Active()
			require.Equal(t, 2, conv.MessageCount())
			assert.Equal(t, model.RoleAssistant, conv.Messages[1].Role)

			// the conversation keeps working afterwards
			p.prov.set(http.StatusOK, "recovered")
			reply, err = p.ctrl.Submit(context.Background(), "again")
			require.NoError(t, err)
			assert.Equal(t, "recovered", reply.Content)
		})
	}
}

func TestReplyFollowsOriginWhenSwitching(t *testing.T) {
	p := newPipeline(t, cloud.DefaultHistoryWindow)
	origin := p.store.ActiveID()

	gate := make(chan struct{})
	released := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(gate)
		<-released
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"late"}}]}`))
	}))
	defer srv.Close()
	client := cloud.NewOpenRouterClient().WithBaseURL(srv.URL).WithTimeout(5 * time.Second)
	ctrl := chat.NewController(p.store, client, security.NewCredential("sk"), nil)

	done := make(chan model.Message)
	go func() {
		reply, _ := ctrl.Submit(context.Background(), "slow question")
		done <- reply
	}()

	<-gate
	other := p.store.Create()
	close(released)
	<-done

	conv, err := p.store.Get(origin)
	require.NoError(t, err)
	require.Equal(t, 2, conv.MessageCount())
	assert.Equal(t, "late", conv.Messages[1].Content)

	otherConv, err := p.store.Get(other)
	require.NoError(t, err)
	assert.True(t, otherConv.IsEmpty())
}

func TestSubscriberSeesTurn(t *testing.T) {
	p := newPipeline(t, cloud.DefaultHistoryWindow)
	updates, cancel := p.store.Subscribe()
	defer cancel()

	_, err := p.ctrl.Submit(context.Background(), "Hello")
	require.NoError(t, err)

	select {
	case snap := <-updates:
		require.NotNil(t, snap.Active)
		assert.Equal(t, 2, snap.Active.MessageCount())
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}
}

func TestExportAfterTurns(t *testing.T) {
	p := newPipeline(t, cloud.DefaultHistoryWindow)
	p.prov.set(http.StatusOK, "**Go** is a language.")
	_, err := p.ctrl.Submit(context.Background(), "What is Go?")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "chat.md")
	require.NoError(t, export.WriteMarkdown(p.store.Active(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	q := strings.Index(content, "What is Go?")
	a := strings.Index(content, "**Go** is a language.")
	require.True(t, q >= 0 && a >= 0, "both messages exported")
	assert.Less(t, q, a)
}
