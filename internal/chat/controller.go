// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/rigchat/internal/cloud"
	"github.com/jeranaias/rigchat/internal/logger"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/sanitize"
)

// FallbackReply replaces a reply that is empty after sanitizing.
const FallbackReply = "⚠️ Sorry, I could not produce a response. Please try again."

var (
	// ErrEmptyInput is returned for blank messages. Nothing is recorded.
	ErrEmptyInput = errors.New("message is empty")

	// ErrMissingCredential is returned when no API key is set. Nothing is
	// recorded and no request is sent.
	ErrMissingCredential = errors.New("please enter an API key first")
)

// Store is the part of session.Store a turn needs.
type Store interface {
	ActiveID() string
	Get(id string) (*model.Conversation, error)
	Append(id string, msg model.Message) error
}

// CredentialSource supplies the bearer token for each turn.
type CredentialSource interface {
	Get() string
	Fingerprint() string
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller runs one conversational turn at a time against the active
// conversation.
type Controller struct {
	store     Store
	client    cloud.Completer
	cred      CredentialSource
	sanitizer *sanitize.Sanitizer
}

// NewController wires a controller. A nil sanitizer means the default rules.
func NewController(store Store, client cloud.Completer, cred CredentialSource, sanitizer *sanitize.Sanitizer) *Controller {
	if sanitizer == nil {
		sanitizer = sanitize.New()
	}
	return &Controller{
		store:     store,
		client:    client,
		cred:      cred,
		sanitizer: sanitizer,
	}
}

// Submit records text as a user message in the active conversation, asks the
// completion client for a reply, and records the reply in the same
// conversation. API failures do not fail the turn: their description becomes
// the assistant message. The returned error is only set for local
// preconditions or when the conversation vanished mid-turn.
func (c *Controller) Submit(ctx context.Context, text string) (model.Message, error) {
	if strings.TrimSpace(text) == "" {
		return model.Message{}, ErrEmptyInput
	}
	credential := c.cred.Get()
	if credential == "" {
		return model.Message{}, ErrMissingCredential
	}

	id := c.store.ActiveID()
	conv, err := c.store.Get(id)
	if err != nil {
		return model.Message{}, err
	}
	history := conv.Messages

	if err := c.store.Append(id, model.NewUserMessage(text)); err != nil {
		return model.Message{}, err
	}

	log := logger.L().With("conversation", id, "key", c.cred.Fingerprint())
	log.Debug("turn started", "history", len(history))

	start := time.Now()
	raw, err := c.client.Complete(ctx, text, credential, history)

	var content string
	if err != nil {
		content = Describe(err)
		log.Warn("turn failed", "kind", cloud.KindOf(err), "duration", time.Since(start))
	} else {
		content = c.sanitizer.Clean(raw)
		if content == "" {
			content = FallbackReply
			log.Warn("empty reply after sanitizing", "raw_len", len(raw))
		}
		log.Debug("turn complete", "duration", time.Since(start), "reply_len", len(content))
	}

	reply := model.NewAssistantMessage(content)
	if err := c.store.Append(id, reply); err != nil {
		return reply, fmt.Errorf("failed to record reply: %w", err)
	}
	return reply, nil
}
