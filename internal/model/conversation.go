// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/jeranaias/rigchat/internal/util"
)

// DefaultTitle is the stored title of every new conversation.
const DefaultTitle = "New Chat"

// TitleMaxRunes is how much of the first message is kept in a display title.
const TitleMaxRunes = 30

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is an ordered transcript. Messages only ever grow; nothing is
// edited or removed once appended.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
}

// NewConversation creates an empty conversation with the given id.
func NewConversation(id string) *Conversation {
	return &Conversation{
		ID:        id,
		Title:     DefaultTitle,
		Messages:  make([]Message, 0),
		CreatedAt: time.Now(),
	}
}

// Append adds a message to the end of the transcript.
func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if the conversation has no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// LastMessage returns the most recent message, or false if there is none.
func (c *Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// DisplayTitle is the stored title while the conversation is empty, and the
// first message's content afterwards, cut to TitleMaxRunes plus "...".
func (c *Conversation) DisplayTitle() string {
	if len(c.Messages) == 0 {
		return c.Title
	}
	return util.TruncateWithEllipsis(c.Messages[0].Content, TitleMaxRunes)
}

// Window returns at most the last n messages. The returned slice is a copy.
func (c *Conversation) Window(n int) []Message {
	if n <= 0 || len(c.Messages) == 0 {
		return nil
	}
	start := len(c.Messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(c.Messages)-start)
	copy(out, c.Messages[start:])
	return out
}

// Clone returns a deep copy that shares nothing with c.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Messages = make([]Message, len(c.Messages))
	copy(clone.Messages, c.Messages)
	return &clone
}
