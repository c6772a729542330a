// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Role: sender of a message (user, assistant, system)
//   - Message: one immutable turn with id, role, content and timestamp
//   - Conversation: append-only transcript with a derived display title
//
// # Usage
//
//	conv := model.NewConversation("chat_1")
//	conv.Append(model.NewUserMessage("Hello"))
//	fmt.Println(conv.DisplayTitle()) // "Hello"
package model
