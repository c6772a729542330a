// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the in-memory set of conversations and the active
// selection.
//
// # Key Types
//
//   - Store: ordered conversations, active pointer, snapshot publishing
//   - Entry: one row of the conversation list
//   - Snapshot: immutable copy of the store handed to renderers
//   - NotFoundError: rejected operation on an unknown id
//
// # Invariants
//
// The store always holds at least one conversation and the active id always
// names one of them. Ids have the form chat_<n> and are never reused.
//
// # Usage
//
//	store := session.New()         // chat_1 active
//	id := store.Create()           // chat_2 active
//	updates, cancel := store.Subscribe()
//	defer cancel()
//	_ = store.Append(id, model.NewUserMessage("Hello"))
//	snap := <-updates
package session
