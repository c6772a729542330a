// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs conversational turns: it records the user's message,
// requests a completion, cleans the reply, and records it.
//
// # Usage
//
//	ctrl := chat.NewController(store, client, credential, nil)
//	reply, err := ctrl.Submit(ctx, "Halo!")
//	switch {
//	case errors.Is(err, chat.ErrMissingCredential):
//	    // ask for a key
//	case err == nil:
//	    fmt.Println(reply.Content)
//	}
package chat
