// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the OpenRouter chat-completion client.
//
// OpenRouter exposes many hosted models behind one OpenAI-style API. This
// package assembles the request (system persona, a bounded window of prior
// messages, the new user message), sends it, and classifies every failure
// into an *APIError.
//
// # Key Types
//
//   - OpenRouterClient: HTTP client configured with With* builders
//   - Completer: the interface the chat controller depends on
//   - APIError: classified failure, matched with errors.Is on sentinels
//
// # Usage
//
//	client := cloud.NewOpenRouterClient().
//	    WithModel("mistralai/mistral-7b-instruct").
//	    WithHistoryWindow(10)
//	reply, err := client.Complete(ctx, "Halo!", apiKey, history)
//	if errors.Is(err, cloud.ErrInvalidCredential) {
//	    // prompt for a new key
//	}
//
// # Security
//
// The credential is passed per call and only ever placed in the
// Authorization header. It is never logged.
package cloud
