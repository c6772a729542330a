// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and validation for rigchat.
//
// # Precedence
//
// Built-in defaults, then ~/.rigchat/config.toml (or --config), then
// RIGCHAT_MODEL, RIGCHAT_BASE_URL, RIGCHAT_LANGUAGE and RIGCHAT_LOG_LEVEL,
// then command-line flags.
//
// # Example File
//
//	[chat]
//	history_window = 10
//	response_language = "id"
//
//	[cloud]
//	model = "mistralai/mistral-7b-instruct"
//	timeout_secs = 30
//
// # Usage
//
//	cfg, err := config.Load("")
//	prompt := cfg.SystemPrompt()
//
//	w, _ := config.NewWatcher(path, 0)
//	w.Start(ctx)
//	for cfg := range w.Updates() { ... }
//
// The API key is never read from or written to the config file.
package config
