// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the rigchat command tree.
//
// # Commands
//
//	rigchat            full-screen chat (Bubble Tea)
//	rigchat chat       line-mode chat with slash commands
//	rigchat config     print the effective configuration, key masked
//	rigchat version    print version information
//
// Persistent flags --config, --log-level, --log-file and --model override the
// config file and environment.
//
// # Key Types
//
//   - App: flags and output streams; builds the cobra tree
//   - Session: config, credential, store and controller for one run
//   - REPL: the line-mode loop over a LineReader (peterh/liner in production)
//
// # Usage
//
//	app := cli.NewApp()
//	if err := app.Execute(ctx, os.Args[1:]); err != nil {
//		os.Exit(1)
//	}
package cli
