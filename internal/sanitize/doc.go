// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sanitize strips formatting and control tokens that some hosted
// models leak into their replies.
//
// # Usage
//
//	clean := sanitize.Sanitize("[INST]Hello[/INST]</s>") // "Hello"
package sanitize
