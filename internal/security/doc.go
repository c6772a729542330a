// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package security holds the OpenRouter API key for the life of the process.
//
// The key is kept in memory only. Display and logging go through Masked and
// Fingerprint, which never reveal any part of the token.
//
// # Key Types
//
//   - Credential: mutex-guarded bearer token
//
// # Usage
//
//	cred, err := security.CredentialFromEnv(".env")
//	if !cred.IsSet() {
//		cred.Set(readFromPrompt())
//	}
//	log.Info("credential ready", "fingerprint", cred.Fingerprint())
package security
