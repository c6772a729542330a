// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// CredentialEnvVar is the environment variable holding the bearer token.
const CredentialEnvVar = "OPENROUTER_API_KEY"

// =============================================================================
// CREDENTIAL
// =============================================================================

// Credential holds the user's bearer token in memory for the process
// lifetime. It is never written to disk and never validated locally.
type Credential struct {
	mu    sync.RWMutex
	value string
}

// NewCredential creates a credential holding value (trimmed).
func NewCredential(value string) *Credential {
	return &Credential{value: strings.TrimSpace(value)}
}

// Set replaces the token. Surrounding whitespace is dropped.
func (c *Credential) Set(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = strings.TrimSpace(value)
}

// Get returns the token, or "" when unset.
func (c *Credential) Get() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// IsSet returns true if a non-empty token is held.
func (c *Credential) IsSet() bool {
	return c.Get() != ""
}

// Clear forgets the token.
func (c *Credential) Clear() {
	c.Set("")
}

// Masked returns a display form that never exposes any part of the token.
func (c *Credential) Masked() string {
	v := c.Get()
	if v == "" {
		return "[not set]"
	}
	return fmt.Sprintf("[REDACTED, length=%d, fingerprint=%s]", len(v), fingerprint(v))
}

// Fingerprint returns the first 4 bytes of the token's SHA-256 as hex, or
// "none" when unset. Safe to log.
func (c *Credential) Fingerprint() string {
	v := c.Get()
	if v == "" {
		return "none"
	}
	return fingerprint(v)
}

// String implements fmt.Stringer with the masked form, so a Credential
// accidentally passed to a formatter never leaks.
func (c *Credential) String() string {
	return c.Masked()
}

func fingerprint(v string) string {
	h := sha256.Sum256([]byte(v))
	return hex.EncodeToString(h[:4])
}

// =============================================================================
// ENVIRONMENT LOADING
// =============================================================================

// CredentialFromEnv builds a credential from CredentialEnvVar. When the
// variable is unset, the given dotenv files are read in order (missing files
// are skipped) and the first one defining it wins. The process environment is
// not modified.
func CredentialFromEnv(dotenvFiles ...string) (*Credential, error) {
	if v := strings.TrimSpace(os.Getenv(CredentialEnvVar)); v != "" {
		return NewCredential(v), nil
	}

	for _, path := range dotenvFiles {
		vals, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return NewCredential(""), fmt.Errorf("failed to read %s: %w", path, err)
		}
		if v := strings.TrimSpace(vals[CredentialEnvVar]); v != "" {
			return NewCredential(v), nil
		}
	}
	return NewCredential(""), nil
}
