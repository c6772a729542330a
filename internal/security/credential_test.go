// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleKey = "sk-or-v1-0123456789abcdef0123456789abcdef"

func TestCredential_SetGetClear(t *testing.T) {
	c := NewCredential("")
	assert.False(t, c.IsSet())
	assert.Equal(t, "", c.Get())

	c.Set("  " + sampleKey + "\n")
	assert.True(t, c.IsSet())
	assert.Equal(t, sampleKey, c.Get())

	c.Clear()
	assert.False(t, c.IsSet())
}

func TestCredential_Masked(t *testing.T) {
	c := NewCredential("")
	assert.Equal(t, "[not set]", c.Masked())
	assert.Equal(t, "none", c.Fingerprint())

	c.Set(sampleKey)
	masked := c.Masked()
	assert.NotContains(t, masked, "sk-or")
	assert.NotContains(t, masked, "0123")
	assert.Contains(t, masked, fmt.Sprintf("length=%d", len(sampleKey)))
	assert.Contains(t, masked, "fingerprint="+c.Fingerprint())
	assert.Len(t, c.Fingerprint(), 8)
}

func TestCredential_FormattingNeverLeaks(t *testing.T) {
	c := NewCredential(sampleKey)
	out := fmt.Sprintf("%v %s", c, c)
	assert.False(t, strings.Contains(out, sampleKey))
}

func TestCredential_FingerprintStable(t *testing.T) {
	a := NewCredential(sampleKey)
	b := NewCredential(sampleKey)
	other := NewCredential(sampleKey + "x")
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), other.Fingerprint())
}

func TestCredential_Concurrent(t *testing.T) {
	c := NewCredential("")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.Set(fmt.Sprintf("key-%d", i))
		}(i)
		go func() {
			defer wg.Done()
			_ = c.Masked()
		}()
	}
	wg.Wait()
	assert.True(t, c.IsSet())
}

func TestCredentialFromEnv_Variable(t *testing.T) {
	t.Setenv(CredentialEnvVar, sampleKey)

	c, err := CredentialFromEnv()
	require.NoError(t, err)
	assert.Equal(t, sampleKey, c.Get())
}

func TestCredentialFromEnv_DotenvFile(t *testing.T) {
	t.Setenv(CredentialEnvVar, "")
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(CredentialEnvVar+"="+sampleKey+"\n"), 0600))

	c, err := CredentialFromEnv(filepath.Join(dir, "missing.env"), envFile)
	require.NoError(t, err)
	assert.Equal(t, sampleKey, c.Get())
	assert.Equal(t, "", os.Getenv(CredentialEnvVar), "process environment must not change")
}

func TestCredentialFromEnv_Unset(t *testing.T) {
	t.Setenv(CredentialEnvVar, "")

	c, err := CredentialFromEnv(filepath.Join(t.TempDir(), "none.env"))
	require.NoError(t, err)
	assert.False(t, c.IsSet())
}
