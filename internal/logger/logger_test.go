// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"", log.InfoLevel},
		{"debug", log.DebugLevel},
		{"WARN", log.WarnLevel},
		{" error ", log.ErrorLevel},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestConfigure_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "rigchat.log")
	require.NoError(t, Configure("debug", path))
	t.Cleanup(func() {
		Close()
		Discard()
	})

	L().Info("turn complete", "conversation", "chat_1")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "turn complete")
	assert.Contains(t, string(data), "chat_1")
}

func TestSetOutput_Level(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, log.WarnLevel)
	t.Cleanup(Discard)

	L().Info("hidden")
	L().Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestConfigure_BadLevel(t *testing.T) {
	assert.Error(t, Configure("verbose", ""))
}
