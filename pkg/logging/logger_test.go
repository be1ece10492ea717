// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.level.String())
		})
	}
}

func TestLevel_toSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LevelDebug.toSlogLevel())
	assert.Equal(t, slog.LevelError, LevelError.toSlogLevel())
	assert.Equal(t, slog.LevelInfo, Level(-1).toSlogLevel()) // unknown defaults to Info
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{" Warning ", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

// =============================================================================
// Logger Tests
// =============================================================================

func TestNew_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Service: "sequencer", Output: &buf})
	defer logger.Close()

	logger.Debug("hidden")
	logger.Info("verdict stored", "rows", 6, "cols", 6)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "verdict stored")
	assert.Contains(t, out, "rows=6")
	assert.Contains(t, out, "service=sequencer")
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, JSON: true, Output: &buf})
	logger.With("request_id", "req-1").Warn("rejected", "reason", "alphabet")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "rejected", entry["msg"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "alphabet", entry["reason"])
}

func TestNew_FileLogging(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, LogDir: dir, Service: "cli", Output: &buf})
	logger.Error("storage failed", "error", "disk full")
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close(), "second close is a no-op")

	matches, err := filepath.Glob(filepath.Join(dir, "cli_*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{"), "file logs are JSON")
	assert.Contains(t, string(data), "storage failed")
	assert.Contains(t, buf.String(), "storage failed", "console still receives entries")
}

func TestNew_QuietWithoutFile(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Quiet: true, Output: &buf})
	logger.Info("fallback")
	assert.Contains(t, buf.String(), "fallback", "quiet without a file falls back to console")
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Output: &buf})
	child := logger.With("component", "test")

	child.Info("hidden")
	assert.Empty(t, buf.String())

	logger.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, child.Level())
	child.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "component=test")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "logs"), expandPath("~/logs"))
	assert.Equal(t, "/var/log", expandPath("/var/log"))
}
