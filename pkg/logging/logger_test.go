// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
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
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevel_toSlogLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{Level(-1), slog.LevelInfo}, // Unknown defaults to Info
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			if got := tt.level.toSlogLevel(); got != tt.want {
				t.Errorf("Level.toSlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"trace", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Logger Tests
// =============================================================================

func TestNew_WritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, Writer: &buf})
	defer logger.Close()

	logger.Debug("assignment accepted", "category", "Formative")

	out := buf.String()
	if !strings.Contains(out, "assignment accepted") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "category=Formative") {
		t.Errorf("output missing attribute: %q", out)
	}
}

func TestNew_WithService(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Service: "gradebook", Writer: &buf})
	logger.Info("session started")

	if !strings.Contains(buf.String(), "service=gradebook") {
		t.Errorf("expected service attribute, got %q", buf.String())
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{JSON: true, Writer: &buf})
	logger.Info("session ended", "assignments", 3)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "session ended" {
		t.Errorf("msg = %v, want 'session ended'", record["msg"])
	}
	if record["assignments"] != float64(3) {
		t.Errorf("assignments = %v, want 3", record["assignments"])
	}
}

func TestNew_Quiet(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Quiet: true, Writer: &buf})
	logger.Error("should not appear")

	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote %q", buf.String())
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Writer: &buf})

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines (Warn+Error), got %d: %q", len(lines), buf.String())
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf})

	child := logger.With("session_id", "abc123")
	child.Info("session started")
	logger.Info("parent record")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "session_id=abc123") {
		t.Errorf("child record missing attribute: %q", lines[0])
	}
	if strings.Contains(lines[1], "session_id") {
		t.Errorf("parent record should not carry child attribute: %q", lines[1])
	}
}

type syncBuffer struct {
	bytes.Buffer
	syncs int
	err   error
}

func (b *syncBuffer) Sync() error {
	b.syncs++
	return b.err
}

func TestLogger_Close(t *testing.T) {
	buf := &syncBuffer{}
	logger := New(Config{Writer: buf})

	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if buf.syncs != 1 {
		t.Errorf("syncs = %d, want 1", buf.syncs)
	}
}

func TestLogger_CloseSyncError(t *testing.T) {
	buf := &syncBuffer{err: errors.New("disk full")}
	logger := New(Config{Writer: buf})

	err := logger.Close()
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Close() error = %v, want sync error", err)
	}
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.Error("discarded")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
