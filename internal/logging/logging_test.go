// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewHandler_Production(t *testing.T) {
	var buf bytes.Buffer
	h, closer := NewHandler(Options{Level: slog.LevelInfo, Output: &buf})
	defer func() { _ = closer.Close() }()

	logger := slog.New(h)
	logger.Debug("dropped")
	logger.Info("kept", "key", "value")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("debug line should be filtered")
	}
	if !strings.Contains(out, "msg=kept") || !strings.Contains(out, "key=value") {
		t.Errorf("output = %q, want text handler format", out)
	}
}

func TestNewHandler_DevelopmentNoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	h, closer := NewHandler(Options{Level: slog.LevelDebug, Development: true, Output: &buf})
	defer func() { _ = closer.Close() }()

	slog.New(h).Debug("tinted")

	out := buf.String()
	if !strings.Contains(out, "tinted") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("non-terminal output should not contain colour escapes")
	}
}

func TestNewHandler_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wpbridge.log")
	var console bytes.Buffer
	h, closer := NewHandler(Options{
		Level:      slog.LevelInfo,
		Output:     &console,
		File:       path,
		MaxSizeMB:  1,
		MaxBackups: 1,
	})

	slog.New(h).Info("both sinks", "n", 1)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if !strings.Contains(console.String(), "both sinks") {
		t.Error("console sink missed the record")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &rec); err != nil {
		t.Fatalf("file line is not JSON: %v (%q)", err, data)
	}
	if rec["msg"] != "both sinks" {
		t.Errorf("file record = %v", rec)
	}
}
