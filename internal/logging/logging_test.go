// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw    string
		want   log.Level
		wantOK bool
	}{
		{raw: "debug", want: log.DebugLevel, wantOK: true},
		{raw: " INFO ", want: log.InfoLevel, wantOK: true},
		{raw: "warning", want: log.WarnLevel, wantOK: true},
		{raw: "error", want: log.ErrorLevel, wantOK: true},
		{raw: "off", want: log.FatalLevel, wantOK: true},
		{raw: "", want: log.InfoLevel, wantOK: false},
		{raw: "verbose", want: log.InfoLevel, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseLevel(tt.raw)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := New(&buf, Options{Level: "warn"})
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", "port", "/dev/ttyUSB0")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "/dev/ttyUSB0") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cts1.log")

	var buf bytes.Buffer
	logger, closer := New(&buf, Options{Level: "info", File: path})
	logger.Info("link attached", "connection", "bridge")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "link attached") {
		t.Errorf("log file = %q, want the logged line", data)
	}
	if !strings.Contains(buf.String(), "link attached") {
		t.Errorf("writer = %q, want the logged line too", buf.String())
	}
}
