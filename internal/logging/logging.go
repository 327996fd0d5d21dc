// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

// Package logging builds the diagnostic logger shared by the cts1 commands.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Level     string
	Timestamp bool
	Prefix    string

	// File, when set, also writes every log line to a size-rotated file.
	File string
}

// Rotation limits for the log file
const (
	fileMaxSizeMB  = 10
	fileMaxBackups = 5
	fileMaxAgeDays = 30
)

// New returns a logger writing to w, and a closer for the log file (a no-op
// without one). An unrecognised level falls back to info.
func New(w io.Writer, opts Options) (*log.Logger, io.Closer) {
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			MaxAge:     fileMaxAgeDays,
		}
		w = io.MultiWriter(w, file)
		closer = file
	}

	level, _ := ParseLevel(opts.Level)
	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          opts.Prefix,
		ReportTimestamp: opts.Timestamp,
		TimeFormat:      time.DateTime,
	})
	return logger, closer
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// ParseLevel maps a level name to a log level. ok is false for unknown names.
func ParseLevel(raw string) (level log.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug", "trace":
		return log.DebugLevel, true
	case "info":
		return log.InfoLevel, true
	case "warn", "warning":
		return log.WarnLevel, true
	case "error":
		return log.ErrorLevel, true
	case "fatal", "off", "none":
		return log.FatalLevel, true
	default:
		return log.InfoLevel, false
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
