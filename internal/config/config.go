// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

// Package config loads the cts1 configuration file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Environment variables
const (
	EnvRepo       = "CTS1_REPO"
	EnvPort       = "CTS1_PORT"
	EnvBaud       = "CTS1_BAUD"
	EnvURL        = "CTS1_URL"
	EnvUsername   = "CTS1_USERNAME"
	EnvLogLevel   = "CTS1_LOG_LEVEL"
	EnvLogFile    = "CTS1_LOG_FILE"
	EnvSessionDB  = "CTS1_SESSION_DB"
	EnvSHA256     = "CTS1_SHA256"
	EnvConfigFile = "CTS1_CONFIG"

	// EnvPassword holds the websocket bridge password. It is read by the
	// connection layer only and never stored in the config.
	EnvPassword = "CTS1_PASSWORD"
)

// Config is the resolved cts1 configuration.
type Config struct {
	// Repo is the root of the CTS-SAT-1 firmware repository.
	Repo      string
	Serial    Serial
	WebSocket WebSocket
	Log       Log
	Session   Session
	Encoder   Encoder
}

// Serial configures the UART connection.
type Serial struct {
	Port string
	Baud int
}

// WebSocket configures the websocket bridge connection.
type WebSocket struct {
	URL         string
	Username    string
	NoSSLVerify bool
}

// Log configures the diagnostic logger.
type Log struct {
	Level     string
	File      string
	Timestamp bool
}

// Session configures RX/TX session recording. An empty Database disables it.
type Session struct {
	Database string
}

// Encoder sets default suffix tags for outgoing commands.
type Encoder struct {
	SentTimestamp bool
	SHA256        bool
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Repo:   ".",
		Serial: Serial{Baud: 115200},
		Log:    Log{Level: "info"},
		Encoder: Encoder{
			SentTimestamp: true,
		},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "cts1", "config.toml")
}

type fileConfig struct {
	Repo   string `toml:"repo"`
	Serial struct {
		Port string `toml:"port"`
		Baud int    `toml:"baud"`
	} `toml:"serial"`
	WebSocket struct {
		URL         string `toml:"url"`
		Username    string `toml:"username"`
		NoSSLVerify bool   `toml:"no_ssl_verify"`
	} `toml:"websocket"`
	Log struct {
		Level     string `toml:"level"`
		File      string `toml:"file"`
		Timestamp bool   `toml:"timestamp"`
	} `toml:"log"`
	Session struct {
		Database string `toml:"database"`
	} `toml:"session"`
	Encoder struct {
		SentTimestamp bool `toml:"sent_timestamp"`
		SHA256        bool `toml:"sha256"`
	} `toml:"encoder"`
}

// Load reads the config file at path over the defaults. Only keys present in
// the file override defaults. A missing file is not an error when optional is
// set.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	if meta.IsDefined("repo") {
		cfg.Repo = strings.TrimSpace(raw.Repo)
	}
	if meta.IsDefined("serial", "port") {
		cfg.Serial.Port = strings.TrimSpace(raw.Serial.Port)
	}
	if meta.IsDefined("serial", "baud") {
		cfg.Serial.Baud = raw.Serial.Baud
	}
	if meta.IsDefined("websocket", "url") {
		cfg.WebSocket.URL = strings.TrimSpace(raw.WebSocket.URL)
	}
	if meta.IsDefined("websocket", "username") {
		cfg.WebSocket.Username = strings.TrimSpace(raw.WebSocket.Username)
	}
	if meta.IsDefined("websocket", "no_ssl_verify") {
		cfg.WebSocket.NoSSLVerify = raw.WebSocket.NoSSLVerify
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "file") {
		cfg.Log.File = strings.TrimSpace(raw.Log.File)
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}
	if meta.IsDefined("session", "database") {
		cfg.Session.Database = strings.TrimSpace(raw.Session.Database)
	}
	if meta.IsDefined("encoder", "sent_timestamp") {
		cfg.Encoder.SentTimestamp = raw.Encoder.SentTimestamp
	}
	if meta.IsDefined("encoder", "sha256") {
		cfg.Encoder.SHA256 = raw.Encoder.SHA256
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from CTS1_* environment variables. getenv is
// usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvRepo)); v != "" {
		c.Repo = v
	}
	if v := strings.TrimSpace(getenv(EnvPort)); v != "" {
		c.Serial.Port = v
	}
	if v := strings.TrimSpace(getenv(EnvBaud)); v != "" {
		baud, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvBaud, err)
		}
		c.Serial.Baud = baud
	}
	if v := strings.TrimSpace(getenv(EnvURL)); v != "" {
		c.WebSocket.URL = v
	}
	if v := strings.TrimSpace(getenv(EnvUsername)); v != "" {
		c.WebSocket.Username = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(getenv(EnvLogFile)); v != "" {
		c.Log.File = v
	}
	if v := strings.TrimSpace(getenv(EnvSessionDB)); v != "" {
		c.Session.Database = v
	}
	if v, ok := parseBool(getenv(EnvSHA256)); ok {
		c.Encoder.SHA256 = v
	}
	return c.Validate()
}

// Validate checks values that cannot be caught by the TOML decoder.
func (c Config) Validate() error {
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Serial.Baud)
	}
	if c.WebSocket.URL != "" && !strings.HasPrefix(c.WebSocket.URL, "ws://") && !strings.HasPrefix(c.WebSocket.URL, "wss://") {
		return fmt.Errorf("invalid websocket URL %q (use ws:// or wss://)", c.WebSocket.URL)
	}
	return nil
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
