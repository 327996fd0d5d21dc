// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/CTS-SAT-1/ground-support/internal/config"
	"github.com/CTS-SAT-1/ground-support/internal/logging"
	"github.com/CTS-SAT-1/ground-support/pkg/telecommand"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Firmware tree and config file flags
	repoPath   string
	configPath string

	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Diagnostics flags
	logLevel  string
	sessionDB string
)

var (
	cfg       = config.Default()
	logger    = logging.Discard()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "cts1",
	Short: "CTS-SAT-1 ground support tooling",
	Long: `cts1 - Ground support tooling for the CTS-SAT-1 on-board computer.

Reads the telecommand table and handler docstrings straight from the firmware
source tree, encodes telecommands in the wire syntax the OBC parser expects,
runs the release-gate audits, and drives an interactive telecommand terminal.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

Settings are read from the config file (--config, CTS1_CONFIG, or the user
config directory), then CTS1_* environment variables, then flags.

For WebSocket authentication, the password is read from the CTS1_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&repoPath, "repo", "", "Root of the CTS-SAT-1 firmware repository")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (TOML)")

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&sessionDB, "session-db", "", "SQLite file for recording terminal sessions")
}

// Execute runs the root command. An interrupt cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() {
		if logCloser != nil {
			logCloser.Close()
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// loadSettings resolves the config file, environment and flags into cfg and
// builds the logger.
func loadSettings(cmd *cobra.Command, args []string) error {
	path, optional := configPath, false
	if path == "" {
		path = os.Getenv(config.EnvConfigFile)
	}
	if path == "" {
		path, optional = config.DefaultPath(), true
	}

	loaded, err := config.Load(path, optional)
	if err != nil {
		return err
	}
	if err := loaded.ApplyEnv(os.Getenv); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("repo") {
		loaded.Repo = repoPath
	}
	if flags.Changed("port") {
		loaded.Serial.Port = portName
	}
	if flags.Changed("baud") {
		loaded.Serial.Baud = baudRate
	}
	if flags.Changed("url") {
		loaded.WebSocket.URL = wsURL
	}
	if flags.Changed("username") {
		loaded.WebSocket.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		loaded.WebSocket.NoSSLVerify = wsNoSSLVerify
	}
	if flags.Changed("log-level") {
		loaded.Log.Level = logLevel
	}
	if flags.Changed("session-db") {
		loaded.Session.Database = sessionDB
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}
	logger, logCloser = logging.New(os.Stderr, logging.Options{
		Level:     cfg.Log.Level,
		File:      cfg.Log.File,
		Timestamp: cfg.Log.Timestamp,
		Prefix:    "cts1",
	})
	logger.Debug("settings loaded", "config", path, "repo", cfg.Repo)
	return nil
}

// loadCatalog builds the telecommand catalog from the configured firmware tree.
func loadCatalog() (*telecommand.Catalog, error) {
	cat, err := telecommand.Build(cfg.Repo, telecommand.DefaultOptions())
	if err != nil {
		return nil, err
	}
	if bad := cat.Incomplete(); len(bad) > 0 {
		logger.Warn("telecommand table has incomplete entries", "count", len(bad))
	}
	logger.Debug("catalog built", "repo", cfg.Repo, "telecommands", cat.Len())
	return cat, nil
}

// newLinkLogger returns the logger used by uplink.Link.
func newLinkLogger() *log.Logger {
	return logger.WithPrefix("link")
}
