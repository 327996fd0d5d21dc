// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/CTS-SAT-1/ground-support/internal/config"
	"github.com/CTS-SAT-1/ground-support/pkg/uplink"
	"golang.org/x/term"
)

// cachedPassword keeps a prompted password for reconnects
var cachedPassword string

// GetPassword retrieves password from environment or prompts user once
func GetPassword() (string, error) {
	if pw := os.Getenv(config.EnvPassword); pw != "" {
		return pw, nil
	}
	if cachedPassword != "" {
		return cachedPassword, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	// Read password without echo
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		cachedPassword = strings.TrimSpace(password)
		return cachedPassword, nil
	}

	fmt.Fprintln(os.Stderr)
	cachedPassword = string(passwordBytes)
	return cachedPassword, nil
}

// OpenConnection opens either a serial or WebSocket connection based on the
// resolved settings. The returned name is what the link log shows.
func OpenConnection(ctx context.Context) (uplink.Connection, string, error) {
	if cfg.WebSocket.URL != "" {
		password := ""
		if cfg.WebSocket.Username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		conn, err := uplink.OpenWebSocket(ctx, cfg.WebSocket.URL, uplink.WebSocketOptions{
			Username:      cfg.WebSocket.Username,
			Password:      password,
			SkipSSLVerify: cfg.WebSocket.NoSSLVerify,
		})
		if err != nil {
			return nil, "", err
		}
		return conn, cfg.WebSocket.URL, nil
	}

	if cfg.Serial.Port != "" {
		conn, err := uplink.OpenSerial(cfg.Serial.Port, cfg.Serial.Baud)
		if err != nil {
			return nil, "", err
		}
		return conn, cfg.Serial.Port, nil
	}

	return nil, "", errors.New("either --port or --url must be specified")
}

// connectionInfo describes the configured connection for banners.
func connectionInfo() string {
	if cfg.WebSocket.URL != "" {
		return fmt.Sprintf("WebSocket: %s", cfg.WebSocket.URL)
	}
	if cfg.Serial.Port != "" {
		return fmt.Sprintf("Serial: %s @ %d baud", cfg.Serial.Port, cfg.Serial.Baud)
	}
	return uplink.Disconnected
}
