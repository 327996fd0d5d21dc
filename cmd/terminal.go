// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/CTS-SAT-1/ground-support/pkg/uplink"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	terminalLineEndings bool
	terminalTimestamps  bool
	terminalMaxEntries  int
)

var terminalCmd = &cobra.Command{
	Use:   "terminal",
	Short: "Interactive telecommand terminal",
	Long: `Send telecommands and watch the RX/TX log in an interactive terminal UI.

The command list comes from the firmware catalog (--repo). Selecting a command
shows one input per declared argument, labelled from the handler docstring.
Commands are validated before they are queued; problems are shown in the log.

Keys:
  tab / shift+tab   move between command list, arguments, tsexec and log
  enter             send the selected command
  /                 filter the command list
  ctrl+g            toggle @tssent
  ctrl+s            toggle @sha256
  ctrl+e            toggle line ending markers
  ctrl+t            toggle timestamps
  ctrl+l            clear the log
  ctrl+r            reconnect
  ctrl+d            disconnect
  ctrl+c            quit

The terminal starts even when no connection can be opened; commands sent while
disconnected are rejected. Sessions are recorded when --session-db is set.

Supports both serial and WebSocket connections.`,
	Args: cobra.NoArgs,
	RunE: runTerminal,
}

func init() {
	rootCmd.AddCommand(terminalCmd)
	terminalCmd.Flags().BoolVar(&terminalLineEndings, "line-endings", false, "Show line ending markers")
	terminalCmd.Flags().BoolVar(&terminalTimestamps, "timestamps", true, "Show entry timestamps")
	terminalCmd.Flags().IntVar(&terminalMaxEntries, "max-entries", uplink.DefaultMaxEntries, "RX/TX log entries kept on screen")
}

func runTerminal(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	link := uplink.NewLink(newLinkLogger(), uplink.LinkOptions{MaxEntries: terminalMaxEntries})

	// Resolve the password before the TUI takes over the terminal
	connName := uplink.Disconnected
	conn, name, err := OpenConnection(ctx)
	if err != nil {
		logger.Warn("starting disconnected", "err", err)
	} else {
		connName = name
	}

	stopRecording, err := startRecording(ctx, link, connName)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return err
	}
	defer stopRecording()

	m := initialTerminalModel(cat, link, terminalSettings{
		sentTimestamp:   cfg.Encoder.SentTimestamp,
		sha256:          cfg.Encoder.SHA256,
		showLineEndings: terminalLineEndings,
		showTimestamps:  terminalTimestamps,
	})
	m.connect = OpenConnection

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	// Coalesce link activity into periodic redraws
	dirty := make(chan struct{}, 1)
	link.Observe(func(uplink.Entry) {
		select {
		case dirty <- struct{}{}:
		default:
		}
	})
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case <-dirty:
					p.Send(linkUpdateMsg{})
				default:
				}
			}
		}
	}()

	if conn != nil {
		link.Attach(conn, name)
	} else {
		link.Notice("Disconnected. Press ctrl+r to connect.")
	}

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		link.Run(ctx)
	}()

	_, runErr := p.Run()
	interrupted := ctx.Err() != nil
	cancel()
	<-workerDone
	if runErr != nil && !interrupted {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}
