// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/CTS-SAT-1/ground-support/pkg/uplink"
	"github.com/spf13/cobra"
)

var (
	sendWait        time.Duration
	sendLineEndings bool
)

var sendCmd = &cobra.Command{
	Use:   "send <name> [args...]",
	Short: "Encode, validate and transmit one telecommand",
	Long: `Encode a telecommand, validate it against the firmware catalog, and
transmit it over the configured connection.

Everything received within --wait of the transmission is printed, so the
firmware's response to the command is visible.

Supports both serial and WebSocket connections.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	addEncodeFlags(sendCmd)
	sendCmd.Flags().DurationVarP(&sendWait, "wait", "w", 2*time.Second, "How long to collect the response")
	sendCmd.Flags().BoolVar(&sendLineEndings, "line-endings", false, "Show line ending markers in the response")
}

func runSend(cmd *cobra.Command, args []string) error {
	msg, err := buildCommand(args[0], args[1:])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	conn, name, err := OpenConnection(ctx)
	if err != nil {
		return err
	}

	link := uplink.NewLink(newLinkLogger(), uplink.LinkOptions{})
	stopRecording, err := startRecording(ctx, link, name)
	if err != nil {
		conn.Close()
		return err
	}
	defer stopRecording()

	sender := newSyncSender(link)
	link.Attach(conn, name)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		link.Run(ctx)
	}()
	defer func() {
		cancel()
		<-workerDone
	}()

	response, err := sender.send(ctx, msg.String(), sendWait)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Sent: %s\n", msg.String())

	if response == "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "No response within %s\n", sendWait)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), uplink.FormatBytes([]byte(response), sendLineEndings))
	return nil
}
