// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/CTS-SAT-1/ground-support/pkg/uplink"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	bulkDestination string
	bulkChunkSize   int
	bulkDelay       time.Duration
	bulkSettle      time.Duration
	bulkDryRun      bool
)

var bulkUplinkCmd = &cobra.Command{
	Use:   "bulk_uplink <file> -o <destination>",
	Short: "Uplink a file to the satellite filesystem in base64 chunks",
	Long: `Write a local file to the satellite filesystem with bulkup64 telecommands.

The transfer closes any half-finished upload, opens the destination with
truncation, sends the file in base64 chunks, closes the file, and compares the
satellite's SHA256 of the written file with the local one.

Each chunk is acknowledged by the firmware with the number of bytes written.
Chunks without an acknowledgement are reported at the end.

Fastest known working settings over UART: --chunk-size 150 --delay 400ms

Exit codes:
  0 - Transfer complete and hash confirmed
  1 - Transfer failed or hash mismatch`,
	Args: cobra.ExactArgs(1),
	RunE: runBulkUplink,
}

func init() {
	rootCmd.AddCommand(bulkUplinkCmd)
	bulkUplinkCmd.Flags().StringVarP(&bulkDestination, "output-file", "o", "", "Destination path on the satellite filesystem")
	bulkUplinkCmd.Flags().IntVar(&bulkChunkSize, "chunk-size", uplink.DefaultChunkSize, "File bytes per chunk, before base64 encoding")
	bulkUplinkCmd.Flags().DurationVar(&bulkDelay, "delay", 250*time.Millisecond, "Delay between chunks")
	bulkUplinkCmd.Flags().DurationVar(&bulkSettle, "settle", time.Second, "Wait after each setup and teardown command")
	bulkUplinkCmd.Flags().BoolVar(&bulkDryRun, "dry-run", false, "Print the command sequence instead of sending it")
	bulkUplinkCmd.MarkFlagRequired("output-file")
}

func runBulkUplink(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	plan, err := uplink.PlanBulkUplink(data, bulkDestination, bulkChunkSize)
	if err != nil {
		return err
	}

	if bulkDryRun {
		for _, c := range plan.Commands() {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
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

	logger.Info("Starting file uplink", "file", args[0], "destination", plan.Destination,
		"bytes", plan.Size, "chunks", len(plan.Chunks), "connection", connectionInfo())

	for _, c := range plan.Setup {
		if _, err := sender.send(ctx, c, bulkSettle); err != nil {
			return err
		}
	}

	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	interactive := term.IsTerminal(int(os.Stderr.Fd()))

	var problems []int
	written := 0
	for i, c := range plan.Chunks {
		response, err := sender.send(ctx, c, bulkDelay)
		if err != nil {
			return err
		}
		if !uplink.ChunkAcknowledged([]byte(response), plan.ChunkSizes[i]) {
			problems = append(problems, i)
			logger.Warn("Unexpected response during bulk uplink", "chunk", i, "problematic", len(problems))
		}

		written += plan.ChunkSizes[i]
		if interactive {
			fmt.Fprintf(os.Stderr, "\r%s %d/%d B", bar.ViewAs(float64(written)/float64(max(plan.Size, 1))), written, plan.Size)
		}
	}
	if interactive {
		fmt.Fprintln(os.Stderr)
	}

	var hashResponse string
	for _, c := range plan.Teardown {
		hashResponse, err = sender.send(ctx, c, bulkSettle)
		if err != nil {
			return err
		}
	}

	if len(problems) > 0 {
		logger.Warn("Chunks without acknowledgement", "count", len(problems), "indexes", problems)
	}
	logger.Info("SHA256 of input file (computer-side)", "sha256", plan.SHA256)
	if !uplink.HashConfirmed([]byte(hashResponse), plan.SHA256) {
		logger.Error("SHA256 of input file does NOT match hash on satellite")
		return errors.New("hash mismatch after bulk uplink")
	}
	logger.Info("SHA256 of input file matches hash on satellite")
	return nil
}

// syncSender sends one command at a time and collects what is received after
// it is transmitted.
type syncSender struct {
	link *uplink.Link
	sent chan uplink.Entry
}

func newSyncSender(link *uplink.Link) *syncSender {
	s := &syncSender{link: link, sent: make(chan uplink.Entry, 1)}
	link.Observe(func(e uplink.Entry) {
		if e.Kind != uplink.EntryTransmit && e.Kind != uplink.EntryError {
			return
		}
		select {
		case s.sent <- e:
		default:
		}
	})
	return s
}

// send transmits command, waits for wait, and returns the received text.
func (s *syncSender) send(ctx context.Context, command string, wait time.Duration) (string, error) {
	if err := s.link.Send(command); err != nil {
		return "", err
	}

	var sentAt time.Time
	select {
	case e := <-s.sent:
		if e.Kind == uplink.EntryError {
			return "", errors.New(string(e.Data))
		}
		sentAt = e.Time
	case <-ctx.Done():
		return "", ctx.Err()
	}
	logger.Debug("Sent", "command", command)

	select {
	case <-time.After(wait):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	response := uplink.Transcript(s.link.Entries(), sentAt)
	logger.Debug("Response", "text", response)
	return response, nil
}
