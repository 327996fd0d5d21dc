// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/CTS-SAT-1/ground-support/internal/session"
	"github.com/CTS-SAT-1/ground-support/pkg/uplink"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	sessionsLimit          int
	sessionsShowLineEnds   bool
	sessionsShowTimestamps bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Browse recorded RX/TX sessions",
	Long: `Browse RX/TX logs recorded by the terminal and send commands.

Recording is enabled by setting a session database with --session-db,
CTS1_SESSION_DB, or session.database in the config file.`,
	Args: cobra.NoArgs,
	RunE: runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the RX/TX log of one session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "Number of sessions to list (0 for all)")
	sessionsShowCmd.Flags().BoolVar(&sessionsShowLineEnds, "line-endings", false, "Show line ending markers")
	sessionsShowCmd.Flags().BoolVar(&sessionsShowTimestamps, "timestamps", true, "Show entry timestamps")
}

func openSessionStore() (*session.Store, error) {
	if cfg.Session.Database == "" {
		return nil, errors.New("no session database configured (use --session-db)")
	}
	return session.Open(cfg.Session.Database)
}

// startRecording records every link entry to the session database, when one
// is configured. The returned stop function flushes and closes it.
func startRecording(ctx context.Context, link *uplink.Link, connection string) (func(), error) {
	if cfg.Session.Database == "" {
		return func() {}, nil
	}

	store, err := openSessionStore()
	if err != nil {
		return nil, err
	}
	id, err := store.StartSession(ctx, connection, time.Now())
	if err != nil {
		store.Close()
		return nil, err
	}

	rec := session.NewRecorder(store, id, logger)
	link.Observe(rec.Record)
	logger.Info("recording session", "id", id, "database", cfg.Session.Database)

	return func() {
		rec.Close()
		store.Close()
	}, nil
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	store, err := openSessionStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.Sessions(cmd.Context(), sessionsLimit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded.")
		return nil
	}

	idStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)
	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	for _, s := range sessions {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
			idStyle.Render(fmt.Sprintf("#%-4d", s.ID)),
			s.StartedAt.Format(uplink.TimestampLayout),
			headerStyle.Render(fmt.Sprintf("%s (%d entries)", s.Connection, s.EntryCount)),
		)
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid session id %q", args[0])
	}

	store, err := openSessionStore()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Entries(cmd.Context(), id)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), renderEntries(entries, sessionsShowLineEnds, sessionsShowTimestamps))
	return nil
}
