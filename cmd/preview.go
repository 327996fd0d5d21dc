// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var previewVerbose bool

var previewCmd = &cobra.Command{
	Use:   "preview <name> [args...]",
	Short: "Print the encoded form of a telecommand without sending it",
	Long: `Encode a telecommand exactly as send would and print it.

Arguments are checked against the firmware catalog: the argument count must
match the table, and no argument may be empty or contain '(', ')' or ','.

Example:
  cts1 preview echo_back_args "hello world" --sha256 --tsexec 0
  CTS1+echo_back_args(hello world)@tsexec=0@sha256=...!`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
	addEncodeFlags(previewCmd)
	previewCmd.Flags().BoolVarP(&previewVerbose, "verbose", "v", false, "Also show the body and each suffix tag")
}

func runPreview(cmd *cobra.Command, args []string) error {
	msg, err := buildCommand(args[0], args[1:])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, msg.String())
	if !previewVerbose {
		return nil
	}

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)
	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Body:"), valueStyle.Render(msg.Body()))
	fmt.Fprintf(out, "%s %d bytes\n", labelStyle.Render("Length:"), len(msg.String()))
	for _, tag := range msg.Tags.All() {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("@"+tag.Key+":"), valueStyle.Render(tag.Value))
	}
	return nil
}
