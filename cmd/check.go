// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/CTS-SAT-1/ground-support/pkg/audit"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	checkOnly []string
	checkJSON bool
	checkList bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the release-gate audits against the firmware tree",
	Long: `Run the release-gate audits against the firmware repository (--repo).

Audits:
  struct-completeness       every telecommand struct sets all required fields
  argument-documentation    docstrings document the declared argument count
  naming-convention         handlers are named TCMDEXEC_<name>
  telecommand-registration  TCMDEXEC_ functions and table entries match
  test-registration         TEST_EXEC_ functions and the unit test inventory match

Every selected audit runs even when an earlier one fails.

Exit codes:
  0 - All audits passed
  N - Number of audits that failed`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringSliceVar(&checkOnly, "only", nil, "Run only these audits (comma separated)")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the report as JSON")
	checkCmd.Flags().BoolVar(&checkList, "list", false, "List the available audits and exit")
}

func runCheck(cmd *cobra.Command, args []string) error {
	if checkList {
		for _, a := range audit.All() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-26s %s\n", a.Name, a.Description)
		}
		return nil
	}

	audits, err := audit.Select(checkOnly)
	if err != nil {
		return err
	}

	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	report := audit.Run(audit.Input{Root: cfg.Repo, Catalog: cat}, audits, logger.WithPrefix("check"))

	if checkJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		printReport(cmd.OutOrStdout(), report)
	}

	if failed := len(report.Failed()); failed > 0 {
		return &ExitError{Code: failed, Err: fmt.Errorf("%d of %d audits failed", failed, len(report.Results))}
	}
	return nil
}

func printReport(w io.Writer, report audit.Report) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	passStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")).
		Bold(true)

	failStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	findingStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	var s strings.Builder
	s.WriteString(titleStyle.Render("CTS1 - RELEASE GATE AUDITS"))
	s.WriteString("\n\n")

	for _, res := range report.Results {
		if res.Passed() {
			s.WriteString(passStyle.Render("✓ " + res.Name))
		} else {
			s.WriteString(failStyle.Render("✗ " + res.Name))
		}
		s.WriteString(" ")
		s.WriteString(headerStyle.Render(res.Summary))
		s.WriteString("\n")
		if res.Error != "" {
			s.WriteString("    ")
			s.WriteString(failStyle.Render("error: " + res.Error))
			s.WriteString("\n")
		}
		for _, f := range res.Findings {
			s.WriteString("    ")
			s.WriteString(findingStyle.Render(f.String()))
			s.WriteString("\n")
		}
	}

	failed := len(report.Failed())
	s.WriteString("\n")
	summary := fmt.Sprintf("%d passed, %d failed, %d findings", len(report.Results)-failed, failed, report.FindingCount())
	if failed > 0 {
		s.WriteString(failStyle.Render(summary))
	} else {
		s.WriteString(passStyle.Render(summary))
	}
	s.WriteString("\n")

	fmt.Fprint(w, s.String())
}
