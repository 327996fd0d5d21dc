// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/CTS-SAT-1/ground-support/pkg/telecommand"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	catalogShowPlain    bool
	catalogExportFormat string
	catalogExportOutput string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the telecommand catalog",
	Long: `Inspect the telecommand catalog extracted from the firmware source tree.

The catalog is rebuilt from the firmware repository (--repo) on every run:
the telecommand table in telecommand_definitions.c is parsed and each entry is
joined with the /// docstring of its TCMDEXEC_ handler.`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every telecommand in table order",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one telecommand with its documentation",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogShow,
}

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog as JSON, YAML or CBOR",
	Long: `Export the catalog for other ground tooling.

Arguments are null for telecommands whose docstring does not document broken-out
arguments, and an empty list for those documented to take none.`,
	Args: cobra.NoArgs,
	RunE: runCatalogExport,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd, catalogShowCmd, catalogExportCmd)

	catalogShowCmd.Flags().BoolVar(&catalogShowPlain, "plain", false, "Print markdown without terminal rendering")

	catalogExportCmd.Flags().StringVarP(&catalogExportFormat, "format", "f", telecommand.FormatJSON,
		"Export format ("+strings.Join(telecommand.Formats, ", ")+")")
	catalogExportCmd.Flags().StringVarP(&catalogExportOutput, "output", "o", "", "Output file (default stdout)")
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true).
		Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	problemStyle := cellStyle.Foreground(lipgloss.Color("9"))

	defs := cat.Definitions()
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("#", "NAME", "ARGS", "READINESS", "DOCS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 4 && docsStatus(defs[row]) != "ok" {
				return problemStyle
			}
			return cellStyle
		})
	for _, d := range defs {
		t.Row(strconv.Itoa(d.Index), d.DisplayName(), strconv.Itoa(d.ArgumentCount), d.ShortReadiness(), docsStatus(d))
	}

	fmt.Fprintln(cmd.OutOrStdout(), t.String())
	fmt.Fprintf(cmd.OutOrStdout(), "%d telecommands (%d incomplete)\n", cat.Len(), len(cat.Incomplete()))
	return nil
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	d, ok := cat.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown telecommand %q", args[0])
	}

	doc := definitionMarkdown(d)
	if catalogShowPlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), doc)
		return nil
	}

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(doc)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", d.Name, err)
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	data, err := cat.Document().Marshal(catalogExportFormat)
	if err != nil {
		return err
	}

	if catalogExportOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(catalogExportOutput, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", catalogExportOutput, err)
	}
	logger.Info("catalog exported", "format", catalogExportFormat, "file", catalogExportOutput, "telecommands", cat.Len())
	return nil
}

func docsStatus(d telecommand.Definition) string {
	switch {
	case !d.Complete():
		return "incomplete: " + strings.Join(d.MissingFields(), ", ")
	case !d.HasDocstring:
		return "missing"
	case d.ArgumentCount > 0 && !d.ArgumentsDocumented:
		return "no args"
	case d.ArgumentsDocumented && len(d.ArgumentDescriptions) != d.ArgumentCount:
		return fmt.Sprintf("%d/%d args", len(d.ArgumentDescriptions), d.ArgumentCount)
	default:
		return "ok"
	}
}

// definitionMarkdown renders a definition for `catalog show`.
func definitionMarkdown(d telecommand.Definition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.DisplayName())
	fmt.Fprintf(&b, "- **Handler:** `%s`\n", d.HandlerSymbol)
	fmt.Fprintf(&b, "- **Arguments:** %d\n", d.ArgumentCount)
	fmt.Fprintf(&b, "- **Readiness:** %s\n", d.ShortReadiness())
	for _, p := range d.Problems {
		fmt.Fprintf(&b, "- **Problem:** %s\n", p)
	}

	if d.ArgumentsDocumented && len(d.ArgumentDescriptions) > 0 {
		b.WriteString("\n## Arguments\n\n")
		for i, desc := range d.ArgumentDescriptions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, desc)
		}
	}

	b.WriteString("\n## Documentation\n\n")
	if d.HasDocstring {
		fmt.Fprintf(&b, "```\n%s\n```\n", d.Docstring)
	} else {
		b.WriteString("_No docstring found._\n")
	}
	return b.String()
}
