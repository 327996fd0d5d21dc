// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package audit

import (
	"fmt"
	"strings"

	"github.com/CTS-SAT-1/ground-support/pkg/telecommand"
)

// Audit names
const (
	NameStructCompleteness      = "struct-completeness"
	NameNamingConvention        = "naming-convention"
	NameArgumentDocumentation   = "argument-documentation"
	NameTelecommandRegistration = "telecommand-registration"
	NameTestRegistration        = "test-registration"
)

// StructCompleteness reports every table entry missing a required field, and
// every telecommand name used by more than one entry.
func StructCompleteness(cat *telecommand.Catalog) Result {
	defs := cat.Definitions()
	res := Result{Name: NameStructCompleteness}

	for _, d := range defs {
		if d.Complete() {
			continue
		}
		problems := make([]string, 0, len(d.Problems))
		for _, p := range d.Problems {
			problems = append(problems, p.String())
		}
		res.Findings = append(res.Findings, Finding{
			Kind:    KindMissingField,
			Subject: d.DisplayName(),
			Message: fmt.Sprintf("the struct for the '%s' telecommand is missing required fields (%s)",
				d.DisplayName(), strings.Join(problems, "; ")),
		})
	}

	counts := make(map[string]int)
	var order []string
	for _, d := range defs {
		if d.Name == "" {
			continue
		}
		if counts[d.Name] == 0 {
			order = append(order, d.Name)
		}
		counts[d.Name]++
	}
	for _, name := range order {
		if counts[name] > 1 {
			res.Findings = append(res.Findings, Finding{
				Kind:    KindDuplicateName,
				Subject: name,
				Message: fmt.Sprintf("the telecommand name '%s' is registered %d times", name, counts[name]),
			})
		}
	}

	res.Summary = fmt.Sprintf("%d telecommand structs checked for required fields", len(defs))
	return res
}

// NamingConvention reports every entry whose handler is not prefix + name.
func NamingConvention(cat *telecommand.Catalog, prefix string) Result {
	defs := cat.Definitions()
	res := Result{Name: NameNamingConvention}

	for _, d := range defs {
		want := prefix + d.Name
		if d.HandlerSymbol == want {
			continue
		}
		res.Findings = append(res.Findings, Finding{
			Kind:    KindNamingMismatch,
			Subject: d.DisplayName(),
			Message: fmt.Sprintf("the '%s' telecommand has function name `%s`, expected `%s`",
				d.DisplayName(), d.HandlerSymbol, want),
		})
	}

	res.Summary = fmt.Sprintf("%d telecommand function names checked against their registration names", len(defs))
	return res
}
