// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package audit

import (
	"fmt"
	"strings"

	"github.com/CTS-SAT-1/ground-support/pkg/telecommand"
	"github.com/charmbracelet/log"
)

// Input is what every audit may look at.
type Input struct {
	Root    string
	Catalog *telecommand.Catalog
}

// Audit is one named release-gate check.
type Audit struct {
	Name        string
	Description string
	Run         func(Input) (Result, error)
}

// All returns every audit in run order.
func All() []Audit {
	return []Audit{
		{
			Name:        NameStructCompleteness,
			Description: "telecommand structs set every required field and names are unique",
			Run: func(in Input) (Result, error) {
				return StructCompleteness(in.Catalog), nil
			},
		},
		{
			Name:        NameArgumentDocumentation,
			Description: "handler docstrings document the declared number of arguments",
			Run: func(in Input) (Result, error) {
				return ArgumentDocumentation(in.Catalog), nil
			},
		},
		{
			Name:        NameNamingConvention,
			Description: "handler function names are TCMDEXEC_ + telecommand name",
			Run: func(in Input) (Result, error) {
				return NamingConvention(in.Catalog, telecommand.HandlerPrefix), nil
			},
		},
		familyAudit(TelecommandFamily, "every TCMDEXEC_ function is registered in the telecommand table"),
		familyAudit(TestExecutorFamily, "every TEST_EXEC_ function is registered in the unit test inventory"),
	}
}

func familyAudit(f Family, description string) Audit {
	return Audit{
		Name:        f.AuditName,
		Description: description,
		Run: func(in Input) (Result, error) {
			return DefinitionRegistration(f, in.Root)
		},
	}
}

// Select returns the named audits in run order. No names selects all.
func Select(names []string) ([]Audit, error) {
	all := All()
	if len(names) == 0 {
		return all, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var selected []Audit
	for _, a := range all {
		if wanted[a.Name] {
			selected = append(selected, a)
			delete(wanted, a.Name)
		}
	}
	if len(wanted) > 0 {
		var unknown []string
		for n := range wanted {
			unknown = append(unknown, n)
		}
		return nil, fmt.Errorf("unknown audit(s): %s", strings.Join(unknown, ", "))
	}
	return selected, nil
}

// Run executes audits in order and logs each outcome. Every audit runs even
// after earlier ones fail. An audit that returns an error is recorded as
// failed with the error on its result.
func Run(in Input, audits []Audit, logger *log.Logger) Report {
	var report Report
	for _, a := range audits {
		res, err := a.Run(in)
		if err != nil {
			res = Result{
				Summary:  "could not run",
				Findings: res.Findings,
				Error:    err.Error(),
			}
			logger.Error("audit error", "audit", a.Name, "err", err)
		}
		res.Name = a.Name

		logger.Info(res.Summary, "audit", a.Name)
		for _, f := range res.Findings {
			logger.Warn(f.Message, "audit", a.Name, "kind", f.Kind)
		}
		if res.Passed() {
			logger.Info("passed", "audit", a.Name)
		} else {
			logger.Error("failed", "audit", a.Name, "findings", len(res.Findings))
		}

		report.Results = append(report.Results, res)
	}
	return report
}

// RunAll runs every audit against the firmware tree at root.
func RunAll(root string, cat *telecommand.Catalog, logger *log.Logger) Report {
	return Run(Input{Root: root, Catalog: cat}, All(), logger)
}
