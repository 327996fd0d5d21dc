// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/CTS-SAT-1/ground-support/pkg/telecommand"
)

// Family describes one kind of registered firmware function: where its
// definitions live and which table registers them.
type Family struct {
	// Name is used in audit names and messages.
	Name string
	// AuditName is the Result name.
	AuditName string
	// Prefix every function of the family starts with.
	Prefix string
	// Definition matches a function definition. Group 1 is the symbol.
	Definition *regexp.Regexp
	// RegistrationFile is the registering table, relative to the root.
	RegistrationFile string
	// Registration matches one table entry. Group 1 is the symbol.
	Registration *regexp.Regexp
	// SourceExtensions selects the files searched for definitions.
	SourceExtensions []string
	// SkipDirs are directory names never entered while searching.
	SkipDirs []string
}

// TelecommandFamily covers TCMDEXEC_ handlers registered in the telecommand table.
var TelecommandFamily = Family{
	Name:             "telecommand handler",
	AuditName:        NameTelecommandRegistration,
	Prefix:           telecommand.HandlerPrefix,
	Definition:       regexp.MustCompile(`(?s)int.{0,10}(TCMDEXEC_\w+)`),
	RegistrationFile: telecommand.DefaultDefinitionsFile,
	Registration:     regexp.MustCompile(`\.tcmd_func\s*=\s*(TCMDEXEC_\w+)`),
	SourceExtensions: []string{".c"},
	SkipDirs:         []string{".git", "build"},
}

// TestExecutorFamily covers TEST_EXEC_ unit tests registered in the unit test
// inventory.
var TestExecutorFamily = Family{
	Name:             "unit test",
	AuditName:        NameTestRegistration,
	Prefix:           "TEST_EXEC_",
	Definition:       regexp.MustCompile(`(?s)int.{0,30}(TEST_EXEC_\w+)`),
	RegistrationFile: "firmware/Core/Src/unit_tests/unit_test_inventory.c",
	Registration:     regexp.MustCompile(`\.test_func\s*=\s*(TEST_EXEC_\w+)\s*,`),
	SourceExtensions: []string{".c"},
	SkipDirs:         []string{".git", "build"},
}

// Reconciliation compares the symbols a family defines with the symbols its
// table registers. Each list is sorted and holds each symbol once.
type Reconciliation struct {
	DuplicateDefinitions   []string
	DuplicateRegistrations []string
	// Unregistered symbols are defined but not in the table.
	Unregistered []string
	// Undefined symbols are in the table but never defined.
	Undefined []string
}

// Reconcile classifies definitions against registrations. Both lists may
// contain repeats; repeats are what the duplicate classes report.
func Reconcile(definitions, registrations []string) Reconciliation {
	defCounts := countSymbols(definitions)
	regCounts := countSymbols(registrations)

	var r Reconciliation
	for sym, n := range defCounts {
		if n > 1 {
			r.DuplicateDefinitions = append(r.DuplicateDefinitions, sym)
		}
		if regCounts[sym] == 0 {
			r.Unregistered = append(r.Unregistered, sym)
		}
	}
	for sym, n := range regCounts {
		if n > 1 {
			r.DuplicateRegistrations = append(r.DuplicateRegistrations, sym)
		}
		if defCounts[sym] == 0 {
			r.Undefined = append(r.Undefined, sym)
		}
	}

	sort.Strings(r.DuplicateDefinitions)
	sort.Strings(r.DuplicateRegistrations)
	sort.Strings(r.Unregistered)
	sort.Strings(r.Undefined)
	return r
}

func countSymbols(symbols []string) map[string]int {
	counts := make(map[string]int, len(symbols))
	for _, s := range symbols {
		counts[s]++
	}
	return counts
}

// Findings converts the reconciliation into findings. Duplicates come first.
func (r Reconciliation) Findings(f Family) []Finding {
	var findings []Finding
	add := func(kind Kind, symbols []string, format string) {
		for _, sym := range symbols {
			findings = append(findings, Finding{Kind: kind, Subject: sym, Message: fmt.Sprintf(format, sym)})
		}
	}

	add(KindDuplicateDefinition, r.DuplicateDefinitions,
		"`%s` is defined more than once")
	add(KindDuplicateRegistration, r.DuplicateRegistrations,
		"`%s` is registered more than once in "+f.RegistrationFile)
	add(KindUnregistered, r.Unregistered,
		"`%s` is defined but not registered in "+f.RegistrationFile)
	add(KindUndefined, r.Undefined,
		"`%s` is registered in "+f.RegistrationFile+" but never defined")

	return findings
}

// ScanDefinitions returns every symbol of the family defined in sources, in
// file order, repeats included. Comments are ignored.
func (f Family) ScanDefinitions(sources telecommand.SourceSet) []string {
	var symbols []string
	for _, file := range sources.Files {
		code := telecommand.StripComments(file.Text)
		for _, m := range f.Definition.FindAllStringSubmatch(code, -1) {
			symbols = append(symbols, m[1])
		}
	}
	return symbols
}

// ScanRegistrations returns every symbol registered in the table text, in
// order, repeats included. Commented-out entries are ignored.
func (f Family) ScanRegistrations(table string) []string {
	var symbols []string
	for _, m := range f.Registration.FindAllStringSubmatch(telecommand.StripComments(table), -1) {
		symbols = append(symbols, m[1])
	}
	return symbols
}

// DefinitionRegistration checks that every function of the family defined
// under root is registered exactly once, and every registration is defined
// exactly once.
func DefinitionRegistration(f Family, root string) (Result, error) {
	sources, err := telecommand.ReadSources(root, f.SourceExtensions, f.SkipDirs)
	if err != nil {
		return Result{}, err
	}

	table, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f.RegistrationFile)))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read %s registration table: %w", f.Name, err)
	}

	definitions := f.ScanDefinitions(sources)
	registrations := f.ScanRegistrations(string(table))

	return Result{
		Name:     f.AuditName,
		Summary:  fmt.Sprintf("found %d `%s` function definitions and %d registrations", len(definitions), f.Prefix, len(registrations)),
		Findings: Reconcile(definitions, registrations).Findings(f),
	}, nil
}
