// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package audit

import "fmt"

// Kind identifies the rule a finding violates.
type Kind string

// Field validation
const (
	KindMissingField   Kind = "missing_field"
	KindDuplicateName  Kind = "duplicate_name"
	KindNamingMismatch Kind = "naming_mismatch"
)

// Documentation gaps
const (
	KindMissingDocstring      Kind = "missing_docstring"
	KindUndocumentedArguments Kind = "undocumented_arguments"
	KindArgumentCountMismatch Kind = "argument_count_mismatch"
)

// Reconciliation
const (
	KindDuplicateDefinition   Kind = "duplicate_definition"
	KindDuplicateRegistration Kind = "duplicate_registration"
	KindUnregistered          Kind = "unregistered"
	KindUndefined             Kind = "undefined"
)

// Category groups finding kinds.
type Category string

// Finding categories
const (
	CategoryFieldValidation  Category = "field_validation"
	CategoryDocumentationGap Category = "documentation_gap"
	CategoryReconciliation   Category = "reconciliation"
)

// Category returns the group the kind belongs to.
func (k Kind) Category() Category {
	switch k {
	case KindMissingDocstring, KindUndocumentedArguments, KindArgumentCountMismatch:
		return CategoryDocumentationGap
	case KindDuplicateDefinition, KindDuplicateRegistration, KindUnregistered, KindUndefined:
		return CategoryReconciliation
	default:
		return CategoryFieldValidation
	}
}

// Finding is one problem found by an audit.
type Finding struct {
	Kind    Kind   `json:"kind"`
	Subject string `json:"subject"` // telecommand name or function symbol
	Message string `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s", f.Kind, f.Message)
}

// Result is the outcome of one audit. Audits never stop at the first
// finding.
type Result struct {
	Name     string    `json:"name"`
	Summary  string    `json:"summary"`
	Findings []Finding `json:"findings"`

	// Error is set when the audit could not run to completion, e.g. a
	// missing source file. Such an audit counts as failed.
	Error string `json:"error,omitempty"`
}

// Passed reports whether the audit ran and found nothing.
func (r Result) Passed() bool {
	return r.Error == "" && len(r.Findings) == 0
}

// Report collects audit results in run order.
type Report struct {
	Results []Result `json:"results"`
}

// Failed returns the results with findings or errors.
func (r Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.Passed() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Passed reports whether every audit passed.
func (r Report) Passed() bool {
	return len(r.Failed()) == 0
}

// FindingCount returns the total number of findings.
func (r Report) FindingCount() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.Findings)
	}
	return n
}
