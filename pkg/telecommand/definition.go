// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package telecommand

import (
	"strconv"
	"strings"
)

// Firmware declaration constants
const (
	// DefinitionStructType is the struct type of the telecommand table.
	DefinitionStructType = "TCMD_TelecommandDefinition_t"

	// HandlerPrefix binds a telecommand name to its handler function.
	HandlerPrefix = "TCMDEXEC_"

	// ArgumentsMarker introduces the argument descriptions in a docstring.
	ArgumentsMarker = "@param args_str"
)

// Struct field names in the telecommand table
const (
	FieldName           = "tcmd_name"
	FieldHandler        = "tcmd_func"
	FieldArgumentCount  = "number_of_args"
	FieldReadinessLevel = "readiness_level"
)

// RequiredFields lists the fields every table entry must set, in table order.
var RequiredFields = []string{FieldName, FieldHandler, FieldArgumentCount, FieldReadinessLevel}

// Readiness levels declared by the firmware (TCMD_readiness_level_enum_t).
// The catalog treats the level as an opaque string; these exist for display.
const (
	ReadinessIdeaPhase       = "TCMD_READINESS_LEVEL_IDEA_PHASE"
	ReadinessNotImplemented  = "TCMD_READINESS_LEVEL_NOT_IMPLEMENTED"
	ReadinessInProgress      = "TCMD_READINESS_LEVEL_IN_PROGRESS"
	ReadinessGroundUsageOnly = "TCMD_READINESS_LEVEL_GROUND_USAGE_ONLY"
	ReadinessFlightTesting   = "TCMD_READINESS_LEVEL_FLIGHT_TESTING"
	ReadinessForOperation    = "TCMD_READINESS_LEVEL_FOR_OPERATION"
)

const readinessLevelPrefix = "TCMD_READINESS_LEVEL_"

// FieldProblem describes a required field that is missing or could not be parsed.
type FieldProblem struct {
	Field  string `json:"field" yaml:"field" cbor:"field"`
	Reason string `json:"reason" yaml:"reason" cbor:"reason"`
}

func (p FieldProblem) String() string {
	return p.Field + ": " + p.Reason
}

// Definition is one entry of the telecommand table, joined with the
// documentation attached to its handler function.
type Definition struct {
	Index          int
	Name           string
	HandlerSymbol  string
	ArgumentCount  int
	ReadinessLevel string

	Docstring    string
	HasDocstring bool

	// ArgumentDescriptions is only meaningful when ArgumentsDocumented is set.
	// Documented-as-zero is ArgumentsDocumented with an empty list.
	ArgumentDescriptions []string
	ArgumentsDocumented  bool

	Problems []FieldProblem
}

// Complete reports whether every required field was present and parseable.
func (d Definition) Complete() bool {
	return len(d.Problems) == 0
}

// MissingFields returns the names of the fields listed in Problems.
func (d Definition) MissingFields() []string {
	fields := make([]string, 0, len(d.Problems))
	for _, p := range d.Problems {
		fields = append(fields, p.Field)
	}
	return fields
}

// ExpectedHandler returns the handler symbol the naming convention requires.
func (d Definition) ExpectedHandler() string {
	return HandlerPrefix + d.Name
}

// DisplayName returns the name, or a positional placeholder for unnamed entries.
func (d Definition) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return "<entry " + strconv.Itoa(d.Index) + ">"
}

// ShortReadiness trims the enum prefix from the readiness level ("FOR_OPERATION").
func (d Definition) ShortReadiness() string {
	return strings.TrimPrefix(d.ReadinessLevel, readinessLevelPrefix)
}

// clone returns a deep copy so snapshots never share slices with callers.
func (d Definition) clone() Definition {
	if d.ArgumentDescriptions != nil {
		d.ArgumentDescriptions = append([]string{}, d.ArgumentDescriptions...)
	}
	if d.Problems != nil {
		d.Problems = append([]FieldProblem(nil), d.Problems...)
	}
	return d
}
