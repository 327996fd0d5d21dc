// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package telecommand

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

const sampleTable = `#include "telecommands/telecommand_definitions.h"
#include "telecommands/system_telecommand_defs.h"

// extern
const TCMD_TelecommandDefinition_t TCMD_telecommand_definitions[] = {
    {
        .tcmd_name = "hello_world",
        .tcmd_func = TCMDEXEC_hello_world,
        .number_of_args = 0,
        .readiness_level = TCMD_READINESS_LEVEL_FOR_OPERATION,
    },
    /* {
        .tcmd_name = "disabled_command",
        .tcmd_func = TCMDEXEC_disabled_command,
        .number_of_args = 0,
        .readiness_level = TCMD_READINESS_LEVEL_IDEA_PHASE,
    }, */
    {
        .tcmd_name = "echo_back_args",
        .tcmd_func = TCMDEXEC_echo_back_args,
        .number_of_args = 1, // the whole string
        .readiness_level = TCMD_READINESS_LEVEL_FOR_OPERATION,
    },
    {
        .tcmd_name = "fs_write_file",
        .tcmd_func = TCMDEXEC_fs_write_file,
        .number_of_args = 2,
        .readiness_level = TCMD_READINESS_LEVEL_GROUND_USAGE_ONLY
    },
};

const uint16_t TCMD_NUM_TELECOMMANDS = sizeof(TCMD_telecommand_definitions) / sizeof(TCMD_TelecommandDefinition_t);
`

func TestParseArrayLiteral(t *testing.T) {
	rows, err := ParseArrayLiteral(sampleTable, DefinitionStructType)
	if err != nil {
		t.Fatalf("ParseArrayLiteral() error = %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}

	wantNames := []string{"hello_world", "echo_back_args", "fs_write_file"}
	for i, want := range wantNames {
		got, ok := rows[i].Get(FieldName)
		if !ok || got != want {
			t.Errorf("rows[%d] %s = %q (ok=%v), want %q", i, FieldName, got, ok, want)
		}
	}

	// Field order is source order and values are raw strings
	fields := rows[2].Fields
	if len(fields) != 4 {
		t.Fatalf("len(rows[2].Fields) = %d, want 4", len(fields))
	}
	if fields[2].Name != FieldArgumentCount || fields[2].Value != "2" {
		t.Errorf("rows[2].Fields[2] = %+v, want number_of_args=2", fields[2])
	}
	if fields[3].Value != ReadinessGroundUsageOnly {
		t.Errorf("readiness without trailing comma = %q, want %q", fields[3].Value, ReadinessGroundUsageOnly)
	}
}

func TestParseArrayLiteral_PreservesOrder(t *testing.T) {
	const n = 25

	var b strings.Builder
	b.WriteString("const TCMD_TelecommandDefinition_t defs[] = {\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "    { .tcmd_name = \"cmd_%02d\", .tcmd_func = TCMDEXEC_cmd_%02d, .number_of_args = %d, .readiness_level = TCMD_READINESS_LEVEL_IN_PROGRESS },\n", i, i, i%4)
	}
	b.WriteString("};\n")

	defs, err := ParseDefinitions(b.String())
	if err != nil {
		t.Fatalf("ParseDefinitions() error = %v", err)
	}
	if len(defs) != n {
		t.Fatalf("len(defs) = %d, want %d", len(defs), n)
	}
	for i, d := range defs {
		want := fmt.Sprintf("cmd_%02d", i)
		if d.Name != want || d.Index != i {
			t.Errorf("defs[%d] = {Name: %q, Index: %d}, want {Name: %q, Index: %d}", i, d.Name, d.Index, want, i)
		}
		if d.ArgumentCount != i%4 {
			t.Errorf("defs[%d].ArgumentCount = %d, want %d", i, d.ArgumentCount, i%4)
		}
	}
}

func TestParseArrayLiteral_StructuralErrors(t *testing.T) {
	const entry = `{ .tcmd_name = "a", .tcmd_func = TCMDEXEC_a, .number_of_args = 0, .readiness_level = X },`

	tests := []struct {
		name      string
		source    string
		wantCount int
	}{
		{
			name:      "no literal",
			source:    "int main(void) { return 0; }",
			wantCount: 0,
		},
		{
			name:      "literal only inside a comment",
			source:    "/* const TCMD_TelecommandDefinition_t defs[] = {\n" + entry + "\n}; */",
			wantCount: 0,
		},
		{
			name: "two literals",
			source: "const TCMD_TelecommandDefinition_t a[] = {\n" + entry + "\n};\n" +
				"const TCMD_TelecommandDefinition_t b[] = {\n" + entry + "\n};\n",
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ParseArrayLiteral(tt.source, DefinitionStructType)
			if rows != nil {
				t.Errorf("rows = %v, want nil", rows)
			}

			var structErr *StructuralParseError
			if !errors.As(err, &structErr) {
				t.Fatalf("error = %v, want *StructuralParseError", err)
			}
			if structErr.Count != tt.wantCount {
				t.Errorf("Count = %d, want %d", structErr.Count, tt.wantCount)
			}
			if structErr.StructType != DefinitionStructType {
				t.Errorf("StructType = %q, want %q", structErr.StructType, DefinitionStructType)
			}
		})
	}
}

func TestRowGet_LastAssignmentWins(t *testing.T) {
	row := Row{Fields: []Field{
		{Name: "tcmd_name", Value: "first"},
		{Name: "tcmd_name", Value: "second"},
	}}

	got, ok := row.Get("tcmd_name")
	if !ok || got != "second" {
		t.Errorf("Get() = %q, %v; want \"second\", true", got, ok)
	}
	if _, ok := row.Get("missing"); ok {
		t.Error("Get(missing) ok = true, want false")
	}
}

func TestParseDefinitions_FlagsIncompleteEntries(t *testing.T) {
	source := `const TCMD_TelecommandDefinition_t defs[] = {
    { .tcmd_name = "complete", .tcmd_func = TCMDEXEC_complete, .number_of_args = 1, .readiness_level = TCMD_READINESS_LEVEL_FOR_OPERATION },
    { .tcmd_name = "no_readiness", .tcmd_func = TCMDEXEC_no_readiness, .number_of_args = 0 },
    { .tcmd_func = TCMDEXEC_unnamed, .number_of_args = 0, .readiness_level = TCMD_READINESS_LEVEL_IDEA_PHASE },
    { .tcmd_name = "bad_count", .tcmd_func = TCMDEXEC_bad_count, .number_of_args = TWO, .readiness_level = TCMD_READINESS_LEVEL_IDEA_PHASE },
};`

	defs, err := ParseDefinitions(source)
	if err != nil {
		t.Fatalf("ParseDefinitions() error = %v", err)
	}
	if len(defs) != 4 {
		t.Fatalf("len(defs) = %d, want 4 (incomplete entries are kept)", len(defs))
	}

	tests := []struct {
		index       int
		wantMissing []string
	}{
		{index: 0, wantMissing: []string{}},
		{index: 1, wantMissing: []string{FieldReadinessLevel}},
		{index: 2, wantMissing: []string{FieldName}},
		{index: 3, wantMissing: []string{FieldArgumentCount}},
	}

	for _, tt := range tests {
		d := defs[tt.index]
		got := d.MissingFields()
		if strings.Join(got, ",") != strings.Join(tt.wantMissing, ",") {
			t.Errorf("defs[%d].MissingFields() = %v, want %v", tt.index, got, tt.wantMissing)
		}
		if d.Complete() != (len(tt.wantMissing) == 0) {
			t.Errorf("defs[%d].Complete() = %v", tt.index, d.Complete())
		}
	}

	if got := defs[2].DisplayName(); got != "<entry 2>" {
		t.Errorf("DisplayName() of unnamed entry = %q, want %q", got, "<entry 2>")
	}
	if !strings.Contains(defs[3].Problems[0].Reason, "TWO") {
		t.Errorf("Reason = %q, want it to quote the bad value", defs[3].Problems[0].Reason)
	}
}

func TestDefinition_Helpers(t *testing.T) {
	d := Definition{
		Name:           "hello_world",
		HandlerSymbol:  "TCMDEXEC_hello_world",
		ReadinessLevel: ReadinessFlightTesting,
	}

	if got := d.ExpectedHandler(); got != d.HandlerSymbol {
		t.Errorf("ExpectedHandler() = %q, want %q", got, d.HandlerSymbol)
	}
	if got := d.ShortReadiness(); got != "FLIGHT_TESTING" {
		t.Errorf("ShortReadiness() = %q, want FLIGHT_TESTING", got)
	}

	opaque := Definition{ReadinessLevel: "SOMETHING_ELSE"}
	if got := opaque.ShortReadiness(); got != "SOMETHING_ELSE" {
		t.Errorf("ShortReadiness() of unknown level = %q, want it unchanged", got)
	}
}
