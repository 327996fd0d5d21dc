// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package telecommand

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The array literal grammar is deliberately minimal. It understands exactly
//
//	<StructType> <ident>[] = { { .field = value, ... }, ... };
//
// Entries cannot contain nested braces, values cannot contain commas, and
// comment markers inside string literals are not recognised. A real tokenizer
// can replace ParseArrayLiteral without touching its callers.
var (
	structBodyRegex  = regexp.MustCompile(`\{\s*([^{}]+?)\s*\}`)
	structFieldRegex = regexp.MustCompile(`\s*\.(\w+)\s*=\s*([^,]+),?`)
)

// StructuralParseError is returned when the source does not contain exactly one
// array literal of the requested struct type. It is fatal: no rows are returned.
type StructuralParseError struct {
	StructType string
	Count      int
}

func (e *StructuralParseError) Error() string {
	return fmt.Sprintf("expected to find exactly 1 %s array in the input code, but found %d matches",
		e.StructType, e.Count)
}

// Field is one `.name = value` pair of a struct entry.
type Field struct {
	Name  string
	Value string
}

// Row is one struct entry of an array literal, with fields in source order.
// Values are trimmed and unquoted but otherwise raw.
type Row struct {
	Fields []Field
}

// Get returns the value of the named field. If a field is assigned twice the
// last assignment wins, as in C designated initializers.
func (r Row) Get(name string) (string, bool) {
	for i := len(r.Fields) - 1; i >= 0; i-- {
		if r.Fields[i].Name == name {
			return r.Fields[i].Value, true
		}
	}
	return "", false
}

func arrayLiteralRegex(structType string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(structType) +
		`\s+\w+\s*\[\s*\]\s*=\s*\{((?:\s*\{\s*[^{}]+\s*\},?)+)\s*\};`)
}

// ParseArrayLiteral locates the single array literal of structType in source
// and splits it into rows, in source order. Comments are stripped first.
func ParseArrayLiteral(source, structType string) ([]Row, error) {
	code := StripComments(source)

	matches := arrayLiteralRegex(structType).FindAllStringSubmatch(code, -1)
	if len(matches) != 1 {
		return nil, &StructuralParseError{StructType: structType, Count: len(matches)}
	}

	var rows []Row
	for _, body := range structBodyRegex.FindAllStringSubmatch(matches[0][1], -1) {
		row := Row{}
		for _, field := range structFieldRegex.FindAllStringSubmatch(body[1], -1) {
			value := strings.Trim(strings.TrimSpace(field[2]), `"`)
			row.Fields = append(row.Fields, Field{Name: field[1], Value: value})
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ParseDefinitions parses the telecommand table in source into definitions.
// Entries with missing or malformed required fields are kept and flagged.
func ParseDefinitions(source string) ([]Definition, error) {
	rows, err := ParseArrayLiteral(source, DefinitionStructType)
	if err != nil {
		return nil, err
	}

	defs := make([]Definition, 0, len(rows))
	for i, row := range rows {
		defs = append(defs, definitionFromRow(i, row))
	}
	return defs, nil
}

func definitionFromRow(index int, row Row) Definition {
	def := Definition{Index: index}

	for _, field := range RequiredFields {
		value, ok := row.Get(field)
		if !ok || value == "" {
			def.Problems = append(def.Problems, FieldProblem{Field: field, Reason: "missing"})
			continue
		}

		switch field {
		case FieldName:
			def.Name = value
		case FieldHandler:
			def.HandlerSymbol = value
		case FieldReadinessLevel:
			def.ReadinessLevel = value
		case FieldArgumentCount:
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				def.Problems = append(def.Problems, FieldProblem{
					Field:  field,
					Reason: fmt.Sprintf("not a non-negative integer: %q", value),
				})
				continue
			}
			def.ArgumentCount = n
		}
	}

	return def
}
