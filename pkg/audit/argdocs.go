// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package audit

import (
	"fmt"

	"github.com/CTS-SAT-1/ground-support/pkg/telecommand"
)

// ArgumentDocumentation checks handler docstrings against the declared
// argument counts. Entries without a usable handler or argument count are
// left to StructCompleteness.
func ArgumentDocumentation(cat *telecommand.Catalog) Result {
	defs := cat.Definitions()
	res := Result{Name: NameArgumentDocumentation}

	for _, d := range defs {
		if d.HandlerSymbol == "" || hasProblem(d, telecommand.FieldArgumentCount) {
			continue
		}

		if !d.HasDocstring {
			res.Findings = append(res.Findings, Finding{
				Kind:    KindMissingDocstring,
				Subject: d.DisplayName(),
				Message: fmt.Sprintf("the '%s' telecommand handler `%s` has no `///` docstring",
					d.DisplayName(), d.HandlerSymbol),
			})
		}

		if !d.ArgumentsDocumented {
			if d.ArgumentCount > 0 {
				res.Findings = append(res.Findings, Finding{
					Kind:    KindUndocumentedArguments,
					Subject: d.DisplayName(),
					Message: fmt.Sprintf("the '%s' telecommand is missing the `args_str` param in its docstring",
						d.DisplayName()),
				})
			}
			continue
		}

		if n := len(d.ArgumentDescriptions); n != d.ArgumentCount {
			res.Findings = append(res.Findings, Finding{
				Kind:    KindArgumentCountMismatch,
				Subject: d.DisplayName(),
				Message: fmt.Sprintf("the '%s' telecommand has number_of_args=%d in the struct and %d args in the docstring",
					d.DisplayName(), d.ArgumentCount, n),
			})
		}
	}

	res.Summary = fmt.Sprintf("%d telecommand docstrings checked", len(defs))
	return res
}

func hasProblem(d telecommand.Definition, field string) bool {
	for _, p := range d.Problems {
		if p.Field == field {
			return true
		}
	}
	return false
}
