// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package telecommand

import (
	"regexp"
	"strings"
)

var (
	argumentsMarkerRegex = regexp.MustCompile(`@param\s+args_str\b`)
	argumentLineRegex    = regexp.MustCompile(`^-\s*Arg\s+\d+\s*:\s*(.*)$`)
)

// ExtractArgumentList returns the argument descriptions documented under the
// `@param args_str` marker of a docstring.
//
// There are three outcomes:
//   - no marker: (nil, false), the command does not document broken-out arguments
//   - marker without `- Arg N: ...` lines: an empty non-nil list and true
//   - otherwise the descriptions and true
//
// Descriptions are returned in line order. The N in "Arg N" is a label for
// humans and is neither validated nor used for ordering.
func ExtractArgumentList(docstring string) ([]string, bool) {
	lines := strings.Split(strings.ReplaceAll(docstring, "\r\n", "\n"), "\n")

	start := -1
	for i, line := range lines {
		if argumentsMarkerRegex.MatchString(line) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, false
	}

	descriptions := []string{}
	for _, line := range lines[start:] {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "@") {
			break
		}
		if m := argumentLineRegex.FindStringSubmatch(line); m != nil {
			descriptions = append(descriptions, strings.TrimSpace(m[1]))
		}
	}

	return descriptions, true
}
