// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package telecommand

import (
	"regexp"
	"strings"
)

const docCommentMarker = "///"

// docstringRegex matches a run of `///` lines directly followed by a function
// signature (return type tokens, the function name, an opening paren) on the
// very next line. A blank line between the two does not match.
func docstringRegex(functionName string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)((?:^[ \t]*///.*\n)+)[ \t]*(?:[A-Za-z_]\w*[ \t*]+)+` +
		regexp.QuoteMeta(functionName) + `[ \t]*\(`)
}

// ExtractDocstring returns the `///` documentation block attached to the
// definition of functionName in source, which may be several files joined
// together. The comment markers and shared indentation are removed.
//
// Only the block directly above the signature counts; ok is false when there is
// none.
func ExtractDocstring(functionName, source string) (docstring string, ok bool) {
	if functionName == "" {
		return "", false
	}
	source = strings.ReplaceAll(source, "\r\n", "\n")

	match := docstringRegex(functionName).FindStringSubmatch(source)
	if match == nil {
		return "", false
	}

	lines := strings.Split(strings.TrimSuffix(match[1], "\n"), "\n")
	for i, line := range lines {
		line = strings.TrimLeft(line, " \t")
		line = strings.TrimPrefix(line, docCommentMarker)
		lines[i] = strings.TrimRight(line, " \t")
	}

	return strings.Join(trimBlankEdges(dedent(lines)), "\n"), true
}

// dedent removes the longest whitespace prefix shared by all non-blank lines.
func dedent(lines []string) []string {
	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix = indent
			first = false
			continue
		}
		prefix = commonPrefix(prefix, indent)
	}

	if prefix == "" {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = strings.TrimPrefix(line, prefix)
	}
	return out
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}

func trimBlankEdges(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
