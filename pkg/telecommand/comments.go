// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package telecommand

import "regexp"

var (
	blockCommentRegex = regexp.MustCompile(`(?s)\s*/\*.*?\*/\s*`)
	lineCommentRegex  = regexp.MustCompile(`\s*//.*`)
)

// StripComments removes C line comments and block comments from text.
//
// A block comment (and the whitespace around it) is replaced by a single
// newline, so it can never join two tokens together. Line comments are removed
// along with the whitespace in front of them.
//
// Comment markers inside string literals are not special-cased: a "//" inside
// a quoted URL is treated as a comment. The telecommand table never contains
// such literals.
//
// Stripping runs until the text stops changing, so the result is always a
// fixed point: StripComments(StripComments(x)) == StripComments(x).
func StripComments(text string) string {
	for {
		stripped := blockCommentRegex.ReplaceAllString(text, "\n")
		stripped = lineCommentRegex.ReplaceAllString(stripped, "")
		if stripped == text {
			return stripped
		}
		text = stripped
	}
}
