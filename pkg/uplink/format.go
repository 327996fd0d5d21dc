// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package uplink

import (
	"fmt"
	"strings"
)

// Line ending markers
const (
	MarkerLineFeed       = "↴"
	MarkerCarriageReturn = "↵"
)

// FormatBytes renders raw link bytes for display. Printable ASCII is shown
// as-is and everything else as [0xNN]. With showLineEndings, LF is shown as
// "↴" followed by a real newline and CR as "↵"; otherwise LF is a plain
// newline and CR is dropped.
//
// Example: [0xDA][0xBE]INFO: boot complete↵↴
func FormatBytes(data []byte, showLineEndings bool) string {
	var b strings.Builder
	b.Grow(len(data))

	for _, c := range data {
		switch {
		case c == '\n':
			if showLineEndings {
				b.WriteString(MarkerLineFeed)
			}
			b.WriteByte('\n')
		case c == '\r':
			if showLineEndings {
				b.WriteString(MarkerCarriageReturn)
			}
		case c >= 0x20 && c <= 0x7E:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "[0x%02X]", c)
		}
	}

	return b.String()
}
