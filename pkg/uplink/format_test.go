// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package uplink

import "testing"

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name            string
		input           []byte
		showLineEndings bool
		want            string
	}{
		{
			name:  "printable ascii",
			input: []byte("INFO: boot complete"),
			want:  "INFO: boot complete",
		},
		{
			name:  "non-printable bytes as hex",
			input: []byte{0xDA, 0xBE, 'o', 'k', 0x00, 0x7F},
			want:  "[0xDA][0xBE]ok[0x00][0x7F]",
		},
		{
			name:            "line endings shown",
			input:           []byte("a\r\nb"),
			showLineEndings: true,
			want:            "a↵↴\nb",
		},
		{
			name:  "line endings hidden",
			input: []byte("a\r\nb"),
			want:  "a\nb",
		},
		{
			name:  "tab is not printable",
			input: []byte("\t"),
			want:  "[0x09]",
		},
		{
			name:  "empty",
			input: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatBytes(tt.input, tt.showLineEndings)
			if got != tt.want {
				t.Errorf("FormatBytes(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
