// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package uplink

import "strings"

// Prefix starts every telecommand addressed to the satellite.
const Prefix = "CTS1+"

// Wire syntax characters
const (
	argsOpen      = '('
	argsClose     = ')'
	argsSeparator = ','
	tagMarker     = '@'
	tagAssign     = '='
	terminator    = '!'
)

// Tag is one `@key=value` suffix tag.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Tags is an ordered set of suffix tags keyed by name.
type Tags struct {
	entries []Tag
}

// Set assigns value to key. An existing key keeps its position and takes the
// new value; a new key is appended.
func (t *Tags) Set(key, value string) {
	for i := range t.entries {
		if t.entries[i].Key == key {
			t.entries[i].Value = value
			return
		}
	}
	t.entries = append(t.entries, Tag{Key: key, Value: value})
}

// Get returns the value of key.
func (t Tags) Get(key string) (string, bool) {
	for _, tag := range t.entries {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// Len returns the number of tags.
func (t Tags) Len() int {
	return len(t.entries)
}

// All returns a copy of the tags in order.
func (t Tags) All() []Tag {
	return append([]Tag(nil), t.entries...)
}

func (t Tags) String() string {
	var b strings.Builder
	for _, tag := range t.entries {
		b.WriteByte(tagMarker)
		b.WriteString(tag.Key)
		b.WriteByte(tagAssign)
		b.WriteString(tag.Value)
	}
	return b.String()
}

// Message is an outbound telecommand before serialization.
type Message struct {
	Prefix string
	Name   string
	Args   []string
	Tags   Tags
}

// Body returns the message up to and including the closing paren. This is the
// text covered by the @sha256 tag.
func (m Message) Body() string {
	var b strings.Builder
	b.WriteString(m.Prefix)
	b.WriteString(m.Name)
	b.WriteByte(argsOpen)
	for i, arg := range m.Args {
		if i > 0 {
			b.WriteByte(argsSeparator)
		}
		b.WriteString(arg)
	}
	b.WriteByte(argsClose)
	return b.String()
}

// String returns the wire form: body, suffix tags, terminator.
func (m Message) String() string {
	return m.Body() + m.Tags.String() + string(terminator)
}
