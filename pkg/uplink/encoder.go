// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package uplink

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Suffix tags understood by the firmware parser
const (
	TagSent    = "tssent"
	TagExecute = "tsexec"
	TagSHA256  = "sha256"
)

// ExecuteNow is the tsexec value that runs a command immediately.
const ExecuteNow = "0"

// Options selects the suffix tags added by Encode.
type Options struct {
	// SentTimestamp adds @tssent with the current time in Unix milliseconds.
	SentTimestamp bool

	// ExecuteAt is the @tsexec value. Empty omits the tag.
	ExecuteAt string

	// SHA256 adds @sha256, the hex digest of the message body.
	SHA256 bool

	// Extra tags are applied last and replace same-named tags set above.
	Extra []Tag
}

// Encoder renders telecommands in the firmware's wire syntax.
// The zero value uses Prefix and the system clock.
type Encoder struct {
	Prefix string
	Now    func() time.Time
}

// Message builds the message for a command without serializing it.
//
// Arguments are not escaped or validated. Use CheckArguments before encoding
// anything that did not come from a trusted source.
func (e Encoder) Message(name string, args []string, opts Options) Message {
	prefix := e.Prefix
	if prefix == "" {
		prefix = Prefix
	}

	msg := Message{
		Prefix: prefix,
		Name:   name,
		Args:   append([]string(nil), args...),
	}

	if opts.SentTimestamp {
		msg.Tags.Set(TagSent, strconv.FormatInt(e.now().UnixMilli(), 10))
	}
	if opts.ExecuteAt != "" {
		msg.Tags.Set(TagExecute, opts.ExecuteAt)
	}
	if opts.SHA256 {
		sum := sha256.Sum256([]byte(msg.Body()))
		msg.Tags.Set(TagSHA256, hex.EncodeToString(sum[:]))
	}
	for _, tag := range opts.Extra {
		msg.Tags.Set(tag.Key, tag.Value)
	}

	return msg
}

// Encode returns the wire string for a command, e.g. "CTS1+hello_world()!".
func (e Encoder) Encode(name string, args []string, opts Options) string {
	return e.Message(name, args, opts).String()
}

func (e Encoder) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Encode encodes with the default Encoder.
func Encode(name string, args []string, opts Options) string {
	return Encoder{}.Encode(name, args, opts)
}

// ExecuteAtTime formats t as a @tsexec value.
func ExecuteAtTime(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
