// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package uplink

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestEncode(t *testing.T) {
	fixed := time.UnixMilli(1720939654482)
	enc := Encoder{Now: func() time.Time { return fixed }}

	tests := []struct {
		name string
		cmd  string
		args []string
		opts Options
		want string
	}{
		{
			name: "no arguments",
			cmd:  "hello_world",
			want: "CTS1+hello_world()!",
		},
		{
			name: "one argument",
			cmd:  "echo_back_args",
			args: []string{"hi"},
			want: "CTS1+echo_back_args(hi)!",
		},
		{
			name: "several arguments",
			cmd:  "fs_write_file",
			args: []string{"/a.txt", "hello"},
			want: "CTS1+fs_write_file(/a.txt,hello)!",
		},
		{
			name: "sent timestamp",
			cmd:  "hello_world",
			opts: Options{SentTimestamp: true},
			want: "CTS1+hello_world()@tssent=1720939654482!",
		},
		{
			name: "execute at",
			cmd:  "hello_world",
			opts: Options{ExecuteAt: ExecuteNow},
			want: "CTS1+hello_world()@tsexec=0!",
		},
		{
			name: "sent before execute",
			cmd:  "hello_world",
			opts: Options{ExecuteAt: "1720939660000", SentTimestamp: true},
			want: "CTS1+hello_world()@tssent=1720939654482@tsexec=1720939660000!",
		},
		{
			name: "extra tag overrides in place",
			cmd:  "hello_world",
			opts: Options{
				SentTimestamp: true,
				ExecuteAt:     "5",
				Extra:         []Tag{{Key: TagSent, Value: "1"}, {Key: "resp_fname", Value: "out.txt"}},
			},
			want: "CTS1+hello_world()@tssent=1@tsexec=5@resp_fname=out.txt!",
		},
		{
			name: "arguments are not escaped",
			cmd:  "echo_back_args",
			args: []string{"a(b)"},
			want: "CTS1+echo_back_args(a(b))!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := enc.Encode(tt.cmd, tt.args, tt.opts)
			if got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncode_SentTimestampUsesWallClock(t *testing.T) {
	before := time.Now().UnixMilli()
	got := Encode("hello_world", nil, Options{SentTimestamp: true})
	after := time.Now().UnixMilli()

	matches := regexp.MustCompile(`@tssent=(\d+)`).FindAllStringSubmatch(got, -1)
	if len(matches) != 1 {
		t.Fatalf("Encode() = %q, want exactly one @tssent tag", got)
	}

	ts, err := strconv.ParseInt(matches[0][1], 10, 64)
	if err != nil {
		t.Fatalf("tssent value %q is not an integer: %v", matches[0][1], err)
	}
	if ts < before-2000 || ts > after+2000 {
		t.Errorf("tssent = %d, want within 2000 ms of [%d, %d]", ts, before, after)
	}
}

func TestEncode_SHA256(t *testing.T) {
	got := Encode("echo_back_args", []string{"hi"}, Options{SHA256: true, ExecuteAt: "0"})

	sum := sha256.Sum256([]byte("CTS1+echo_back_args(hi)"))
	want := "CTS1+echo_back_args(hi)@tsexec=0@sha256=" + hex.EncodeToString(sum[:]) + "!"
	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestEncode_SHA256MatchesFirmwareVector(t *testing.T) {
	got := Encode("hello_world", nil, Options{SHA256: true})

	want := "CTS1+hello_world()@sha256=9f2c356aee31c00991e024189ec6c602aaee9358dc5cc2d26182e55f98dce181!"
	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestEncoder_CustomPrefix(t *testing.T) {
	got := Encoder{Prefix: "CTS2+"}.Encode("hello_world", nil, Options{})
	if got != "CTS2+hello_world()!" {
		t.Errorf("Encode() = %q", got)
	}
}

func TestEncoder_MessageCopiesArguments(t *testing.T) {
	args := []string{"a", "b"}
	msg := Encoder{}.Message("cmd", args, Options{})
	args[0] = "changed"

	if !strings.HasPrefix(msg.String(), "CTS1+cmd(a,b)") {
		t.Errorf("Message() shares the caller's argument slice: %q", msg.String())
	}
}

func TestTags_Set(t *testing.T) {
	var tags Tags
	tags.Set("a", "1")
	tags.Set("b", "2")
	tags.Set("a", "3")

	if tags.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tags.Len())
	}
	if got := tags.String(); got != "@a=3@b=2" {
		t.Errorf("String() = %q, want %q", got, "@a=3@b=2")
	}
	if v, ok := tags.Get("b"); !ok || v != "2" {
		t.Errorf("Get(b) = %q, %v", v, ok)
	}
	if _, ok := tags.Get("c"); ok {
		t.Error("Get(c) ok = true, want false")
	}

	all := tags.All()
	all[0].Value = "mutated"
	if v, _ := tags.Get("a"); v != "3" {
		t.Error("All() returned shared storage")
	}
}

func TestExecuteAtTime(t *testing.T) {
	got := ExecuteAtTime(time.UnixMilli(1720939654482))
	if got != "1720939654482" {
		t.Errorf("ExecuteAtTime() = %q", got)
	}
}
