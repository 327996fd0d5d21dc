// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package session

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/CTS-SAT-1/ground-support/pkg/uplink"
	"github.com/charmbracelet/log"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions", "cts1.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_AppendAndRead(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	start := time.UnixMilli(1_700_000_000_000)

	id, err := s.StartSession(ctx, "/dev/ttyUSB0", start)
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	want := []uplink.Entry{
		{Kind: uplink.EntryNotice, Data: []byte("Connected: /dev/ttyUSB0"), Time: start},
		{Kind: uplink.EntryTransmit, Data: []byte("CTS1+hello_world()!"), Time: start.Add(10 * time.Millisecond)},
		{Kind: uplink.EntryReceive, Data: []byte{'o', 'k', 0x00, '\r', '\n'}, Time: start.Add(20 * time.Millisecond)},
	}
	if err := s.Append(ctx, id, want...); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := s.Entries(ctx, id)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Entries() returned %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Kind != want[i].Kind || string(got[i].Data) != string(want[i].Data) || !got[i].Time.Equal(want[i].Time) {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestStore_Sessions(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first, _ := s.StartSession(ctx, "COM3", time.UnixMilli(1000))
	second, _ := s.StartSession(ctx, "wss://bridge/uart", time.UnixMilli(2000))
	if err := s.Append(ctx, second, uplink.Entry{Kind: uplink.EntryReceive, Data: []byte("x"), Time: time.UnixMilli(2001)}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	sessions, err := s.Sessions(ctx, 0)
	if err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("Sessions() returned %d, want 2", len(sessions))
	}
	if sessions[0].ID != second || sessions[0].EntryCount != 1 || sessions[0].Connection != "wss://bridge/uart" {
		t.Errorf("sessions[0] = %+v", sessions[0])
	}
	if sessions[1].ID != first || sessions[1].EntryCount != 0 {
		t.Errorf("sessions[1] = %+v", sessions[1])
	}

	limited, err := s.Sessions(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("Sessions(1) = %v, %v", limited, err)
	}
}

func TestStore_EntriesUnknownSession(t *testing.T) {
	s := openStore(t)
	if _, err := s.Entries(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Entries() error = %v, want ErrNotFound", err)
	}
}

func TestRecorder(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	id, err := s.StartSession(ctx, "bridge", time.Now())
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	r := NewRecorder(s, id, log.New(io.Discard))
	for i := 0; i < 50; i++ {
		r.Record(uplink.Entry{Kind: uplink.EntryReceive, Data: []byte{byte('a' + i%26)}, Time: time.UnixMilli(int64(i))})
	}
	r.Close()
	r.Close()
	r.Record(uplink.Entry{Kind: uplink.EntryReceive, Data: []byte("late")})

	got, err := s.Entries(ctx, id)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("recorded %d entries, want 50", len(got))
	}
	for i, e := range got {
		if e.Data[0] != byte('a'+i%26) {
			t.Fatalf("entry %d out of order: %q", i, e.Data)
		}
	}
}

func TestRecorder_RecordDoesNotBlockWhenWriterIsBehind(t *testing.T) {
	// No writer goroutine, so the buffer never drains
	r := &Recorder{
		logger: log.New(io.Discard),
		queue:  make(chan uplink.Entry, 2),
		done:   make(chan struct{}),
	}

	recorded := make(chan struct{})
	go func() {
		defer close(recorded)
		for i := 0; i < 5; i++ {
			r.Record(uplink.Entry{Kind: uplink.EntryReceive, Data: []byte{byte('a' + i)}})
		}
	}()

	select {
	case <-recorded:
	case <-time.After(2 * time.Second):
		t.Fatal("Record() blocked on a full buffer")
	}

	if got := r.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
	if got := len(r.queue); got != 2 {
		t.Errorf("queued %d entries, want 2", got)
	}
}
