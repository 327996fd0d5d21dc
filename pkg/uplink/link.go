// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package uplink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Disconnected is the link name while no connection is attached.
const Disconnected = "disconnected"

// DefaultMaxEntries bounds the in-memory RX/TX log.
const DefaultMaxEntries = 1000

// ErrDisconnected is returned when sending while no connection is attached.
var ErrDisconnected = errors.New("can't send command when disconnected")

// EntryKind classifies an RX/TX log entry.
type EntryKind string

// RX/TX log entry kinds
const (
	EntryTransmit EntryKind = "transmit"
	EntryReceive  EntryKind = "receive"
	EntryNotice   EntryKind = "notice"
	EntryError    EntryKind = "error"
)

// Entry is one line of the RX/TX log.
type Entry struct {
	Kind EntryKind
	Data []byte
	Time time.Time
}

// TimestampLayout is how entry timestamps are rendered.
const TimestampLayout = "2006-01-02 15:04:05.000"

const bannerRule = "===================="

// Text renders the entry for display. Notices and errors are framed as
// banners; link traffic goes through FormatBytes.
func (e Entry) Text(showLineEndings, showTimestamp bool) string {
	prefix := ""
	if showTimestamp {
		prefix = e.Time.Local().Format(TimestampLayout) + ": "
	}

	switch e.Kind {
	case EntryNotice, EntryError:
		return prefix + bannerRule + " " + string(e.Data) + " " + bannerRule
	default:
		return prefix + FormatBytes(e.Data, showLineEndings)
	}
}

// LinkOptions configures a Link.
type LinkOptions struct {
	// MaxEntries bounds the RX/TX log; older entries are dropped first.
	MaxEntries int
	// Now is the clock used to stamp entries.
	Now func() time.Time
}

// Link owns the connection to the satellite, the outbound queue and the
// RX/TX log. One worker (Run) drains the queue in order. A reader goroutine
// runs for each attached connection.
type Link struct {
	logger *log.Logger
	queue  *Queue
	now    func() time.Time
	max    int

	mu        sync.RWMutex
	conn      Connection
	name      string
	entries   []Entry
	observers []func(Entry)
}

// NewLink creates a disconnected link.
func NewLink(logger *log.Logger, opts LinkOptions) *Link {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Link{
		logger: logger,
		queue:  NewQueue(),
		now:    opts.Now,
		max:    opts.MaxEntries,
		name:   Disconnected,
	}
}

// Observe registers fn to be called with every new entry, in order. fn runs
// on the goroutine that produced the entry and must not block.
func (l *Link) Observe(fn func(Entry)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

// Name returns the attached connection's name, or Disconnected.
func (l *Link) Name() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.name
}

// Connected reports whether a connection is attached.
func (l *Link) Connected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.conn != nil
}

// Attach replaces the current connection with conn and starts reading from it.
func (l *Link) Attach(conn Connection, name string) {
	l.mu.Lock()
	previous, previousName := l.conn, l.name
	l.conn, l.name = conn, name
	l.mu.Unlock()

	if previous != nil {
		previous.Close()
		l.Notice(fmt.Sprintf("Connection changed from %s to %s", previousName, name))
	} else {
		l.Notice("Connected: " + name)
	}
	l.logger.Info("link attached", "connection", name)

	go l.readLoop(conn)
}

// Detach closes the current connection and enters the disconnected state.
func (l *Link) Detach() {
	if l.detach(nil) {
		l.Notice("Disconnected.")
		l.logger.Info("link detached")
	}
}

// detach drops the connection if it is still want (any when want is nil).
func (l *Link) detach(want Connection) bool {
	l.mu.Lock()
	conn := l.conn
	if conn == nil || (want != nil && conn != want) {
		l.mu.Unlock()
		return false
	}
	l.conn, l.name = nil, Disconnected
	l.mu.Unlock()

	conn.Close()
	return true
}

// Send queues an encoded telecommand for transmission.
func (l *Link) Send(command string) error {
	if !l.Connected() {
		l.Error(ErrDisconnected.Error())
		return ErrDisconnected
	}
	l.queue.Push([]byte(command))
	return nil
}

// Pending returns the number of queued commands.
func (l *Link) Pending() int {
	return l.queue.Len()
}

// Run drains the outbound queue until ctx is done, then detaches.
func (l *Link) Run(ctx context.Context) error {
	defer l.Detach()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.queue.Ready():
			l.drain()
		}
	}
}

func (l *Link) drain() {
	for {
		data, ok := l.queue.Pop()
		if !ok {
			return
		}

		l.mu.RLock()
		conn := l.conn
		l.mu.RUnlock()

		if conn == nil {
			dropped := l.queue.Clear() + 1
			l.Error(fmt.Sprintf("%s (%d queued command(s) dropped)", ErrDisconnected, dropped))
			return
		}

		if _, err := conn.Write(data); err != nil {
			l.Error(fmt.Sprintf("Write failed: %v", err))
			l.logger.Warn("write failed, detaching", "err", err)
			l.detach(conn)
			continue
		}
		l.record(EntryTransmit, data)
		l.logger.Debug("transmitted", "command", string(data))
	}
}

func (l *Link) readLoop(conn Connection) {
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			l.record(EntryReceive, line)
		}
		if err != nil {
			if l.detach(conn) {
				msg := fmt.Sprintf("Connection forcefully disconnected: %v", err)
				l.Error(msg)
				l.logger.Warn("connection lost", "err", err)
			}
			return
		}
	}
}

// Notice adds a notice entry to the log.
func (l *Link) Notice(msg string) {
	l.record(EntryNotice, []byte(msg))
}

// Error adds an error entry to the log.
func (l *Link) Error(msg string) {
	l.record(EntryError, []byte(msg))
}

// ClearLog empties the RX/TX log.
func (l *Link) ClearLog() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
	l.Notice("Log Reset")
}

// Entries returns a copy of the RX/TX log, oldest first.
func (l *Link) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

func (l *Link) record(kind EntryKind, data []byte) {
	entry := Entry{Kind: kind, Data: append([]byte(nil), data...), Time: l.now()}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	if over := len(l.entries) - l.max; over > 0 {
		l.entries = append([]Entry(nil), l.entries[over:]...)
	}
	observers := l.observers
	l.mu.Unlock()

	for _, fn := range observers {
		fn(entry)
	}
}

// Transcript joins the received entries after since into one string.
func Transcript(entries []Entry, since time.Time) string {
	var b strings.Builder
	for _, e := range entries {
		if e.Kind == EntryReceive && !e.Time.Before(since) {
			b.Write(e.Data)
		}
	}
	return b.String()
}
