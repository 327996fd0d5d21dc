// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package session

import (
	"context"
	"sync"

	"github.com/CTS-SAT-1/ground-support/pkg/uplink"
	"github.com/charmbracelet/log"
)

const recorderBuffer = 256

// Recorder writes link entries to a session in the background. Register
// Record with uplink.Link.Observe.
type Recorder struct {
	store     *Store
	sessionID int64
	logger    *log.Logger

	mu      sync.Mutex
	closed  bool
	dropped int
	queue   chan uplink.Entry
	done    chan struct{}
}

// NewRecorder starts a background writer for an existing session.
func NewRecorder(store *Store, sessionID int64, logger *log.Logger) *Recorder {
	r := &Recorder{
		store:     store,
		sessionID: sessionID,
		logger:    logger,
		queue:     make(chan uplink.Entry, recorderBuffer),
		done:      make(chan struct{}),
	}
	go r.run()
	return r
}

// SessionID returns the session being written.
func (r *Recorder) SessionID() int64 { return r.sessionID }

// Record queues an entry without blocking. Entries are dropped when the
// writer has fallen a full buffer behind, and after Close.
func (r *Recorder) Record(e uplink.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- e:
	default:
		r.dropped++
		if r.dropped == 1 {
			r.logger.Warn("Session writer is behind, dropping entries", "session", r.sessionID)
		}
	}
}

// Dropped returns how many entries were dropped because the buffer was full.
func (r *Recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Close flushes queued entries and stops the writer.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	dropped := r.dropped
	r.mu.Unlock()
	<-r.done

	if dropped > 0 {
		r.logger.Warn("Session entries dropped", "session", r.sessionID, "count", dropped)
	}
}

func (r *Recorder) run() {
	defer close(r.done)

	batch := make([]uplink.Entry, 0, recorderBuffer)
	for e := range r.queue {
		batch = append(batch[:0], e)
		// Drain whatever else is already queued into the same transaction
	drain:
		for {
			select {
			case next, ok := <-r.queue:
				if !ok {
					break drain
				}
				batch = append(batch, next)
			default:
				break drain
			}
		}
		if err := r.store.Append(context.Background(), r.sessionID, batch...); err != nil {
			r.logger.Error("Failed to record session entries", "session", r.sessionID, "count", len(batch), "err", err)
		}
	}
}
