// Copyright (C) 2016 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package aggregator coalesces a high frequency stream of per file change
// events into batched notifications. Each subscriber gets its own Batcher;
// events submitted while a flush window is open join that window's batch.
package aggregator

import (
	"time"

	"github.com/syncthing/watchfiles/lib/protocol"
	"github.com/syncthing/watchfiles/lib/sync"
)

// DefaultDelay is the quiet period between the first queued event of a
// window and the flush of its batch.
const DefaultDelay = 100 * time.Millisecond

// SendFunc hands a finished batch to the notification transport.
type SendFunc func(params protocol.DidChangeWatchedFilesParams)

// A Batcher accumulates events for one subscriber. The queue preserves
// submission order; submitting the kind a file was last queued with is a
// no-op, so bursts of identical events collapse into one entry.
type Batcher struct {
	delay time.Duration
	send  SendFunc

	mut      sync.Mutex
	queue    []protocol.FileEvent
	lastType map[string]protocol.FileChangeType
	armed    bool
}

func New(delay time.Duration, send SendFunc) *Batcher {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Batcher{
		delay: delay,
		send:  send,
		mut:   sync.NewMutex(),
	}
}

// Submit records a change for the given file identifier. The first event
// of a fresh window arms the flush timer; at most one timer is armed at
// any time.
func (b *Batcher) Submit(uri string, typ protocol.FileChangeType) {
	b.mut.Lock()
	defer b.mut.Unlock()

	if last, ok := b.lastType[uri]; ok && last == typ {
		l.Debugln("Suppressing duplicate", typ, "for", uri)
		return
	}

	if b.lastType == nil {
		b.lastType = make(map[string]protocol.FileChangeType)
	}
	b.queue = append(b.queue, protocol.FileEvent{URI: uri, Type: typ})
	b.lastType[uri] = typ

	if !b.armed {
		b.armed = true
		time.AfterFunc(b.delay, b.flush)
	}
}

// flush takes ownership of the queued batch, resets the window and hands
// the batch to the transport. The send happens outside the lock so a slow
// transport never blocks Submit.
func (b *Batcher) flush() {
	b.mut.Lock()
	batch := b.queue
	b.queue = nil
	b.lastType = nil
	b.armed = false
	b.mut.Unlock()

	if len(batch) == 0 {
		// The timer is only ever armed on the first event of a window, so
		// this should not happen.
		return
	}
	l.Debugln("Flushing", len(batch), "events")
	b.send(protocol.DidChangeWatchedFilesParams{Changes: batch})
}
