// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package canbus

import (
	"sync"
	"time"
)

// MemBus is one endpoint of an in-memory CAN segment. Frames sent on one
// endpoint arrive on the other, like two nodes on a quiet bus. Used by
// tests and the in-process slave simulator.
type MemBus struct {
	peer   *MemBus
	frames chan Frame

	mu      sync.Mutex
	closed  bool
	filters []Filter
}

// NewMemPair creates two connected endpoints.
func NewMemPair() (*MemBus, *MemBus) {
	a := &MemBus{frames: make(chan Frame, 1024)}
	b := &MemBus{frames: make(chan Frame, 1024)}
	a.peer = b
	b.peer = a
	return a, b
}

// Send delivers the frame to the peer endpoint.
func (b *MemBus) Send(f Frame) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrBusClosed
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now()
	}
	if f.Channel == "" {
		f.Channel = "mem"
	}
	b.peer.deliver(f)
	return nil
}

func (b *MemBus) deliver(f Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || !passes(b.filters, f) {
		return
	}
	select {
	case b.frames <- f:
	default:
	}
}

// Frames returns the receive channel.
func (b *MemBus) Frames() <-chan Frame {
	return b.frames
}

// SetFilters installs acceptance filters on this endpoint.
func (b *MemBus) SetFilters(filters []Filter) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}
	b.filters = filters
	return nil
}

// Close shuts the endpoint down. Frames in flight are discarded.
func (b *MemBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.frames)
	return nil
}
