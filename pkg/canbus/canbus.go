// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

// Package canbus provides CAN bus access for the CCP master.
//
// A Bus delivers raw CAN frames over a channel and accepts frames for
// transmission. Three transports are provided: raw SocketCAN (Linux),
// Lawicel SLCAN adapters on a serial port, and a CAN-over-WebSocket
// bridge. An in-memory loopback pair is available for tests.
package canbus

import (
	"errors"
	"time"
)

// EFFFlag marks a 29-bit (extended) arbitration ID when an ID is carried
// in a 32-bit word, matching the SocketCAN CAN_EFF_FLAG convention.
const EFFFlag = 0x80000000

// Mask values for exact-match filtering.
const (
	SFFMask = 0x000007FF
	EFFMask = 0x1FFFFFFF
)

// ErrBusClosed is returned when sending on a closed bus.
var ErrBusClosed = errors.New("canbus: bus closed")

// Frame is a single CAN 2.0 frame. The payload is always 8 bytes of
// backing storage; DLC says how many are valid.
type Frame struct {
	ID        uint32
	Extended  bool
	DLC       uint8
	Data      [8]byte
	Timestamp time.Time
	Channel   string
}

// NewFrame builds a frame from an arbitration ID and payload bytes.
// Payloads longer than 8 bytes are truncated.
func NewFrame(id uint32, extended bool, data []byte) Frame {
	f := Frame{ID: id, Extended: extended}
	n := copy(f.Data[:], data)
	f.DLC = uint8(n)
	return f
}

// Payload returns the valid data bytes of the frame.
func (f Frame) Payload() []byte {
	n := f.DLC
	if n > 8 {
		n = 8
	}
	return f.Data[:n]
}

// Filter is an (id, mask) acceptance filter. A frame passes when
// frame.ID&Mask == ID&Mask and the frame format matches Extended.
type Filter struct {
	ID       uint32
	Mask     uint32
	Extended bool
}

// Matches reports whether the frame passes the filter.
func (flt Filter) Matches(f Frame) bool {
	if f.Extended != flt.Extended {
		return false
	}
	return f.ID&flt.Mask == flt.ID&flt.Mask
}

// ExactFilter builds an exact-match filter for one arbitration ID.
func ExactFilter(id uint32, extended bool) Filter {
	mask := uint32(SFFMask)
	if extended {
		mask = EFFMask
	}
	return Filter{ID: id, Mask: mask, Extended: extended}
}

// Bus is a bidirectional CAN connection.
//
// Frames returns a channel of received frames; the channel is closed
// when the bus shuts down. SetFilters restricts reception to frames
// matching any of the given filters (nil restores pass-all). Close is
// idempotent.
type Bus interface {
	Send(Frame) error
	Frames() <-chan Frame
	SetFilters([]Filter) error
	Close() error
}

func passes(filters []Filter, f Frame) bool {
	if len(filters) == 0 {
		return true
	}
	for _, flt := range filters {
		if flt.Matches(f) {
			return true
		}
	}
	return false
}
