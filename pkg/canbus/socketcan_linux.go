// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

//go:build linux

package canbus

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const (
	canRaw       = 1
	solCanRaw    = 101
	canRawFilter = 1

	canFrameSize = 16
)

// SocketCANBus is a raw SocketCAN connection bound to one interface.
type SocketCANBus struct {
	socket int
	ifname string
	frames chan Frame

	mu      sync.Mutex
	closed  bool
	filters []Filter
}

// OpenSocketCAN opens a raw CAN socket bound to the named interface
// (e.g. "can0") and starts the receive loop.
func OpenSocketCAN(ifname string) (*SocketCANBus, error) {
	socket, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, canRaw)
	if err != nil {
		return nil, fmt.Errorf("canbus: create CAN socket: %w", err)
	}

	ifreq, err := unix.NewIfreq(ifname)
	if err != nil {
		unix.Close(socket)
		return nil, fmt.Errorf("canbus: ifreq for %s: %w", ifname, err)
	}
	if err := unix.IoctlIfreq(socket, unix.SIOCGIFINDEX, ifreq); err != nil {
		unix.Close(socket)
		return nil, fmt.Errorf("canbus: interface index for %s: %w", ifname, err)
	}

	addr := &unix.SockaddrCAN{Ifindex: int(ifreq.Uint32())}
	if err := unix.Bind(socket, addr); err != nil {
		unix.Close(socket)
		return nil, fmt.Errorf("canbus: bind %s: %w", ifname, err)
	}

	b := &SocketCANBus{
		socket: socket,
		ifname: ifname,
		frames: make(chan Frame, 1024),
	}
	go b.readLoop()
	return b, nil
}

func (b *SocketCANBus) readLoop() {
	defer close(b.frames)
	buf := make([]byte, canFrameSize)

	for {
		n, err := unix.Read(b.socket, buf)
		if err != nil {
			b.mu.Lock()
			closed := b.closed
			b.mu.Unlock()
			if closed {
				return
			}
			continue
		}
		if n < canFrameSize {
			continue
		}

		raw := binary.LittleEndian.Uint32(buf[0:4])
		f := Frame{
			ID:        raw & EFFMask,
			Extended:  raw&EFFFlag != 0,
			DLC:       buf[4],
			Timestamp: time.Now(),
			Channel:   b.ifname,
		}
		if f.DLC > 8 {
			f.DLC = 8
		}
		copy(f.Data[:], buf[8:16])

		select {
		case b.frames <- f:
		default:
			// Receiver not keeping up; drop rather than block the socket.
		}
	}
}

// Send transmits one frame.
func (b *SocketCANBus) Send(f Frame) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrBusClosed
	}

	raw := f.ID & EFFMask
	if f.Extended {
		raw |= EFFFlag
	}
	buf := make([]byte, canFrameSize)
	binary.LittleEndian.PutUint32(buf[0:4], raw)
	buf[4] = f.DLC
	copy(buf[8:16], f.Data[:])

	if _, err := unix.Write(b.socket, buf); err != nil {
		return fmt.Errorf("canbus: send on %s: %w", b.ifname, err)
	}
	return nil
}

// Frames returns the receive channel.
func (b *SocketCANBus) Frames() <-chan Frame {
	return b.frames
}

// SetFilters installs kernel-level CAN_RAW_FILTER acceptance filters.
func (b *SocketCANBus) SetFilters(filters []Filter) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}
	b.filters = filters
	if len(filters) == 0 {
		return nil
	}

	// struct can_filter: 4 bytes can_id, 4 bytes can_mask.
	buf := make([]byte, len(filters)*8)
	for i, flt := range filters {
		id := flt.ID
		if flt.Extended {
			id |= EFFFlag
		}
		binary.LittleEndian.PutUint32(buf[i*8:], id)
		binary.LittleEndian.PutUint32(buf[i*8+4:], flt.Mask)
	}

	err := unix.SetsockoptString(b.socket, solCanRaw, canRawFilter, string(buf))
	if err != nil {
		return fmt.Errorf("canbus: set filters on %s: %w", b.ifname, err)
	}
	return nil
}

// Close shuts down the socket and the receive loop.
func (b *SocketCANBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()
	return unix.Close(b.socket)
}
