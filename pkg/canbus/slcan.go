// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package canbus

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// SLCAN line framing.
const (
	slcanCR       = '\r'
	slcanBell     = 0x07 // adapter error response
	slcanMaxLine  = 32
	slcanStandard = 't'
	slcanExtended = 'T'
)

// slcanBitrates maps bit/s to the Lawicel 'S' setup digit.
var slcanBitrates = map[int]byte{
	10000:   '0',
	20000:   '1',
	50000:   '2',
	100000:  '3',
	125000:  '4',
	250000:  '5',
	500000:  '6',
	800000:  '7',
	1000000: '8',
}

// SLCANBus drives a Lawicel SLCAN (CAN-over-serial) adapter.
type SLCANBus struct {
	port   serial.Port
	name   string
	frames chan Frame

	mu      sync.Mutex
	closed  bool
	filters []Filter
}

// OpenSLCAN opens the serial port, configures the adapter for the given
// CAN bitrate and opens the CAN channel.
func OpenSLCAN(portName string, serialBaud, canBitrate int) (*SLCANBus, error) {
	code, ok := slcanBitrates[canBitrate]
	if !ok {
		return nil, fmt.Errorf("canbus: unsupported SLCAN bitrate %d", canBitrate)
	}

	mode := &serial.Mode{
		BaudRate: serialBaud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("canbus: open serial port %s: %w", portName, err)
	}

	b := &SLCANBus{
		port:   port,
		name:   portName,
		frames: make(chan Frame, 1024),
	}

	// Close any stale channel, set bitrate, open.
	for _, cmd := range []string{"C\r", "S" + string(code) + "\r", "O\r"} {
		if _, err := port.Write([]byte(cmd)); err != nil {
			port.Close()
			return nil, fmt.Errorf("canbus: SLCAN setup on %s: %w", portName, err)
		}
	}

	go b.readLoop()
	return b, nil
}

func (b *SLCANBus) readLoop() {
	defer close(b.frames)
	buf := make([]byte, 256)
	line := make([]byte, 0, slcanMaxLine)

	for {
		n, err := b.port.Read(buf)
		if err != nil {
			return
		}
		for _, c := range buf[:n] {
			switch c {
			case slcanCR:
				if f, ok := parseSLCANLine(string(line)); ok {
					f.Timestamp = time.Now()
					f.Channel = b.name
					b.deliver(f)
				}
				line = line[:0]
			case slcanBell:
				line = line[:0]
			default:
				if len(line) < slcanMaxLine {
					line = append(line, c)
				} else {
					line = line[:0]
				}
			}
		}
	}
}

func (b *SLCANBus) deliver(f Frame) {
	b.mu.Lock()
	filters := b.filters
	b.mu.Unlock()
	if !passes(filters, f) {
		return
	}
	select {
	case b.frames <- f:
	default:
	}
}

// parseSLCANLine decodes one "t…"/"T…" data frame line. Remote frames
// ('r'/'R') and adapter status lines are ignored.
func parseSLCANLine(line string) (Frame, bool) {
	if len(line) == 0 {
		return Frame{}, false
	}

	var idLen int
	var extended bool
	switch line[0] {
	case slcanStandard:
		idLen = 3
	case slcanExtended:
		idLen = 8
		extended = true
	default:
		return Frame{}, false
	}

	if len(line) < 1+idLen+1 {
		return Frame{}, false
	}

	var id uint32
	if _, err := fmt.Sscanf(line[1:1+idLen], "%x", &id); err != nil {
		return Frame{}, false
	}
	dlc := int(line[1+idLen] - '0')
	if dlc < 0 || dlc > 8 {
		return Frame{}, false
	}
	hexData := line[1+idLen+1:]
	if len(hexData) < dlc*2 {
		return Frame{}, false
	}
	data, err := hex.DecodeString(hexData[:dlc*2])
	if err != nil {
		return Frame{}, false
	}

	f := NewFrame(id, extended, data)
	return f, true
}

// formatSLCANLine encodes a frame as an SLCAN transmit line without the
// trailing carriage return.
func formatSLCANLine(f Frame) string {
	var sb strings.Builder
	if f.Extended {
		fmt.Fprintf(&sb, "T%08X", f.ID&EFFMask)
	} else {
		fmt.Fprintf(&sb, "t%03X", f.ID&SFFMask)
	}
	fmt.Fprintf(&sb, "%d", f.DLC)
	fmt.Fprintf(&sb, "%s", strings.ToUpper(hex.EncodeToString(f.Payload())))
	return sb.String()
}

// Send transmits one frame through the adapter.
func (b *SLCANBus) Send(f Frame) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrBusClosed
	}

	line := formatSLCANLine(f) + "\r"
	if _, err := b.port.Write([]byte(line)); err != nil {
		return fmt.Errorf("canbus: SLCAN send on %s: %w", b.name, err)
	}
	return nil
}

// Frames returns the receive channel.
func (b *SLCANBus) Frames() <-chan Frame {
	return b.frames
}

// SetFilters installs software acceptance filters; SLCAN adapters have
// no usable per-ID hardware filtering.
func (b *SLCANBus) SetFilters(filters []Filter) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}
	b.filters = filters
	return nil
}

// Close closes the CAN channel and the serial port.
func (b *SLCANBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.port.Write([]byte("C\r"))
	return b.port.Close()
}
