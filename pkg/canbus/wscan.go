// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package canbus

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsFrameSize is the bridge wire format: 4-byte big-endian arbitration
// ID (bit 31 set for extended), 1-byte DLC, 8 data bytes.
const wsFrameSize = 13

// WSCANBus is a CAN bridge client. Each binary WebSocket message carries
// exactly one CAN frame.
type WSCANBus struct {
	conn   *websocket.Conn
	urlStr string
	frames chan Frame

	writeMu sync.Mutex

	mu      sync.Mutex
	closed  bool
	filters []Filter
}

// WSCANConfig holds bridge connection settings.
type WSCANConfig struct {
	URL           string
	Username      string
	Password      string
	SkipSSLVerify bool
}

// OpenWSCAN connects to a CAN-over-WebSocket bridge with optional HTTP
// Basic auth.
func OpenWSCAN(cfg WSCANConfig) (*WSCANBus, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("canbus: invalid bridge URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("canbus: unsupported URL scheme %q (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: cfg.SkipSSLVerify}
	}

	headers := http.Header{}
	if cfg.Username != "" && cfg.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, cfg.URL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("canbus: bridge connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("canbus: bridge connection failed: %w", err)
	}

	b := &WSCANBus{
		conn:   conn,
		urlStr: cfg.URL,
		frames: make(chan Frame, 1024),
	}
	go b.readLoop()
	return b, nil
}

func (b *WSCANBus) readLoop() {
	defer close(b.frames)

	for {
		messageType, data, err := b.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.BinaryMessage || len(data) < wsFrameSize {
			continue
		}

		f := unmarshalWSFrame(data)
		f.Timestamp = time.Now()
		f.Channel = b.urlStr

		b.mu.Lock()
		filters := b.filters
		b.mu.Unlock()
		if !passes(filters, f) {
			continue
		}

		select {
		case b.frames <- f:
		default:
		}
	}
}

// Send transmits one frame to the bridge.
func (b *WSCANBus) Send(f Frame) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrBusClosed
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if err := b.conn.WriteMessage(websocket.BinaryMessage, marshalWSFrame(f)); err != nil {
		return fmt.Errorf("canbus: bridge send: %w", err)
	}
	return nil
}

// marshalWSFrame encodes a frame in the bridge wire format.
func marshalWSFrame(f Frame) []byte {
	raw := f.ID & EFFMask
	if f.Extended {
		raw |= EFFFlag
	}
	buf := make([]byte, wsFrameSize)
	binary.BigEndian.PutUint32(buf[0:4], raw)
	buf[4] = f.DLC
	copy(buf[5:13], f.Data[:])
	return buf
}

// unmarshalWSFrame decodes the first wsFrameSize bytes of a bridge
// message. The caller checks the length.
func unmarshalWSFrame(data []byte) Frame {
	raw := binary.BigEndian.Uint32(data[0:4])
	f := Frame{
		ID:       raw & EFFMask,
		Extended: raw&EFFFlag != 0,
		DLC:      data[4],
	}
	if f.DLC > 8 {
		f.DLC = 8
	}
	copy(f.Data[:], data[5:13])
	return f
}

// Frames returns the receive channel.
func (b *WSCANBus) Frames() <-chan Frame {
	return b.frames
}

// SetFilters installs client-side acceptance filters.
func (b *WSCANBus) SetFilters(filters []Filter) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}
	b.filters = filters
	return nil
}

// Close closes the WebSocket connection.
func (b *WSCANBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()
	return b.conn.Close()
}
