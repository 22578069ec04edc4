// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package ccp

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a Master.
type Option func(*Master)

// WithTimeout sets how long Receive waits for a Command Return Message
// before giving up with ErrNoReply. Default is DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Master) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger sets the structured logger. Default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Master) {
		if logger != nil {
			m.log = logger
		}
	}
}

// WithExtendedIDs makes the master transmit 29-bit arbitration IDs.
// Default is standard 11-bit IDs.
func WithExtendedIDs() Option {
	return func(m *Master) {
		m.extended = true
	}
}

// WithInitialCounter sets the first command counter value. The counter
// starts at zero by default; slaves only require that consecutive CROs
// carry consecutive counters.
func WithInitialCounter(ctr uint8) Option {
	return func(m *Master) {
		m.ctr = ctr
	}
}
