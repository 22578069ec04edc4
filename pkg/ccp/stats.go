// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package ccp

import (
	"sync"
	"time"
)

// Statistics tracks frame traffic seen by a MessageSorter. Safe for
// concurrent use; the sorter updates it from the bus-reading goroutine
// while UIs read snapshots.
type Statistics struct {
	mu sync.Mutex

	StartTime time.Time

	TotalFrames    uint64
	CRMCount       uint64
	EVMCount       uint64
	DAQCount       uint64
	CROCount       uint64
	Discarded      uint64 // frames matching no session arbitration ID
	MalformedCount uint64 // classified frames that failed to decode
	DroppedCount   uint64 // decoded messages lost to a full channel
}

// NewStatistics creates a statistics tracker starting now.
func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now()}
}

// Snapshot returns a consistent copy for display.
func (s *Statistics) Snapshot() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Statistics{
		StartTime:      s.StartTime,
		TotalFrames:    s.TotalFrames,
		CRMCount:       s.CRMCount,
		EVMCount:       s.EVMCount,
		DAQCount:       s.DAQCount,
		CROCount:       s.CROCount,
		Discarded:      s.Discarded,
		MalformedCount: s.MalformedCount,
		DroppedCount:   s.DroppedCount,
	}
}

// FrameRate returns the average frames/second since StartTime.
func (s *Statistics) FrameRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.TotalFrames) / elapsed
}

func (s *Statistics) count(f func(*Statistics)) {
	s.mu.Lock()
	f(s)
	s.mu.Unlock()
}
