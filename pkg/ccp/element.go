// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package ccp

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Element describes one slave-internal variable: where it lives in ECU
// memory and how its raw bytes are interpreted. Elements come from a
// description file (A2L/DBC); this package does not parse those.
type Element struct {
	Name      string
	Address   uint32
	Extension uint8
	Size      uint8 // 1, 2 or 4 bytes
	Signed    bool
	Float     bool // IEEE 754 single precision, Size must be 4
	Scale     float64
	Offset    float64

	// ByteOffset is the element's position inside its ODT payload,
	// assigned during packing.
	ByteOffset int
}

// Validate checks that the element can be transmitted by WRITE_DAQ.
func (e Element) Validate() error {
	switch e.Size {
	case 1, 2, 4:
	default:
		return &EncodingError{Command: "WRITE_DAQ", Field: e.Name, Reason: fmt.Sprintf("element size must be 1, 2 or 4, got %d", e.Size)}
	}
	if e.Float && e.Size != 4 {
		return &EncodingError{Command: "WRITE_DAQ", Field: e.Name, Reason: "float elements must be 4 bytes"}
	}
	return nil
}

// decode interprets the element's raw big-endian bytes from an ODT
// payload and applies scale and offset.
func (e Element) decode(payload []byte) float64 {
	var raw uint32
	for _, b := range payload[e.ByteOffset : e.ByteOffset+int(e.Size)] {
		raw = raw<<8 | uint32(b)
	}

	var v float64
	switch {
	case e.Float:
		v = float64(math.Float32frombits(raw))
	case e.Signed:
		shift := 32 - 8*uint(e.Size)
		v = float64(int32(raw<<shift) >> shift)
	default:
		v = float64(raw)
	}

	scale := e.Scale
	if scale == 0 {
		scale = 1
	}
	return v*scale + e.Offset
}

// Sample is one decoded element value from a DAQ message.
type Sample struct {
	Name      string
	Value     float64
	Timestamp time.Time
}

// packElements distributes elements over bins of the given capacity
// using First-Fit Decreasing: elements are taken in descending size
// order (stable, so ties keep their input order) and placed into the
// first bin with room, opening a new bin when none fits.
//
// FFD is within 11/9 of the optimal bin count, which is good enough for
// the tens of signals a DAQ session typically carries.
func packElements(elements []Element, capacity int) [][]Element {
	sorted := make([]Element, len(elements))
	copy(sorted, elements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Size > sorted[j].Size
	})

	var bins [][]Element
	fill := []int{}
	for _, e := range sorted {
		placed := false
		for i := range bins {
			if fill[i]+int(e.Size) <= capacity {
				bins[i] = append(bins[i], e)
				fill[i] += int(e.Size)
				placed = true
				break
			}
		}
		if !placed {
			bins = append(bins, []Element{e})
			fill = append(fill, int(e.Size))
		}
	}
	return bins
}
