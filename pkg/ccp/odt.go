// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package ccp

import (
	"fmt"
	"sync"
	"time"
)

// ObjectDescriptorTable describes the layout of one DAQ message: an ODT
// number and an ordered element list occupying at most ODTCapacity
// bytes. Element byte ranges never overlap; offsets are assigned
// contiguously in placement order.
type ObjectDescriptorTable struct {
	Number   uint8
	Elements []Element
}

// NewODT builds an ODT from packed elements, assigning their byte
// offsets. The combined element size must fit the DAQ payload.
func NewODT(number uint8, elements []Element) (*ObjectDescriptorTable, error) {
	if number >= PIDEvent {
		return nil, fmt.Errorf("ccp: ODT number %d collides with reserved PIDs", number)
	}

	odt := &ObjectDescriptorTable{
		Number:   number,
		Elements: make([]Element, len(elements)),
	}
	offset := 0
	for i, e := range elements {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		e.ByteOffset = offset
		offset += int(e.Size)
		odt.Elements[i] = e
	}
	if offset > ODTCapacity {
		return nil, fmt.Errorf("ccp: ODT %d holds %d bytes, capacity is %d", number, offset, ODTCapacity)
	}
	return odt, nil
}

// Size returns the total payload bytes occupied by the ODT's elements.
func (o *ObjectDescriptorTable) Size() int {
	n := 0
	for _, e := range o.Elements {
		n += int(e.Size)
	}
	return n
}

// Decode extracts all element values from a DAQ payload laid out per
// this ODT.
func (o *ObjectDescriptorTable) Decode(payload []byte, ts time.Time) []Sample {
	samples := make([]Sample, len(o.Elements))
	for i, e := range o.Elements {
		samples[i] = Sample{Name: e.Name, Value: e.decode(payload), Timestamp: ts}
	}
	return samples
}

// ODTTable is the set of ODTs registered by one DAQ session. It is
// owned by the session and consulted read-only when decoding DAQ
// messages, possibly from another goroutine, so registration and
// deregistration take effect atomically.
type ODTTable struct {
	mu   sync.RWMutex
	odts map[uint8]*ObjectDescriptorTable
}

// NewODTTable creates an empty registry.
func NewODTTable() *ODTTable {
	return &ODTTable{odts: make(map[uint8]*ObjectDescriptorTable)}
}

// Register adds an ODT, replacing any previous entry with that number.
func (t *ODTTable) Register(odt *ObjectDescriptorTable) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.odts[odt.Number] = odt
}

// Deregister removes the ODT with the given number.
func (t *ODTTable) Deregister(number uint8) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.odts, number)
}

// Lookup returns the registered ODT for a DAQ PID.
func (t *ODTTable) Lookup(number uint8) (*ObjectDescriptorTable, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	odt, ok := t.odts[number]
	return odt, ok
}

// Clear removes all registered ODTs.
func (t *ODTTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.odts = make(map[uint8]*ObjectDescriptorTable)
}

// Len returns the number of registered ODTs.
func (t *ODTTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.odts)
}
