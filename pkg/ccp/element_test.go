// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package ccp

import (
	"math"
	"testing"
)

func TestPackElementsFirstFitDecreasing(t *testing.T) {
	// e0..e5 with sizes 4,4,1,2,2,4 pack into three ODTs of 7/6/4
	// bytes. The stable descending sort keeps e0 before e1 before e5.
	elements := []Element{
		{Name: "e0", Size: 4},
		{Name: "e1", Size: 4},
		{Name: "e2", Size: 1},
		{Name: "e3", Size: 2},
		{Name: "e4", Size: 2},
		{Name: "e5", Size: 4},
	}

	bins := packElements(elements, ODTCapacity)

	want := [][]string{
		{"e0", "e3", "e2"},
		{"e1", "e4"},
		{"e5"},
	}
	if len(bins) != len(want) {
		t.Fatalf("got %d bins, want %d", len(bins), len(want))
	}
	for i, bin := range bins {
		if len(bin) != len(want[i]) {
			t.Fatalf("bin %d holds %d elements, want %d", i, len(bin), len(want[i]))
		}
		for j, e := range bin {
			if e.Name != want[i][j] {
				t.Errorf("bin %d slot %d = %s, want %s", i, j, e.Name, want[i][j])
			}
		}
	}
}

func TestPackElementsInvariants(t *testing.T) {
	elements := []Element{
		{Name: "a", Size: 2}, {Name: "b", Size: 4}, {Name: "c", Size: 1},
		{Name: "d", Size: 1}, {Name: "e", Size: 2}, {Name: "f", Size: 4},
		{Name: "g", Size: 4}, {Name: "h", Size: 1}, {Name: "i", Size: 2},
	}

	bins := packElements(elements, ODTCapacity)

	seen := map[string]bool{}
	for i, bin := range bins {
		fill := 0
		for _, e := range bin {
			fill += int(e.Size)
			if seen[e.Name] {
				t.Errorf("element %s packed twice", e.Name)
			}
			seen[e.Name] = true
		}
		if fill > ODTCapacity {
			t.Errorf("bin %d holds %d bytes, capacity is %d", i, fill, ODTCapacity)
		}
		if fill == 0 {
			t.Errorf("bin %d is empty", i)
		}
	}
	if len(seen) != len(elements) {
		t.Errorf("packed %d distinct elements, want %d", len(seen), len(elements))
	}
}

func TestNewODTAssignsOffsets(t *testing.T) {
	odt, err := NewODT(2, []Element{
		{Name: "a", Size: 4},
		{Name: "b", Size: 2},
		{Name: "c", Size: 1},
	})
	if err != nil {
		t.Fatalf("NewODT: %v", err)
	}
	wantOffsets := []int{0, 4, 6}
	for i, e := range odt.Elements {
		if e.ByteOffset != wantOffsets[i] {
			t.Errorf("element %s offset = %d, want %d", e.Name, e.ByteOffset, wantOffsets[i])
		}
	}
	if odt.Size() != 7 {
		t.Errorf("Size = %d, want 7", odt.Size())
	}
}

func TestNewODTRejectsOverflow(t *testing.T) {
	_, err := NewODT(0, []Element{
		{Name: "a", Size: 4},
		{Name: "b", Size: 4},
	})
	if err == nil {
		t.Fatal("want error for 8 bytes in a 7-byte ODT")
	}
}

func TestNewODTRejectsReservedNumber(t *testing.T) {
	if _, err := NewODT(0xFE, nil); err == nil {
		t.Fatal("want error for ODT number colliding with EVM PID")
	}
}

func TestElementValidate(t *testing.T) {
	tests := []struct {
		name    string
		e       Element
		wantErr bool
	}{
		{"byte", Element{Name: "b", Size: 1}, false},
		{"word", Element{Name: "w", Size: 2}, false},
		{"dword", Element{Name: "d", Size: 4}, false},
		{"three bytes", Element{Name: "x", Size: 3}, true},
		{"zero", Element{Name: "z", Size: 0}, true},
		{"float dword", Element{Name: "f", Size: 4, Float: true}, false},
		{"float word", Element{Name: "f", Size: 2, Float: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.e.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestElementDecode(t *testing.T) {
	payload := []byte{0xF6, 0x1F, 0x40, 0x42, 0xF6, 0xE9, 0x79}

	tests := []struct {
		name string
		e    Element
		want float64
	}{
		{"unsigned byte", Element{Size: 1}, 246},
		{"signed byte", Element{Size: 1, Signed: true}, -10},
		{"unsigned word", Element{Size: 2, ByteOffset: 1}, 8000},
		{"scaled word", Element{Size: 2, ByteOffset: 1, Scale: 0.25, Offset: -40}, 1960},
		{"float", Element{Size: 4, Float: true, ByteOffset: 3}, float64(math.Float32frombits(0x42F6E979))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.e.decode(payload)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("decode = %v, want %v", got, tt.want)
			}
		})
	}
}
