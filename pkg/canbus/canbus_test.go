// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package canbus

import (
	"testing"
	"time"
)

func TestFilterMatches(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		frame  Frame
		want   bool
	}{
		{"exact hit", ExactFilter(0x6FB, false), NewFrame(0x6FB, false, nil), true},
		{"exact miss", ExactFilter(0x6FB, false), NewFrame(0x6FA, false, nil), false},
		{"format mismatch", ExactFilter(0x6FB, false), NewFrame(0x6FB, true, nil), false},
		{"masked range", Filter{ID: 0x700, Mask: 0x700}, NewFrame(0x7DF, false, nil), true},
		{"masked miss", Filter{ID: 0x700, Mask: 0x700}, NewFrame(0x123, false, nil), false},
		{"extended exact", ExactFilter(0x18DAF110, true), NewFrame(0x18DAF110, true, nil), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.frame); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFramePayload(t *testing.T) {
	f := NewFrame(0x123, false, []byte{1, 2, 3})
	if f.DLC != 3 {
		t.Errorf("DLC = %d, want 3", f.DLC)
	}
	if got := f.Payload(); len(got) != 3 || got[2] != 3 {
		t.Errorf("Payload = % X", got)
	}

	long := NewFrame(0x123, false, make([]byte, 12))
	if long.DLC != 8 {
		t.Errorf("long payload DLC = %d, want 8", long.DLC)
	}
}

func TestMemPairDelivery(t *testing.T) {
	a, b := NewMemPair()
	defer a.Close()
	defer b.Close()

	want := NewFrame(0x6FA, false, []byte{0x01, 0x27})
	if err := a.Send(want); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-b.Frames():
		if got.ID != want.ID || got.DLC != want.DLC {
			t.Errorf("received %+v, want %+v", got, want)
		}
		if got.Timestamp.IsZero() {
			t.Error("frame carries no timestamp")
		}
	case <-time.After(time.Second):
		t.Fatal("frame not delivered to peer")
	}

	// Frames never loop back to the sender.
	select {
	case f := <-a.Frames():
		t.Fatalf("unexpected loopback frame %+v", f)
	default:
	}
}

func TestMemPairFilters(t *testing.T) {
	a, b := NewMemPair()
	defer a.Close()
	defer b.Close()

	if err := b.SetFilters([]Filter{ExactFilter(0x6FB, false)}); err != nil {
		t.Fatalf("SetFilters: %v", err)
	}

	a.Send(NewFrame(0x123, false, nil))
	a.Send(NewFrame(0x6FB, false, nil))

	select {
	case got := <-b.Frames():
		if got.ID != 0x6FB {
			t.Errorf("filter passed ID %#x", got.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("filtered frame not delivered")
	}
	select {
	case got := <-b.Frames():
		t.Fatalf("frame %#x should have been filtered out", got.ID)
	default:
	}
}

func TestMemBusClose(t *testing.T) {
	a, b := NewMemPair()

	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := a.Send(NewFrame(0x1, false, nil)); err != ErrBusClosed {
		t.Errorf("Send on closed bus = %v, want ErrBusClosed", err)
	}

	// Sending to a closed peer does not error; the frame is dropped
	// like on a bus with no listener.
	if err := b.Send(NewFrame(0x1, false, nil)); err != nil {
		t.Errorf("Send to closed peer: %v", err)
	}

	if _, ok := <-a.Frames(); ok {
		t.Error("Frames channel still open after Close")
	}
	b.Close()
}
