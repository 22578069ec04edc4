// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package canbus

import "testing"

func TestParseSLCANLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantOK   bool
		id       uint32
		extended bool
		dlc      uint8
		data     []byte
	}{
		{
			name: "standard frame",
			line: "t6FB8FF00270000000000",
			wantOK: true, id: 0x6FB, dlc: 8,
			data: []byte{0xFF, 0x00, 0x27, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name: "short standard frame",
			line: "t1232010203",
			wantOK: true, id: 0x123, dlc: 2,
			data: []byte{0x01, 0x02},
		},
		{
			name: "extended frame",
			line: "T18DAF1104DEADBEEF",
			wantOK: true, id: 0x18DAF110, extended: true, dlc: 4,
			data: []byte{0xDE, 0xAD, 0xBE, 0xEF},
		},
		{
			name: "empty frame",
			line: "t0000",
			wantOK: true, id: 0, dlc: 0,
		},
		{name: "remote frame ignored", line: "r1230"},
		{name: "status line ignored", line: "F00"},
		{name: "empty line", line: ""},
		{name: "truncated id", line: "t12"},
		{name: "dlc out of range", line: "t123900112233445566778899"},
		{name: "short data", line: "t12340102"},
		{name: "bad hex data", line: "t1231ZZ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := parseSLCANLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("parseSLCANLine(%q) ok=%v, want %v", tt.line, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if f.ID != tt.id || f.Extended != tt.extended || f.DLC != tt.dlc {
				t.Errorf("got id=%#x ext=%v dlc=%d, want id=%#x ext=%v dlc=%d",
					f.ID, f.Extended, f.DLC, tt.id, tt.extended, tt.dlc)
			}
			for i, b := range tt.data {
				if f.Data[i] != b {
					t.Errorf("data[%d] = %#x, want %#x", i, f.Data[i], b)
				}
			}
		})
	}
}

func TestFormatSLCANLine(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  string
	}{
		{
			name:  "standard frame",
			frame: NewFrame(0x6FA, false, []byte{0x01, 0x27, 0x39, 0x00}),
			want:  "t6FA401273900",
		},
		{
			name:  "extended frame",
			frame: NewFrame(0x18DAF110, true, []byte{0xAB}),
			want:  "T18DAF1101AB",
		},
		{
			name:  "empty payload",
			frame: NewFrame(0x7FF, false, nil),
			want:  "t7FF0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatSLCANLine(tt.frame); got != tt.want {
				t.Errorf("formatSLCANLine = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSLCANRoundTrip(t *testing.T) {
	want := NewFrame(0x6FB, false, []byte{0xFF, 0x00, 0x27, 0x01, 0x02, 0x03, 0x04, 0x05})
	got, ok := parseSLCANLine(formatSLCANLine(want))
	if !ok {
		t.Fatal("round trip failed to parse")
	}
	if got.ID != want.ID || got.DLC != want.DLC || got.Data != want.Data {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}
