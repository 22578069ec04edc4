// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package canbus

import (
	"bytes"
	"testing"
)

func TestMarshalWSFrame(t *testing.T) {
	f := NewFrame(0x6FA, false, []byte{0x01, 0x27, 0x39})
	got := marshalWSFrame(f)
	want := []byte{
		0x00, 0x00, 0x06, 0xFA, // ID, big-endian
		0x03,                                           // DLC
		0x01, 0x27, 0x39, 0x00, 0x00, 0x00, 0x00, 0x00, // data
	}
	if !bytes.Equal(got, want) {
		t.Errorf("marshalWSFrame = % X, want % X", got, want)
	}
}

func TestWSFrameExtendedRoundTrip(t *testing.T) {
	want := NewFrame(0x18DAF110, true, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	buf := marshalWSFrame(want)

	if buf[0]&0x80 == 0 {
		t.Error("extended frame must set bit 31 of the ID word")
	}

	got := unmarshalWSFrame(buf)
	if got.ID != want.ID || !got.Extended || got.DLC != want.DLC || got.Data != want.Data {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestUnmarshalWSFrameClampsDLC(t *testing.T) {
	buf := make([]byte, wsFrameSize)
	buf[4] = 15
	if f := unmarshalWSFrame(buf); f.DLC != 8 {
		t.Errorf("DLC = %d, want clamped to 8", f.DLC)
	}
}
