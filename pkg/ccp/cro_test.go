// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package ccp

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestEncodeCROVectors(t *testing.T) {
	tests := []struct {
		name    string
		code    CommandCode
		counter uint8
		params  Params
		want    []byte
	}{
		{
			// station address 0x0039 goes out little-endian
			name:    "connect",
			code:    CmdConnect,
			counter: 0x27,
			params:  Params{"station_address": 0x39},
			want:    []byte{0x01, 0x27, 0x39, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name:    "connect wide station address",
			code:    CmdConnect,
			counter: 0x01,
			params:  Params{"station_address": 0x1234},
			want:    []byte{0x01, 0x01, 0x34, 0x12, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name:    "set daq ptr",
			code:    CmdSetDAQPtr,
			counter: 0x27,
			params:  Params{"daq_list_number": 3, "odt_number": 5, "element_number": 2},
			want:    []byte{0x15, 0x27, 0x03, 0x05, 0x02, 0x00, 0x00, 0x00},
		},
		{
			// a short transfer starts at byte 3, trailing bytes stay zero
			name:    "dnload partial",
			code:    CmdDnload,
			counter: 0x10,
			params:  Params{"size": 4, "data": 0xDEADBEEF},
			want:    []byte{0x03, 0x10, 0x04, 0xDE, 0xAD, 0xBE, 0xEF, 0x00},
		},
		{
			name:    "dnload single byte",
			code:    CmdDnload,
			counter: 0x20,
			params:  Params{"size": 1, "data": 0xAB},
			want:    []byte{0x03, 0x20, 0x01, 0xAB, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name:    "dnload full",
			code:    CmdDnload,
			counter: 0x21,
			params:  Params{"size": 5, "data": 0x0102030405},
			want:    []byte{0x03, 0x21, 0x05, 0x01, 0x02, 0x03, 0x04, 0x05},
		},
		{
			name:    "program partial",
			code:    CmdProgram,
			counter: 0x30,
			params:  Params{"size": 2, "data": 0xAABB},
			want:    []byte{0x18, 0x30, 0x02, 0xAA, 0xBB, 0x00, 0x00, 0x00},
		},
		{
			name:    "set mta",
			code:    CmdSetMTA,
			counter: 0x42,
			params:  Params{"mta": 0, "extension": 0x02, "address": 0x34002000},
			want:    []byte{0x02, 0x42, 0x00, 0x02, 0x34, 0x00, 0x20, 0x00},
		},
		{
			name:    "get daq size",
			code:    CmdGetDAQSize,
			counter: 0x05,
			params:  Params{"daq_list_number": 0x03, "dto_id": 0x01020304},
			want:    []byte{0x14, 0x05, 0x03, 0x00, 0x01, 0x02, 0x03, 0x04},
		},
		{
			name:    "start stop",
			code:    CmdStartStop,
			counter: 0x0A,
			params: Params{
				"mode": 1, "daq_list_number": 0, "last_odt_number": 2,
				"event_channel": 1, "rate_prescaler": 0x0100,
			},
			want: []byte{0x06, 0x0A, 0x01, 0x00, 0x02, 0x01, 0x01, 0x00},
		},
		{
			name:    "disconnect",
			code:    CmdDisconnect,
			counter: 0x10,
			params:  Params{"permanent": 1, "station_address": 0x0208},
			want:    []byte{0x07, 0x10, 0x01, 0x00, 0x08, 0x02, 0x00, 0x00},
		},
		{
			name:    "set s status",
			code:    CmdSetSStatus,
			counter: 0x11,
			params:  Params{"status_bits": StatusCAL | StatusDAQ},
			want:    []byte{0x0C, 0x11, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeCRO(tt.code, tt.counter, tt.params)
			if err != nil {
				t.Fatalf("EncodeCRO: %v", err)
			}
			if !bytes.Equal(got[:], tt.want) {
				t.Errorf("EncodeCRO = % X, want % X", got[:], tt.want)
			}
		})
	}
}

func TestCRORoundTrip(t *testing.T) {
	tests := []struct {
		code   CommandCode
		params Params
	}{
		{CmdConnect, Params{"station_address": 0xBEEF}},
		{CmdGetCCPVersion, Params{"major": 2, "minor": 1}},
		{CmdExchangeID, Params{"device_info": 0}},
		{CmdSetMTA, Params{"mta": 0, "extension": 2, "address": 0xDEADBEEF}},
		{CmdDnload, Params{"size": 4, "data": 0xCAFEBABE}},
		{CmdDnload, Params{"size": 2, "data": 0xAABB}},
		{CmdProgram, Params{"size": 3, "data": 0x010203}},
		{CmdUpload, Params{"size": 5}},
		{CmdGetDAQSize, Params{"daq_list_number": 1, "dto_id": 0x321}},
		{CmdSetDAQPtr, Params{"daq_list_number": 0, "odt_number": 7, "element_number": 3}},
		{CmdWriteDAQ, Params{"size": 2, "extension": 0, "address": 0x1000}},
		{CmdStartStop, Params{"mode": 2, "daq_list_number": 1, "last_odt_number": 9, "event_channel": 3, "rate_prescaler": 1000}},
		{CmdDisconnect, Params{"permanent": 0, "station_address": 0x39}},
		{CmdSetSStatus, Params{"status_bits": 0x81}},
		{CmdUnlock, Params{"key": 0x010203040506}},
		{CmdStartStopAll, Params{"mode": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			buf, err := EncodeCRO(tt.code, 0x7F, tt.params)
			if err != nil {
				t.Fatalf("EncodeCRO: %v", err)
			}
			cro, err := DecodeCRO(buf[:])
			if err != nil {
				t.Fatalf("DecodeCRO: %v", err)
			}
			if cro.Code != tt.code || cro.Counter != 0x7F {
				t.Errorf("decoded header %s ctr=%d, want %s ctr=%d", cro.Code, cro.Counter, tt.code, 0x7F)
			}
			if !reflect.DeepEqual(cro.Params, tt.params) {
				t.Errorf("decoded params %v, want %v", cro.Params, tt.params)
			}
		})
	}
}

func TestEncodeCROErrors(t *testing.T) {
	t.Run("unknown command", func(t *testing.T) {
		_, err := EncodeCRO(CommandCode(0xEE), 0, nil)
		var uc *UnknownCommandError
		if !errors.As(err, &uc) {
			t.Fatalf("err = %v, want UnknownCommandError", err)
		}
	})

	t.Run("missing parameter", func(t *testing.T) {
		_, err := EncodeCRO(CmdSetMTA, 0, Params{"mta": 0})
		var ee *EncodingError
		if !errors.As(err, &ee) || ee.Field != "extension" && ee.Field != "address" {
			t.Fatalf("err = %v, want EncodingError for a missing field", err)
		}
	})

	t.Run("value out of range", func(t *testing.T) {
		_, err := EncodeCRO(CmdUpload, 0, Params{"size": 0x100})
		var ee *EncodingError
		if !errors.As(err, &ee) {
			t.Fatalf("err = %v, want EncodingError", err)
		}
	})

	t.Run("dnload size out of range", func(t *testing.T) {
		_, err := EncodeCRO(CmdDnload, 0, Params{"size": 6, "data": 0x010203040506})
		var ee *EncodingError
		if !errors.As(err, &ee) || ee.Field != "data" {
			t.Fatalf("err = %v, want EncodingError for data", err)
		}
	})

	t.Run("dnload data wider than size", func(t *testing.T) {
		_, err := EncodeCRO(CmdDnload, 0, Params{"size": 1, "data": 0x1FF})
		var ee *EncodingError
		if !errors.As(err, &ee) || ee.Field != "data" {
			t.Fatalf("err = %v, want EncodingError for data", err)
		}
	})

	t.Run("unknown parameter", func(t *testing.T) {
		_, err := EncodeCRO(CmdUpload, 0, Params{"size": 1, "bogus": 2})
		var ee *EncodingError
		if !errors.As(err, &ee) || ee.Field != "bogus" {
			t.Fatalf("err = %v, want EncodingError for bogus", err)
		}
	})
}

func TestDecodeCROErrors(t *testing.T) {
	t.Run("short frame", func(t *testing.T) {
		if _, err := DecodeCRO([]byte{0x01, 0x02}); err == nil {
			t.Fatal("want error for short frame")
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		_, err := DecodeCRO([]byte{0xEE, 0, 0, 0, 0, 0, 0, 0})
		var uc *UnknownCommandError
		if !errors.As(err, &uc) || uc.Code != CommandCode(0xEE) {
			t.Fatalf("err = %v, want UnknownCommandError(0xEE)", err)
		}
	})
}
