// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package ccp

import (
	"fmt"
	"time"
)

// CRMResultSize is the number of result bytes a Command Return Message
// carries after the PID, return code and counter.
const CRMResultSize = 5

// CommandReturnMessage is the slave's reply to one CRO.
type CommandReturnMessage struct {
	ReturnCode ReturnCode
	Counter    uint8
	Data       [CRMResultSize]byte
	Timestamp  time.Time
}

func (m CommandReturnMessage) String() string {
	return fmt.Sprintf("CRM ctr=%d %s % X", m.Counter, m.ReturnCode, m.Data[:])
}

// EncodeCRM builds the 8-byte DTO payload of a Command Return Message.
// Used by tests and slave simulators; a master only decodes CRMs.
func EncodeCRM(code ReturnCode, counter uint8, result []byte) ([MaxDTO]byte, error) {
	var buf [MaxDTO]byte
	if len(result) > CRMResultSize {
		return buf, &EncodingError{Command: "CRM", Reason: fmt.Sprintf("result exceeds %d bytes", CRMResultSize)}
	}
	buf[0] = PIDCommandReturn
	buf[1] = uint8(code)
	buf[2] = counter
	copy(buf[3:], result)
	return buf, nil
}

// DecodeCRM parses the payload of a DTO frame already classified as a
// CRM (byte 0 == 0xFF).
func DecodeCRM(data []byte, ts time.Time) (CommandReturnMessage, error) {
	var m CommandReturnMessage
	if len(data) != MaxDTO {
		return m, &EncodingError{Command: "CRM", Reason: fmt.Sprintf("need %d bytes, got %d", MaxDTO, len(data))}
	}
	if data[0] != PIDCommandReturn {
		return m, &EncodingError{Command: "CRM", Reason: fmt.Sprintf("PID 0x%02X is not a CRM", data[0])}
	}
	m.ReturnCode = ReturnCode(data[1])
	m.Counter = data[2]
	copy(m.Data[:], data[3:])
	m.Timestamp = ts
	return m, nil
}

// EventMessage is a slave-initiated notification; bytes after the
// return code are reserved.
type EventMessage struct {
	ReturnCode ReturnCode
	Timestamp  time.Time
}

func (m EventMessage) String() string {
	return fmt.Sprintf("EVM %s", m.ReturnCode)
}

// EncodeEVM builds the 8-byte DTO payload of an Event Message.
func EncodeEVM(code ReturnCode) [MaxDTO]byte {
	var buf [MaxDTO]byte
	buf[0] = PIDEvent
	buf[1] = uint8(code)
	return buf
}

// DecodeEVM parses the payload of a DTO frame already classified as an
// EVM (byte 0 == 0xFE).
func DecodeEVM(data []byte, ts time.Time) (EventMessage, error) {
	var m EventMessage
	if len(data) < 2 {
		return m, &EncodingError{Command: "EVM", Reason: fmt.Sprintf("need at least 2 bytes, got %d", len(data))}
	}
	if data[0] != PIDEvent {
		return m, &EncodingError{Command: "EVM", Reason: fmt.Sprintf("PID 0x%02X is not an EVM", data[0])}
	}
	m.ReturnCode = ReturnCode(data[1])
	m.Timestamp = ts
	return m, nil
}

// DataAcquisitionMessage is one periodic telemetry frame. The PID names
// the ODT whose element list describes the payload layout; the message
// itself carries no type information beyond that.
type DataAcquisitionMessage struct {
	ODTNumber uint8
	Data      [ODTCapacity]byte
	Timestamp time.Time
}

func (m DataAcquisitionMessage) String() string {
	return fmt.Sprintf("DAQ#%d % X", m.ODTNumber, m.Data[:])
}

// EncodeDAQ builds the 8-byte DTO payload of a DAQ message.
func EncodeDAQ(odtNumber uint8, payload []byte) ([MaxDTO]byte, error) {
	var buf [MaxDTO]byte
	if odtNumber >= PIDEvent {
		return buf, &EncodingError{Command: "DAQ", Reason: fmt.Sprintf("ODT number %d collides with reserved PIDs", odtNumber)}
	}
	if len(payload) > ODTCapacity {
		return buf, &EncodingError{Command: "DAQ", Reason: fmt.Sprintf("payload exceeds %d bytes", ODTCapacity)}
	}
	buf[0] = odtNumber
	copy(buf[1:], payload)
	return buf, nil
}

// DecodeDAQ parses the payload of a DTO frame already classified as a
// DAQ message (byte 0 < 0xFE).
func DecodeDAQ(data []byte, ts time.Time) (DataAcquisitionMessage, error) {
	var m DataAcquisitionMessage
	if len(data) != MaxDTO {
		return m, &EncodingError{Command: "DAQ", Reason: fmt.Sprintf("need %d bytes, got %d", MaxDTO, len(data))}
	}
	if data[0] >= PIDEvent {
		return m, &EncodingError{Command: "DAQ", Reason: fmt.Sprintf("PID 0x%02X is not a DAQ message", data[0])}
	}
	m.ODTNumber = data[0]
	copy(m.Data[:], data[1:])
	m.Timestamp = ts
	return m, nil
}

// Decode resolves the message against the session's registered ODTs and
// returns the sampled element values. Decoding a DAQ message whose ODT
// is not registered fails with UnknownODTError.
func (m DataAcquisitionMessage) Decode(table *ODTTable) ([]Sample, error) {
	odt, ok := table.Lookup(m.ODTNumber)
	if !ok {
		return nil, &UnknownODTError{Number: m.ODTNumber}
	}
	return odt.Decode(m.Data[:], m.Timestamp), nil
}
