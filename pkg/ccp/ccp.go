// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

// Package ccp implements the master side of the CAN Calibration
// Protocol (CCP) version 2.1.
//
// The package provides packet encoding/decoding for Command Receive
// Objects and Data Transmission Objects, a command/response Master with
// counter correlation, a frame sorter feeding typed delivery channels,
// and a DAQ session manager that bin-packs measurement elements into
// Object Descriptor Tables and programs them into the slave.
package ccp

import "time"

// Protocol constants.
const (
	// MaxCTO and MaxDTO are the fixed CAN frame payload sizes for
	// command and data transmission objects.
	MaxCTO = 8
	MaxDTO = 8

	// ODTCapacity is the number of payload bytes available in a DAQ
	// message after the PID byte.
	ODTCapacity = 7

	// VersionMajor and VersionMinor identify the implemented protocol
	// version, exchanged via GET_CCP_VERSION.
	VersionMajor = 2
	VersionMinor = 1
)

// DefaultTimeout is the time the master waits for a Command Return
// Message before giving up with ErrNoReply.
const DefaultTimeout = 500 * time.Millisecond

// DTO Packet IDs. PIDs below PIDEvent are ODT numbers of DAQ messages.
const (
	PIDCommandReturn = 0xFF
	PIDEvent         = 0xFE
)

// CommandCode identifies a CCP command in byte 0 of a CRO.
type CommandCode uint8

// Command codes.
const (
	// Mandatory commands.
	CmdConnect       CommandCode = 0x01
	CmdGetCCPVersion CommandCode = 0x1B
	CmdExchangeID    CommandCode = 0x17
	CmdSetMTA        CommandCode = 0x02
	CmdDnload        CommandCode = 0x03
	CmdUpload        CommandCode = 0x04
	CmdGetDAQSize    CommandCode = 0x14
	CmdSetDAQPtr     CommandCode = 0x15
	CmdWriteDAQ      CommandCode = 0x16
	CmdStartStop     CommandCode = 0x06
	CmdDisconnect    CommandCode = 0x07
	CmdSetSStatus    CommandCode = 0x0C

	// Optional commands. Only their wire format is implemented; they
	// are issued through Master.Transact.
	CmdGetSeed          CommandCode = 0x12
	CmdUnlock           CommandCode = 0x13
	CmdDnload6          CommandCode = 0x23
	CmdShortUp          CommandCode = 0x0F
	CmdSelectCalPage    CommandCode = 0x11
	CmdGetSStatus       CommandCode = 0x0D
	CmdBuildChksum      CommandCode = 0x0E
	CmdClearMemory      CommandCode = 0x10
	CmdProgram          CommandCode = 0x18
	CmdProgram6         CommandCode = 0x22
	CmdMove             CommandCode = 0x19
	CmdTest             CommandCode = 0x05
	CmdGetActiveCalPage CommandCode = 0x09
	CmdStartStopAll     CommandCode = 0x08
	CmdDiagService      CommandCode = 0x20
	CmdActionService    CommandCode = 0x21
)

// String returns the CCP mnemonic of the command, e.g. "SET_DAQ_PTR".
func (c CommandCode) String() string {
	if spec, ok := commandTable[c]; ok {
		return spec.name
	}
	return "UNKNOWN"
}

// ReturnCode is the slave's command return / error code in byte 1 of a
// CRM or EVM.
type ReturnCode uint8

// Return codes.
const (
	Acknowledge          ReturnCode = 0x00
	DAQProcessorOverload ReturnCode = 0x01
	// Wait/retry class (C1): wait until ACKNOWLEDGE or timeout.
	CommandProcessorBusy ReturnCode = 0x10
	DAQProcessorBusy     ReturnCode = 0x11
	InternalTimeout      ReturnCode = 0x12
	KeyRequest           ReturnCode = 0x18
	SessionStatusRequest ReturnCode = 0x19
	// Cold-start class (C2).
	ColdStartRequest   ReturnCode = 0x20
	CalDataInitRequest ReturnCode = 0x21
	DAQListInitRequest ReturnCode = 0x22
	CodeUpdateRequest  ReturnCode = 0x23
	// Fault class (C3).
	UnknownCommand       ReturnCode = 0x30
	CommandSyntax        ReturnCode = 0x31
	ParameterOutOfRange  ReturnCode = 0x32
	AccessDenied         ReturnCode = 0x33
	Overload             ReturnCode = 0x34
	AccessLocked         ReturnCode = 0x35
	ResourceNotAvailable ReturnCode = 0x36
)

var returnCodeNames = map[ReturnCode]string{
	Acknowledge:          "ACKNOWLEDGE",
	DAQProcessorOverload: "DAQ_PROCESSOR_OVERLOAD",
	CommandProcessorBusy: "COMMAND_PROCESSOR_BUSY",
	DAQProcessorBusy:     "DAQ_PROCESSOR_BUSY",
	InternalTimeout:      "INTERNAL_TIMEOUT",
	KeyRequest:           "KEY_REQUEST",
	SessionStatusRequest: "SESSION_STATUS_REQUEST",
	ColdStartRequest:     "COLD_START_REQUEST",
	CalDataInitRequest:   "CAL_DATA_INIT_REQUEST",
	DAQListInitRequest:   "DAQ_LIST_INIT_REQUEST",
	CodeUpdateRequest:    "CODE_UPDATE_REQUEST",
	UnknownCommand:       "UNKNOWN_COMMAND",
	CommandSyntax:        "COMMAND_SYNTAX",
	ParameterOutOfRange:  "PARAMETER_OUT_OF_RANGE",
	AccessDenied:         "ACCESS_DENIED",
	Overload:             "OVERLOAD",
	AccessLocked:         "ACCESS_LOCKED",
	ResourceNotAvailable: "RESOURCE_FUNCTION_NOT_AVAILABLE",
}

// String returns the CCP mnemonic of the return code.
func (r ReturnCode) String() string {
	if name, ok := returnCodeNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsWait reports whether the code is in the wait/retry class: the
// command may be retried once the slave settles.
func (r ReturnCode) IsWait() bool {
	return r == DAQProcessorOverload || (r >= CommandProcessorBusy && r <= SessionStatusRequest)
}

// IsColdStart reports whether the code requests a cold start or
// re-initialization.
func (r ReturnCode) IsColdStart() bool {
	return r >= ColdStartRequest && r <= CodeUpdateRequest
}

// IsFault reports whether the code is in the fault class: the command
// was rejected and must not be blindly retried.
func (r ReturnCode) IsFault() bool {
	return r >= UnknownCommand && r <= ResourceNotAvailable
}

// Session status bits for SET_S_STATUS.
const (
	StatusCAL    = 0x01 // calibration data initialized
	StatusDAQ    = 0x02 // DAQ lists initialized
	StatusResume = 0x04 // resume session after temporary disconnect
	StatusStore  = 0x40 // save calibration during shut-down
	StatusRun    = 0x80 // session in progress
)

// Memory transfer address numbers. MTA0 is used by DNLOAD, UPLOAD and
// related commands; MTA1 only by MOVE.
const (
	MTA0 = 0
	MTA1 = 1
)

// StartStop modes.
const (
	DAQStop    = 0
	DAQStart   = 1
	DAQPrepare = 2
)
