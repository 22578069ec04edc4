// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package ccp

// Per-command wire layouts. Every command is described by a row in
// commandTable; encoding and decoding walk the field list instead of
// branching on the command code, so adding a command means adding a row.
//
// All fields are big-endian unless little is set. The protocol carries
// the station address little-endian as a documented exception.

// field describes one command parameter inside the 8-byte CRO: byte
// offset (2-7), byte length and endianness. A field with sizedBy set is
// variable-length: the parameter named by sizedBy carries the byte
// count, size caps it, and the value is written left-aligned at the
// field offset with trailing bytes left zero.
type field struct {
	name    string
	offset  int
	size    int
	little  bool
	sizedBy string
}

// commandSpec is the layout of one command's parameter bytes.
type commandSpec struct {
	name   string
	fields []field
}

var commandTable = map[CommandCode]commandSpec{
	// Mandatory commands.
	CmdConnect: {
		name: "CONNECT",
		fields: []field{
			{name: "station_address", offset: 2, size: 2, little: true},
		},
	},
	CmdGetCCPVersion: {
		name: "GET_CCP_VERSION",
		fields: []field{
			{name: "major", offset: 2, size: 1},
			{name: "minor", offset: 3, size: 1},
		},
	},
	CmdExchangeID: {
		name: "EXCHANGE_ID",
		fields: []field{
			{name: "device_info", offset: 2, size: 6},
		},
	},
	CmdSetMTA: {
		name: "SET_MTA",
		fields: []field{
			{name: "mta", offset: 2, size: 1},
			{name: "extension", offset: 3, size: 1},
			{name: "address", offset: 4, size: 4},
		},
	},
	CmdDnload: {
		name: "DNLOAD",
		fields: []field{
			{name: "size", offset: 2, size: 1},
			{name: "data", offset: 3, size: 5, sizedBy: "size"},
		},
	},
	CmdUpload: {
		name: "UPLOAD",
		fields: []field{
			{name: "size", offset: 2, size: 1},
		},
	},
	CmdGetDAQSize: {
		name: "GET_DAQ_SIZE",
		fields: []field{
			{name: "daq_list_number", offset: 2, size: 1},
			{name: "dto_id", offset: 4, size: 4},
		},
	},
	CmdSetDAQPtr: {
		name: "SET_DAQ_PTR",
		fields: []field{
			{name: "daq_list_number", offset: 2, size: 1},
			{name: "odt_number", offset: 3, size: 1},
			{name: "element_number", offset: 4, size: 1},
		},
	},
	CmdWriteDAQ: {
		name: "WRITE_DAQ",
		fields: []field{
			{name: "size", offset: 2, size: 1},
			{name: "extension", offset: 3, size: 1},
			{name: "address", offset: 4, size: 4},
		},
	},
	CmdStartStop: {
		name: "START_STOP",
		fields: []field{
			{name: "mode", offset: 2, size: 1},
			{name: "daq_list_number", offset: 3, size: 1},
			{name: "last_odt_number", offset: 4, size: 1},
			{name: "event_channel", offset: 5, size: 1},
			{name: "rate_prescaler", offset: 6, size: 2},
		},
	},
	CmdDisconnect: {
		name: "DISCONNECT",
		fields: []field{
			{name: "permanent", offset: 2, size: 1},
			{name: "station_address", offset: 4, size: 2, little: true},
		},
	},
	CmdSetSStatus: {
		name: "SET_S_STATUS",
		fields: []field{
			{name: "status_bits", offset: 2, size: 1},
		},
	},

	// Optional commands: wire format only.
	CmdGetSeed: {
		name: "GET_SEED",
		fields: []field{
			{name: "resource", offset: 2, size: 1},
		},
	},
	CmdUnlock: {
		name: "UNLOCK",
		fields: []field{
			{name: "key", offset: 2, size: 6},
		},
	},
	CmdDnload6: {
		name: "DNLOAD_6",
		fields: []field{
			{name: "data", offset: 2, size: 6},
		},
	},
	CmdShortUp: {
		name: "SHORT_UP",
		fields: []field{
			{name: "size", offset: 2, size: 1},
			{name: "extension", offset: 3, size: 1},
			{name: "address", offset: 4, size: 4},
		},
	},
	CmdSelectCalPage: {
		name: "SELECT_CAL_PAGE",
	},
	CmdGetSStatus: {
		name: "GET_S_STATUS",
	},
	CmdBuildChksum: {
		name: "BUILD_CHKSUM",
		fields: []field{
			{name: "size", offset: 2, size: 4},
		},
	},
	CmdClearMemory: {
		name: "CLEAR_MEMORY",
		fields: []field{
			{name: "size", offset: 2, size: 4},
		},
	},
	CmdProgram: {
		name: "PROGRAM",
		fields: []field{
			{name: "size", offset: 2, size: 1},
			{name: "data", offset: 3, size: 5, sizedBy: "size"},
		},
	},
	CmdProgram6: {
		name: "PROGRAM_6",
		fields: []field{
			{name: "data", offset: 2, size: 6},
		},
	},
	CmdMove: {
		name: "MOVE",
		fields: []field{
			{name: "size", offset: 2, size: 4},
		},
	},
	CmdTest: {
		name: "TEST",
		fields: []field{
			{name: "station_address", offset: 2, size: 2, little: true},
		},
	},
	CmdGetActiveCalPage: {
		name: "GET_ACTIVE_CAL_PAGE",
	},
	CmdStartStopAll: {
		name: "START_STOP_ALL",
		fields: []field{
			{name: "mode", offset: 2, size: 1},
		},
	},
	CmdDiagService: {
		name: "DIAG_SERVICE",
		fields: []field{
			{name: "service_number", offset: 2, size: 2},
		},
	},
	CmdActionService: {
		name: "ACTION_SERVICE",
		fields: []field{
			{name: "action_number", offset: 2, size: 2},
		},
	},
}
