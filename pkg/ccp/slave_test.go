// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package ccp_test

import (
	"encoding/binary"
	"sync"

	"github.com/ecukit/goccp/pkg/canbus"
	"github.com/ecukit/goccp/pkg/ccp"
)

// daqWrite records one programmed element slot.
type daqWrite struct {
	list, odt, element uint8
	size, extension    uint8
	address            uint32
}

// simSlave is a minimal in-process CCP slave answering on one endpoint
// of a memory bus pair. Its DAQ list layout and failure behavior are
// configurable per test.
type simSlave struct {
	bus            *canbus.MemBus
	croID, dtoID   uint32
	stationAddress uint16
	daqListSizes   []uint8

	mu sync.Mutex
	// behavior knobs
	dropNext    bool
	failNext    ccp.ReturnCode
	counterSkew uint8

	// observed state
	connected bool
	status    uint8
	mta       uint32
	ptr       struct{ list, odt, element uint8 }
	writes    []daqWrite
	started   map[uint8]uint8 // list -> last START_STOP mode
	memory    map[uint32]byte
}

func newSimSlave(bus *canbus.MemBus, croID, dtoID uint32, stationAddress uint16, daqListSizes []uint8) *simSlave {
	s := &simSlave{
		bus:            bus,
		croID:          croID,
		dtoID:          dtoID,
		stationAddress: stationAddress,
		daqListSizes:   daqListSizes,
		started:        make(map[uint8]uint8),
		memory:         make(map[uint32]byte),
	}
	go s.run()
	return s
}

func (s *simSlave) run() {
	for f := range s.bus.Frames() {
		if f.ID != s.croID {
			continue
		}
		cro, err := ccp.DecodeCRO(f.Payload())
		if err != nil {
			continue
		}
		s.handle(cro)
	}
}

func (s *simSlave) handle(cro ccp.CommandReceiveObject) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dropNext {
		s.dropNext = false
		return
	}
	ctr := cro.Counter + s.counterSkew
	s.counterSkew = 0
	if s.failNext != ccp.Acknowledge {
		code := s.failNext
		s.failNext = ccp.Acknowledge
		s.reply(code, ctr, nil)
		return
	}

	var result []byte
	switch cro.Code {
	case ccp.CmdConnect:
		s.connected = true
	case ccp.CmdDisconnect:
		s.connected = false
	case ccp.CmdGetCCPVersion:
		result = []byte{ccp.VersionMajor, ccp.VersionMinor}
	case ccp.CmdExchangeID:
		result = []byte{4, 0, 0x0D, 0x00}
	case ccp.CmdSetMTA:
		s.mta = uint32(cro.Params["address"])
	case ccp.CmdDnload:
		n := uint32(cro.Params["size"])
		data := cro.Params["data"]
		for i := uint32(0); i < n; i++ {
			shift := 8 * (n - 1 - i)
			s.memory[s.mta+i] = byte(data >> shift)
		}
		s.mta += n
		result = make([]byte, 5)
		binary.BigEndian.PutUint32(result[1:], s.mta)
	case ccp.CmdUpload:
		n := uint32(cro.Params["size"])
		result = make([]byte, n)
		for i := uint32(0); i < n; i++ {
			result[i] = s.memory[s.mta+i]
		}
		s.mta += n
	case ccp.CmdGetDAQSize:
		list := int(cro.Params["daq_list_number"])
		var size, firstPID uint8
		if list < len(s.daqListSizes) {
			size = s.daqListSizes[list]
			for i := 0; i < list; i++ {
				firstPID += s.daqListSizes[i]
			}
		}
		result = []byte{size, firstPID}
	case ccp.CmdSetDAQPtr:
		s.ptr.list = uint8(cro.Params["daq_list_number"])
		s.ptr.odt = uint8(cro.Params["odt_number"])
		s.ptr.element = uint8(cro.Params["element_number"])
	case ccp.CmdWriteDAQ:
		s.writes = append(s.writes, daqWrite{
			list:      s.ptr.list,
			odt:       s.ptr.odt,
			element:   s.ptr.element,
			size:      uint8(cro.Params["size"]),
			extension: uint8(cro.Params["extension"]),
			address:   uint32(cro.Params["address"]),
		})
	case ccp.CmdStartStop:
		s.started[uint8(cro.Params["daq_list_number"])] = uint8(cro.Params["mode"])
	case ccp.CmdSetSStatus:
		s.status = uint8(cro.Params["status_bits"])
	default:
		s.reply(ccp.UnknownCommand, ctr, nil)
		return
	}
	s.reply(ccp.Acknowledge, ctr, result)
}

func (s *simSlave) reply(code ccp.ReturnCode, ctr uint8, result []byte) {
	buf, err := ccp.EncodeCRM(code, ctr, result)
	if err != nil {
		return
	}
	_ = s.bus.Send(canbus.NewFrame(s.dtoID, false, buf[:]))
}

// sendDAQ emits one telemetry frame as if a list were running.
func (s *simSlave) sendDAQ(odtNumber uint8, payload []byte) {
	buf, err := ccp.EncodeDAQ(odtNumber, payload)
	if err != nil {
		return
	}
	_ = s.bus.Send(canbus.NewFrame(s.dtoID, false, buf[:]))
}

// sendEvent emits one slave-initiated event message.
func (s *simSlave) sendEvent(code ccp.ReturnCode) {
	buf := ccp.EncodeEVM(code)
	_ = s.bus.Send(canbus.NewFrame(s.dtoID, false, buf[:]))
}

func (s *simSlave) snapshotWrites() []daqWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]daqWrite, len(s.writes))
	copy(out, s.writes)
	return out
}

func (s *simSlave) listMode(list uint8) (uint8, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mode, ok := s.started[list]
	return mode, ok
}

func (s *simSlave) sessionStatus() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *simSlave) memoryAt(addr uint32, n int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, n)
	for i := range out {
		out[i] = s.memory[addr+uint32(i)]
	}
	return out
}

func (s *simSlave) isConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *simSlave) set(f func(*simSlave)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s)
}
