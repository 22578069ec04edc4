// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package ccp

import (
	"go.uber.org/zap"

	"github.com/ecukit/goccp/pkg/canbus"
)

// Delivery channel depths. One command is in flight at a time, so the
// CRM channel never holds more than one message in practice; DAQ
// traffic is periodic and bursty and gets a deep buffer.
const (
	crmQueueDepth = 16
	evmQueueDepth = 64
	daqQueueDepth = 1024
	croQueueDepth = 16
)

// MessageSorter classifies raw bus frames into typed CCP messages and
// delivers them on per-type channels. Classification uses the session's
// two arbitration IDs and the first payload byte: on the DTO ID, PID
// 0xFF is a CRM, 0xFE an EVM and anything below a DAQ message; frames
// on the CRO ID are command echoes (bus loopback). Everything else is
// discarded.
//
// Within a channel, delivery order equals bus arrival order. No
// ordering holds across channels. A malformed frame is logged and
// dropped; it never stops the sorter.
type MessageSorter struct {
	croID uint32
	dtoID uint32

	crm chan CommandReturnMessage
	evm chan EventMessage
	daq chan DataAcquisitionMessage
	cro chan CommandReceiveObject

	log   *zap.Logger
	stats *Statistics
}

// NewMessageSorter creates a sorter for one CRO/DTO arbitration-ID pair.
func NewMessageSorter(croID, dtoID uint32, logger *zap.Logger) *MessageSorter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageSorter{
		croID: croID,
		dtoID: dtoID,
		crm:   make(chan CommandReturnMessage, crmQueueDepth),
		evm:   make(chan EventMessage, evmQueueDepth),
		daq:   make(chan DataAcquisitionMessage, daqQueueDepth),
		cro:   make(chan CommandReceiveObject, croQueueDepth),
		log:   logger,
		stats: NewStatistics(),
	}
}

// Put classifies one frame and enqueues the reconstructed message.
// Called from the single bus-reading goroutine.
func (s *MessageSorter) Put(f canbus.Frame) {
	s.stats.count(func(st *Statistics) { st.TotalFrames++ })

	switch {
	case f.ID == s.dtoID && f.DLC >= 1 && f.Data[0] == PIDCommandReturn:
		s.putCRM(f)
	case f.ID == s.dtoID && f.DLC >= 1 && f.Data[0] == PIDEvent:
		s.putEVM(f)
	case f.ID == s.dtoID && f.DLC >= 1:
		s.putDAQ(f)
	case f.ID == s.croID:
		s.putCRO(f)
	default:
		s.stats.count(func(st *Statistics) { st.Discarded++ })
	}
}

func (s *MessageSorter) putCRM(f canbus.Frame) {
	m, err := DecodeCRM(f.Payload(), f.Timestamp)
	if err != nil {
		s.malformed("CRM", err)
		return
	}
	s.stats.count(func(st *Statistics) { st.CRMCount++ })
	s.log.Debug("received CRM",
		zap.Uint8("ctr", m.Counter),
		zap.Stringer("return_code", m.ReturnCode),
		zap.Binary("data", m.Data[:]),
	)
	select {
	case s.crm <- m:
	default:
		s.dropped("CRM")
	}
}

func (s *MessageSorter) putEVM(f canbus.Frame) {
	m, err := DecodeEVM(f.Payload(), f.Timestamp)
	if err != nil {
		s.malformed("EVM", err)
		return
	}
	s.stats.count(func(st *Statistics) { st.EVMCount++ })
	s.log.Debug("received EVM", zap.Stringer("return_code", m.ReturnCode))
	select {
	case s.evm <- m:
	default:
		s.dropped("EVM")
	}
}

func (s *MessageSorter) putDAQ(f canbus.Frame) {
	m, err := DecodeDAQ(f.Payload(), f.Timestamp)
	if err != nil {
		s.malformed("DAQ", err)
		return
	}
	s.stats.count(func(st *Statistics) { st.DAQCount++ })
	s.log.Info("received DAQ",
		zap.Uint8("odt", m.ODTNumber),
		zap.Binary("data", m.Data[:]),
	)
	select {
	case s.daq <- m:
	default:
		s.dropped("DAQ")
	}
}

func (s *MessageSorter) putCRO(f canbus.Frame) {
	m, err := DecodeCRO(f.Payload())
	if err != nil {
		s.malformed("CRO", err)
		return
	}
	m.Timestamp = f.Timestamp
	s.stats.count(func(st *Statistics) { st.CROCount++ })
	// CRO echoes are logged by the master on send. Draining them is
	// optional, so a full echo channel is not worth a warning.
	select {
	case s.cro <- m:
	default:
		s.stats.count(func(st *Statistics) { st.DroppedCount++ })
		s.log.Debug("echo channel full, dropping CRO")
	}
}

func (s *MessageSorter) malformed(kind string, err error) {
	s.stats.count(func(st *Statistics) { st.MalformedCount++ })
	s.log.Debug("dropping malformed frame", zap.String("kind", kind), zap.Error(err))
}

func (s *MessageSorter) dropped(kind string) {
	s.stats.count(func(st *Statistics) { st.DroppedCount++ })
	s.log.Warn("delivery channel full, dropping message", zap.String("kind", kind))
}

// CRM returns the Command Return Message delivery channel.
func (s *MessageSorter) CRM() <-chan CommandReturnMessage { return s.crm }

// EVM returns the Event Message delivery channel.
func (s *MessageSorter) EVM() <-chan EventMessage { return s.evm }

// DAQ returns the Data Acquisition Message delivery channel.
func (s *MessageSorter) DAQ() <-chan DataAcquisitionMessage { return s.daq }

// CRO returns the command-echo delivery channel.
func (s *MessageSorter) CRO() <-chan CommandReceiveObject { return s.cro }

// Stats returns the sorter's traffic statistics.
func (s *MessageSorter) Stats() *Statistics { return s.stats }
