// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package ccp

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ecukit/goccp/pkg/canbus"
)

// Master drives the command/response side of a CCP session with one
// slave. It owns the command counter, transmits CROs on the CRO
// arbitration ID and correlates CRMs arriving on the DTO ID.
//
// The counter advances only after a reply is verified: an ACKNOWLEDGE
// whose counter matches the outstanding CRO. Timeouts, mismatched
// counters and fault replies leave the counter untouched, so master and
// slave stay aligned on what the next command number is.
//
// Transactions are serialized; at most one CRO is outstanding.
type Master struct {
	bus      canbus.Bus
	croID    uint32
	dtoID    uint32
	extended bool

	sorter  *MessageSorter
	timeout time.Duration
	log     *zap.Logger

	mu  sync.Mutex // serializes transactions, guards ctr
	ctr uint8

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// SlaveID is the slave's identification from EXCHANGE_ID.
type SlaveID struct {
	IDLength         uint8
	DataType         uint8
	AvailabilityMask uint8
	ProtectionMask   uint8
}

// DAQListInfo is one DAQ list as reported by GET_DAQ_SIZE.
type DAQListInfo struct {
	Size     uint8 // number of ODTs in the list, 0 if the list does not exist
	FirstPID uint8 // PID of the list's first ODT
}

// NewMaster creates a master speaking over bus with the given CRO and
// DTO arbitration IDs and starts its receive loop. Call Stop to shut it
// down; Stop also closes the bus.
func NewMaster(bus canbus.Bus, croID, dtoID uint32, opts ...Option) *Master {
	m := &Master{
		bus:     bus,
		croID:   croID,
		dtoID:   dtoID,
		timeout: DefaultTimeout,
		log:     zap.NewNop(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.sorter = NewMessageSorter(croID, dtoID, m.log)

	if err := bus.SetFilters([]canbus.Filter{
		canbus.ExactFilter(dtoID, m.extended),
		canbus.ExactFilter(croID, m.extended),
	}); err != nil {
		m.log.Warn("could not install bus filters, receiving everything", zap.Error(err))
	}

	m.wg.Add(1)
	go m.readLoop()
	return m
}

func (m *Master) readLoop() {
	defer m.wg.Done()
	frames := m.bus.Frames()
	for {
		select {
		case <-m.done:
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			m.sorter.Put(f)
		}
	}
}

// Send encodes and transmits one CRO carrying the current counter. The
// counter is not advanced; that happens in Receive once the slave has
// acknowledged.
func (m *Master) Send(code CommandCode, params Params) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
	}

	m.mu.Lock()
	ctr := m.ctr
	m.mu.Unlock()

	buf, err := EncodeCRO(code, ctr, params)
	if err != nil {
		return err
	}
	m.log.Debug("sending CRO",
		zap.Stringer("cro", CommandReceiveObject{Code: code, Counter: ctr, Params: params}),
	)
	return m.bus.Send(canbus.NewFrame(m.croID, m.extended, buf[:]))
}

// Receive waits for the CRM answering the outstanding CRO. A matching
// ACKNOWLEDGE advances the counter and returns the message. A reply
// with the wrong counter returns CounterMismatchError, a non-ACK reply
// SlaveFaultError; neither advances the counter. When no reply arrives
// within the timeout, Receive returns ErrNoReply.
func (m *Master) Receive(ctx context.Context) (CommandReturnMessage, error) {
	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case crm := <-m.sorter.CRM():
		return m.verify(crm)
	case <-timer.C:
		return CommandReturnMessage{}, ErrNoReply
	case <-ctx.Done():
		return CommandReturnMessage{}, ctx.Err()
	case <-m.done:
		return CommandReturnMessage{}, ErrClosed
	}
}

func (m *Master) verify(crm CommandReturnMessage) (CommandReturnMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if crm.Counter != m.ctr {
		m.log.Warn("counter mismatch",
			zap.Uint8("sent", m.ctr),
			zap.Uint8("received", crm.Counter),
		)
		return crm, &CounterMismatchError{Sent: m.ctr, Received: crm.Counter}
	}
	if crm.ReturnCode != Acknowledge {
		return crm, &SlaveFaultError{Code: crm.ReturnCode}
	}
	m.ctr++
	return crm, nil
}

// Transact sends one command and waits for its verified reply.
func (m *Master) Transact(ctx context.Context, code CommandCode, params Params) (CommandReturnMessage, error) {
	if err := m.Send(code, params); err != nil {
		return CommandReturnMessage{}, err
	}
	return m.Receive(ctx)
}

// Connect establishes the logical point-to-point connection with the
// slave at the given station address.
func (m *Master) Connect(ctx context.Context, stationAddress uint16) error {
	_, err := m.Transact(ctx, CmdConnect, Params{"station_address": uint64(stationAddress)})
	return err
}

// Disconnect ends the session. A temporary disconnect keeps the slave's
// session state; a permanent one resets it.
func (m *Master) Disconnect(ctx context.Context, permanent bool, stationAddress uint16) error {
	mode := uint64(0)
	if permanent {
		mode = 1
	}
	_, err := m.Transact(ctx, CmdDisconnect, Params{
		"permanent":       mode,
		"station_address": uint64(stationAddress),
	})
	return err
}

// GetCCPVersion negotiates the protocol version and returns the one the
// slave implements.
func (m *Master) GetCCPVersion(ctx context.Context) (major, minor uint8, err error) {
	crm, err := m.Transact(ctx, CmdGetCCPVersion, Params{
		"major": VersionMajor,
		"minor": VersionMinor,
	})
	if err != nil {
		return 0, 0, err
	}
	return crm.Data[0], crm.Data[1], nil
}

// ExchangeID performs the station identifier exchange and returns the
// slave's ID descriptor.
func (m *Master) ExchangeID(ctx context.Context) (SlaveID, error) {
	crm, err := m.Transact(ctx, CmdExchangeID, Params{"device_info": 0})
	if err != nil {
		return SlaveID{}, err
	}
	return SlaveID{
		IDLength:         crm.Data[0],
		DataType:         crm.Data[1],
		AvailabilityMask: crm.Data[2],
		ProtectionMask:   crm.Data[3],
	}, nil
}

// SetMTA sets a memory transfer address in the slave.
func (m *Master) SetMTA(ctx context.Context, mta, extension uint8, address uint32) error {
	_, err := m.Transact(ctx, CmdSetMTA, Params{
		"mta":       uint64(mta),
		"extension": uint64(extension),
		"address":   uint64(address),
	})
	return err
}

// Dnload writes up to 5 data bytes at MTA0 and returns the
// post-increment MTA0 the slave reports back.
func (m *Master) Dnload(ctx context.Context, size uint8, data uint64) (extension uint8, address uint32, err error) {
	crm, err := m.Transact(ctx, CmdDnload, Params{
		"size": uint64(size),
		"data": data,
	})
	if err != nil {
		return 0, 0, err
	}
	return crm.Data[0], binary.BigEndian.Uint32(crm.Data[1:5]), nil
}

// Upload reads size bytes (at most 5) from MTA0, which auto-increments
// in the slave.
func (m *Master) Upload(ctx context.Context, size uint8) ([]byte, error) {
	if size > CRMResultSize {
		return nil, &EncodingError{Command: "UPLOAD", Field: "size", Reason: "at most 5 bytes per upload"}
	}
	crm, err := m.Transact(ctx, CmdUpload, Params{"size": uint64(size)})
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, crm.Data[:size])
	return out, nil
}

// GetDAQSize queries one DAQ list, telling the slave to emit its DAQ
// messages on the master's DTO ID. It also clears the list in the
// slave. A size of 0 means the list does not exist.
func (m *Master) GetDAQSize(ctx context.Context, listNumber uint8) (DAQListInfo, error) {
	crm, err := m.Transact(ctx, CmdGetDAQSize, Params{
		"daq_list_number": uint64(listNumber),
		"dto_id":          uint64(m.dtoID),
	})
	if err != nil {
		return DAQListInfo{}, err
	}
	return DAQListInfo{Size: crm.Data[0], FirstPID: crm.Data[1]}, nil
}

// SetDAQPtr points the slave's DAQ element pointer at one element slot.
func (m *Master) SetDAQPtr(ctx context.Context, listNumber, odtNumber, elementNumber uint8) error {
	_, err := m.Transact(ctx, CmdSetDAQPtr, Params{
		"daq_list_number": uint64(listNumber),
		"odt_number":      uint64(odtNumber),
		"element_number":  uint64(elementNumber),
	})
	return err
}

// WriteDAQ programs the element slot selected by SetDAQPtr with a
// measurement address.
func (m *Master) WriteDAQ(ctx context.Context, size, extension uint8, address uint32) error {
	_, err := m.Transact(ctx, CmdWriteDAQ, Params{
		"size":      uint64(size),
		"extension": uint64(extension),
		"address":   uint64(address),
	})
	return err
}

// StartStop starts, stops or prepares transmission of one DAQ list.
// lastODT is the highest ODT number the slave should send from the
// list; eventChannel and prescaler select the sampling rate.
func (m *Master) StartStop(ctx context.Context, mode, listNumber, lastODT, eventChannel uint8, prescaler uint16) error {
	_, err := m.Transact(ctx, CmdStartStop, Params{
		"mode":            uint64(mode),
		"daq_list_number": uint64(listNumber),
		"last_odt_number": uint64(lastODT),
		"event_channel":   uint64(eventChannel),
		"rate_prescaler":  uint64(prescaler),
	})
	return err
}

// SetSStatus sets the slave's session status bits.
func (m *Master) SetSStatus(ctx context.Context, status uint8) error {
	_, err := m.Transact(ctx, CmdSetSStatus, Params{"status_bits": uint64(status)})
	return err
}

// Event waits for the next slave-initiated Event Message.
func (m *Master) Event(ctx context.Context) (EventMessage, error) {
	select {
	case evm := <-m.sorter.EVM():
		return evm, nil
	case <-ctx.Done():
		return EventMessage{}, ctx.Err()
	case <-m.done:
		return EventMessage{}, ErrClosed
	}
}

// DAQMessages returns the channel of incoming DAQ messages.
func (m *Master) DAQMessages() <-chan DataAcquisitionMessage {
	return m.sorter.DAQ()
}

// CommandEchoes returns the channel of CROs received on the CRO ID.
// Transports with local echo enabled deliver the master's own commands
// back; draining the channel is optional, overflowing echoes are
// dropped silently.
func (m *Master) CommandEchoes() <-chan CommandReceiveObject {
	return m.sorter.CRO()
}

// Stats returns the session's frame statistics.
func (m *Master) Stats() *Statistics {
	return m.sorter.Stats()
}

// Counter returns the current command counter.
func (m *Master) Counter() uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctr
}

// Stop shuts the master down and closes the bus. Safe to call more than
// once.
func (m *Master) Stop() error {
	var err error
	m.stopOnce.Do(func() {
		close(m.done)
		err = m.bus.Close()
		m.wg.Wait()
	})
	return err
}
