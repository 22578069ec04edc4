// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package ccp

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// SessionState is the lifecycle state of a DAQSession.
type SessionState int

// Session lifecycle states.
const (
	SessionIdle SessionState = iota
	SessionInitializing
	SessionInitialized
	SessionRunning
	SessionStopped
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionInitializing:
		return "initializing"
	case SessionInitialized:
		return "initialized"
	case SessionRunning:
		return "running"
	case SessionStopped:
		return "stopped"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// SessionOption configures a DAQSession.
type SessionOption func(*DAQSession)

// WithEventChannel selects the slave event channel driving the DAQ
// lists.
func WithEventChannel(ch uint8) SessionOption {
	return func(s *DAQSession) { s.eventChannel = ch }
}

// WithRatePrescaler divides the event channel rate.
func WithRatePrescaler(p uint16) SessionOption {
	return func(s *DAQSession) { s.prescaler = p }
}

// WithSessionLogger sets the session's structured logger.
func WithSessionLogger(logger *zap.Logger) SessionOption {
	return func(s *DAQSession) {
		if logger != nil {
			s.log = logger
		}
	}
}

// DAQSession manages periodic data acquisition from one slave: it packs
// the requested elements into ODTs, discovers the slave's DAQ lists,
// programs the ODTs into them and runs transmission.
//
// States move Idle, Initializing, Initialized, Running, Stopped.
// Run on an idle session initializes it first.
type DAQSession struct {
	master         *Master
	stationAddress uint16
	elements       []Element

	eventChannel uint8
	prescaler    uint16
	log          *zap.Logger

	mu        sync.Mutex
	state     SessionState
	connected bool
	table     *ODTTable
	odts      []*ObjectDescriptorTable
	lists     []DAQListInfo
}

// NewDAQSession creates a session that will acquire the given elements
// from the slave at stationAddress. The prescaler defaults to 1.
func NewDAQSession(master *Master, stationAddress uint16, elements []Element, opts ...SessionOption) *DAQSession {
	s := &DAQSession{
		master:         master,
		stationAddress: stationAddress,
		elements:       elements,
		prescaler:      1,
		log:            zap.NewNop(),
		table:          NewODTTable(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *DAQSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ODTs returns the packed descriptor tables, valid after Initialize.
func (s *DAQSession) ODTs() []*ObjectDescriptorTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.odts
}

// Initialize connects to the slave, packs the elements into ODTs,
// discovers the slave's DAQ lists and programs the ODTs into them. When
// the discovered lists cannot hold all ODTs it fails with
// ErrInsufficientDAQCapacity before programming anything.
func (s *DAQSession) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initializeLocked(ctx)
}

func (s *DAQSession) initializeLocked(ctx context.Context) error {
	if s.state != SessionIdle && s.state != SessionStopped {
		return fmt.Errorf("ccp: cannot initialize a %s session", s.state)
	}
	if len(s.elements) == 0 {
		return fmt.Errorf("ccp: session has no elements to acquire")
	}
	s.state = SessionInitializing

	if err := s.setup(ctx); err != nil {
		// The slave may be partially programmed. The session stays in
		// initializing; Stop tears it down before a retry.
		return err
	}

	s.state = SessionInitialized
	s.log.Info("DAQ session initialized",
		zap.Int("elements", len(s.elements)),
		zap.Int("odts", len(s.odts)),
		zap.Int("daq_lists", len(s.lists)),
	)
	return nil
}

func (s *DAQSession) setup(ctx context.Context) error {
	if err := s.master.Connect(ctx, s.stationAddress); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	s.connected = true

	// Pack elements into ODTs, numbered sequentially from zero.
	bins := packElements(s.elements, ODTCapacity)
	s.odts = make([]*ObjectDescriptorTable, 0, len(bins))
	for i, bin := range bins {
		odt, err := NewODT(uint8(i), bin)
		if err != nil {
			return err
		}
		s.odts = append(s.odts, odt)
	}

	// Discover the slave's DAQ lists. GET_DAQ_SIZE also clears each
	// list; a size of zero ends the walk.
	s.lists = s.lists[:0]
	for n := 0; n < int(PIDEvent); n++ {
		info, err := s.master.GetDAQSize(ctx, uint8(n))
		if err != nil {
			return fmt.Errorf("get daq size of list %d: %w", n, err)
		}
		if info.Size == 0 {
			break
		}
		s.lists = append(s.lists, info)
	}

	capacity := 0
	for _, l := range s.lists {
		capacity += int(l.Size)
	}
	if capacity < len(s.odts) {
		s.log.Warn("slave DAQ lists too small",
			zap.Int("odts", len(s.odts)),
			zap.Int("capacity", capacity),
		)
		return ErrInsufficientDAQCapacity
	}

	if err := s.program(ctx); err != nil {
		return err
	}

	for _, odt := range s.odts {
		s.table.Register(odt)
	}
	return nil
}

// program writes every element's address into the slave, bracketed by
// session status updates: calibration-only while the DAQ lists are
// being rewritten, then calibration plus DAQ once they are consistent.
func (s *DAQSession) program(ctx context.Context) error {
	if err := s.master.SetSStatus(ctx, StatusCAL); err != nil {
		return fmt.Errorf("set session status: %w", err)
	}

	next := 0
	for listIdx, list := range s.lists {
		for slot := 0; slot < int(list.Size) && next < len(s.odts); slot++ {
			odt := s.odts[next]
			next++
			for elemIdx, e := range odt.Elements {
				if err := s.master.SetDAQPtr(ctx, uint8(listIdx), odt.Number, uint8(elemIdx)); err != nil {
					return fmt.Errorf("set daq pointer: %w", err)
				}
				if err := s.master.WriteDAQ(ctx, e.Size, e.Extension, e.Address); err != nil {
					return fmt.Errorf("write daq element %s: %w", e.Name, err)
				}
			}
		}
	}

	if err := s.master.SetSStatus(ctx, StatusCAL|StatusDAQ); err != nil {
		return fmt.Errorf("set session status: %w", err)
	}
	return nil
}

// Run starts transmission of every DAQ list holding ODTs. An idle
// session is initialized first.
func (s *DAQSession) Run(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionIdle {
		if err := s.initializeLocked(ctx); err != nil {
			return err
		}
	}
	if s.state != SessionInitialized {
		return fmt.Errorf("ccp: cannot run a %s session", s.state)
	}

	if err := s.startStopLists(ctx, DAQStart); err != nil {
		return err
	}
	s.state = SessionRunning
	s.log.Info("DAQ transmission started", zap.Int("daq_lists", s.activeLists()))
	return nil
}

// Stop halts transmission, disconnects from the slave and discards the
// programmed layout. Stopping an idle session is a no-op. The session
// always ends up Stopped and ready for a fresh Initialize, even when
// the slave no longer answers; the first error seen is returned.
func (s *DAQSession) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionIdle || s.state == SessionStopped {
		return nil
	}

	var err error
	if s.state == SessionRunning {
		if serr := s.startStopLists(ctx, DAQStop); serr != nil {
			s.log.Warn("stopping DAQ lists failed", zap.Error(serr))
			err = serr
		}
	}
	// A session whose CONNECT never went through has nothing to
	// disconnect from.
	if s.connected {
		if derr := s.master.Disconnect(ctx, false, s.stationAddress); derr != nil {
			s.log.Warn("disconnect failed", zap.Error(derr))
			if err == nil {
				err = fmt.Errorf("disconnect: %w", derr)
			}
		}
		s.connected = false
	}

	s.table.Clear()
	s.odts = nil
	s.lists = nil
	s.state = SessionStopped
	s.log.Info("DAQ session stopped")
	return err
}

// startStopLists issues START_STOP for each list that holds at least one
// ODT. The last ODT number sent per list is the list capacity or the
// session's total ODT count, whichever is smaller, minus one.
func (s *DAQSession) startStopLists(ctx context.Context, mode uint8) error {
	remaining := len(s.odts)
	for listIdx, list := range s.lists {
		if remaining <= 0 {
			break
		}
		last := int(list.Size)
		if len(s.odts) < last {
			last = len(s.odts)
		}
		if err := s.master.StartStop(ctx, mode, uint8(listIdx), uint8(last-1), s.eventChannel, s.prescaler); err != nil {
			return fmt.Errorf("start/stop list %d: %w", listIdx, err)
		}
		remaining -= int(list.Size)
	}
	return nil
}

func (s *DAQSession) activeLists() int {
	n := 0
	remaining := len(s.odts)
	for _, list := range s.lists {
		if remaining == 0 {
			break
		}
		n++
		remaining -= int(list.Size)
	}
	return n
}

// Read blocks for the next DAQ message and decodes it against the
// session's ODTs. Messages naming an unregistered ODT are skipped.
func (s *DAQSession) Read(ctx context.Context) ([]Sample, error) {
	for {
		select {
		case msg := <-s.master.DAQMessages():
			samples, err := msg.Decode(s.table)
			if err != nil {
				s.log.Debug("skipping DAQ message", zap.Error(err))
				continue
			}
			return samples, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
