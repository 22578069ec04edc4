// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package ccp

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNoReply means no Command Return Message arrived within the
	// receive timeout. The counter is unchanged.
	ErrNoReply = errors.New("ccp: no reply from slave")

	// ErrClosed is returned by operations on a stopped Master.
	ErrClosed = errors.New("ccp: master stopped")

	// ErrInsufficientDAQCapacity means the packed ODTs do not fit in
	// the slave's discovered DAQ lists. Nothing has been programmed.
	ErrInsufficientDAQCapacity = errors.New("ccp: not enough space in slave DAQ lists")
)

// CounterMismatchError reports a CRM whose counter does not match the
// outstanding CRO. Master and slave are desynchronized; the counter is
// not advanced and the caller decides whether to retry or abort.
type CounterMismatchError struct {
	Sent     uint8
	Received uint8
}

func (e *CounterMismatchError) Error() string {
	return fmt.Sprintf("ccp: counter mismatch: sent %d, received %d", e.Sent, e.Received)
}

// SlaveFaultError reports a CRM with a return code other than
// ACKNOWLEDGE. The counter is not advanced.
type SlaveFaultError struct {
	Code ReturnCode
}

func (e *SlaveFaultError) Error() string {
	return fmt.Sprintf("ccp: slave returned %s (0x%02X)", e.Code, uint8(e.Code))
}

// Temporary reports whether the fault is in the wait/retry class and the
// command may be reissued.
func (e *SlaveFaultError) Temporary() bool {
	return e.Code.IsWait()
}

// UnknownCommandError reports a command code with no layout table entry.
type UnknownCommandError struct {
	Code CommandCode
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("ccp: unknown command code 0x%02X", uint8(e.Code))
}

// UnknownODTError reports a DAQ message whose PID names an ODT that is
// not registered with the session.
type UnknownODTError struct {
	Number uint8
}

func (e *UnknownODTError) Error() string {
	return fmt.Sprintf("ccp: no registered ODT with number %d", e.Number)
}

// EncodingError reports a parameter problem while building or reading a
// message.
type EncodingError struct {
	Command string
	Field   string
	Reason  string
}

func (e *EncodingError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("ccp: encode %s: field %s: %s", e.Command, e.Field, e.Reason)
	}
	return fmt.Sprintf("ccp: encode %s: %s", e.Command, e.Reason)
}

// IsTemporary reports whether err is a slave fault in the wait/retry
// class (busy, internal timeout, key request).
func IsTemporary(err error) bool {
	var sf *SlaveFaultError
	return errors.As(err, &sf) && sf.Temporary()
}
