// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

package ccp

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Params holds named command parameters. Values are right-aligned in
// their wire fields and must fit the field's byte length. Variable-
// length data (DNLOAD, PROGRAM) occupies exactly size bytes starting at
// its field offset, so a 2-byte transfer of 0xAABB goes out as AA BB at
// bytes 3-4 with bytes 5-7 zero.
type Params map[string]uint64

// CommandReceiveObject is a decoded master-to-slave command frame.
type CommandReceiveObject struct {
	Code      CommandCode
	Counter   uint8
	Params    Params
	Timestamp time.Time
}

// String renders the CRO for logs, e.g. "SET_DAQ_PTR ctr=39 daq_list_number=0x3 ...".
func (cro CommandReceiveObject) String() string {
	parts := []string{fmt.Sprintf("%s ctr=%d", cro.Code, cro.Counter)}
	names := make([]string, 0, len(cro.Params))
	for name := range cro.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%#x", name, cro.Params[name]))
	}
	return strings.Join(parts, " ")
}

// EncodeCRO builds the 8-byte CRO payload for a command. Byte 0 is the
// command code, byte 1 the counter; parameters are written at their
// table offsets and unused bytes stay zero.
func EncodeCRO(code CommandCode, counter uint8, params Params) ([MaxCTO]byte, error) {
	var buf [MaxCTO]byte

	spec, ok := commandTable[code]
	if !ok {
		return buf, &UnknownCommandError{Code: code}
	}

	buf[0] = uint8(code)
	buf[1] = counter

	seen := 0
	for _, f := range spec.fields {
		v, ok := params[f.name]
		if !ok {
			return buf, &EncodingError{Command: spec.name, Field: f.name, Reason: "missing parameter"}
		}
		seen++
		n, err := fieldWidth(spec, f, params)
		if err != nil {
			return buf, err
		}
		if n < 8 && v >= 1<<(8*n) {
			return buf, &EncodingError{
				Command: spec.name,
				Field:   f.name,
				Reason:  fmt.Sprintf("value %#x does not fit in %d byte(s)", v, n),
			}
		}
		putUint(buf[f.offset:f.offset+n], v, f.little)
	}
	if seen != len(params) {
		for name := range params {
			if !spec.hasField(name) {
				return buf, &EncodingError{Command: spec.name, Field: name, Reason: "unknown parameter"}
			}
		}
	}

	return buf, nil
}

// DecodeCRO parses an 8-byte CRO payload back into its command code,
// counter and named parameters.
func DecodeCRO(data []byte) (CommandReceiveObject, error) {
	var cro CommandReceiveObject

	if len(data) != MaxCTO {
		return cro, &EncodingError{Command: "CRO", Reason: fmt.Sprintf("need %d bytes, got %d", MaxCTO, len(data))}
	}

	code := CommandCode(data[0])
	spec, ok := commandTable[code]
	if !ok {
		return cro, &UnknownCommandError{Code: code}
	}

	cro.Code = code
	cro.Counter = data[1]
	cro.Params = make(Params, len(spec.fields))
	for _, f := range spec.fields {
		// Length fields precede the fields they size, so cro.Params
		// already holds the count here.
		n, err := fieldWidth(spec, f, cro.Params)
		if err != nil {
			return cro, err
		}
		cro.Params[f.name] = getUint(data[f.offset:f.offset+n], f.little)
	}
	return cro, nil
}

// fieldWidth resolves the wire width of a field in bytes. Fixed fields
// use their table size; variable-length fields take it from the
// parameter named by sizedBy, which must be between 1 and the table
// size.
func fieldWidth(spec commandSpec, f field, params Params) (int, error) {
	if f.sizedBy == "" {
		return f.size, nil
	}
	n := params[f.sizedBy]
	if n < 1 || n > uint64(f.size) {
		return 0, &EncodingError{
			Command: spec.name,
			Field:   f.name,
			Reason:  fmt.Sprintf("%s %d outside 1..%d", f.sizedBy, n, f.size),
		}
	}
	return int(n), nil
}

func (s commandSpec) hasField(name string) bool {
	for _, f := range s.fields {
		if f.name == name {
			return true
		}
	}
	return false
}

// putUint writes v right-aligned into dst, big-endian by default.
func putUint(dst []byte, v uint64, little bool) {
	n := len(dst)
	for i := 0; i < n; i++ {
		shift := uint(8 * (n - 1 - i))
		if little {
			shift = uint(8 * i)
		}
		dst[i] = byte(v >> shift)
	}
}

func getUint(src []byte, little bool) uint64 {
	var v uint64
	n := len(src)
	for i := 0; i < n; i++ {
		shift := uint(8 * (n - 1 - i))
		if little {
			shift = uint(8 * i)
		}
		v |= uint64(src[i]) << shift
	}
	return v
}
