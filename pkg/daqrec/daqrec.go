// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The goccp authors

// Package daqrec persists acquired samples as a stream of CBOR records.
//
// The format is a plain concatenation of CBOR maps with integer keys,
// one per sample, so files can be appended to and replayed without an
// index. Timestamps are stored as nanoseconds since the Unix epoch.
package daqrec

import (
	"errors"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/ecukit/goccp/pkg/ccp"
)

// Record is one persisted sample.
type Record struct {
	UnixNano int64   `cbor:"1,keyasint"`
	Name     string  `cbor:"2,keyasint"`
	Value    float64 `cbor:"3,keyasint"`
}

// Sample converts the record back to a live sample.
func (r Record) Sample() ccp.Sample {
	return ccp.Sample{
		Name:      r.Name,
		Value:     r.Value,
		Timestamp: time.Unix(0, r.UnixNano),
	}
}

// Writer appends sample records to a stream.
type Writer struct {
	enc *cbor.Encoder
}

// NewWriter creates a writer emitting records to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: cbor.NewEncoder(w)}
}

// Write persists one sample.
func (w *Writer) Write(s ccp.Sample) error {
	return w.enc.Encode(Record{
		UnixNano: s.Timestamp.UnixNano(),
		Name:     s.Name,
		Value:    s.Value,
	})
}

// WriteAll persists a batch of samples, stopping at the first error.
func (w *Writer) WriteAll(samples []ccp.Sample) error {
	for _, s := range samples {
		if err := w.Write(s); err != nil {
			return err
		}
	}
	return nil
}

// Reader replays sample records from a stream.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader creates a reader consuming records from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at the end of the stream.
func (r *Reader) Next() (Record, error) {
	var rec Record
	err := r.dec.Decode(&rec)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		// A truncated trailing record reads as a clean end of stream.
		err = io.EOF
	}
	return rec, err
}
