// Package trace implements the instruction tracer, SPEC_FULL.md §4.8:
// a TraceHeader/TraceWriter/TraceReader file format grounded on
// go/models/trace/tracefile.go (with its byte-order fields collapsed to
// one, see TraceHeader), and a Recorder that drives one by
// hooking an execution engine's instruction stream and register writes.
package trace

import (
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// Magic is the trace file's magic string.
const Magic = "UCIR"

// TraceHeader is packed with struc exactly as go/models/trace/tracefile.go
// packs it: a 4-byte magic, version, and right-null-padded 32-byte arch/OS
// name fields. This repo has exactly one architecture and no OS persona
// beyond NoopOS, so the two independent code/data byte-order fields
// go/models/trace/tracefile.go carries collapse to one here (this repo
// is little-endian throughout).
type TraceHeader struct {
	Magic   string `struc:"[4]byte" json:"-"`
	Version uint32 `json:"version"`
	Arch    string `struc:"[32]byte" json:"arch"`
	OS      string `struc:"[32]byte" json:"os"`

	OrderNum  uint8  `json:"-"`
	OrderName string `struc:"skip" json:"order"`
}

// TraceWriter packs a header then snappy-compresses the op stream that
// follows, matching NewWriter/Pack/Close in tracefile.go.
type TraceWriter struct {
	w  io.WriteCloser
	zw io.WriteCloser
}

// NewWriter packs a TraceHeader naming archName/osName and returns a
// writer ready to Pack op records.
func NewWriter(w io.WriteCloser, archName, osName string) (*TraceWriter, error) {
	header := &TraceHeader{
		Magic:     Magic,
		Version:   1,
		Arch:      archName,
		OS:        osName,
		OrderNum:  0,
		OrderName: "little",
	}
	if err := struc.Pack(w, header); err != nil {
		return nil, errors.Wrap(err, "trace: failed to pack header")
	}
	return &TraceWriter{w: w, zw: snappy.NewBufferedWriter(w)}, nil
}

// Pack writes one op record to the compressed stream.
func (t *TraceWriter) Pack(op Op) error {
	return errors.Wrap(op.Pack(t.zw), "trace: pack op")
}

func (t *TraceWriter) Close() error {
	if err := t.zw.Close(); err != nil {
		return errors.Wrap(err, "trace: close compressor")
	}
	return t.w.Close()
}

// TraceReader unpacks a header then decompresses the op stream, matching
// NewReader/Next/Close in tracefile.go.
type TraceReader struct {
	r   io.ReadCloser
	zr  *snappy.Reader
	Hdr TraceHeader
}

func NewReader(r io.ReadCloser) (*TraceReader, error) {
	t := &TraceReader{r: r}
	if err := struc.Unpack(r, &t.Hdr); err != nil {
		return nil, errors.Wrap(err, "trace: failed to unpack header")
	}
	if t.Hdr.Magic != Magic {
		return nil, errors.New("trace: invalid trace file magic")
	}
	t.Hdr.Arch = strings.TrimRight(t.Hdr.Arch, "\x00")
	t.Hdr.OS = strings.TrimRight(t.Hdr.OS, "\x00")
	t.zr = snappy.NewReader(r)
	return t, nil
}

// Next unpacks and returns the next op record.
func (t *TraceReader) Next() (Op, error) {
	return UnpackOp(t.zr)
}

func (t *TraceReader) Close() error {
	t.zr.Reset(nil)
	return t.r.Close()
}
