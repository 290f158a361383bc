package frame

import (
	"bytes"
	"io"
)

const defaultReadSize = 1024

// DecoderStats counts what a Decoder has done with its stream so far.
type DecoderStats struct {
	Frames    uint64
	Discarded uint64
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithReadSize sets the chunk size used for each read from the transport.
func WithReadSize(n int) DecoderOption {
	return func(d *Decoder) {
		if n > 0 {
			d.chunk = make([]byte, n)
		}
	}
}

// WithDiscardHook registers fn to be called with the byte count of every
// prefix the decoder drops while resynchronizing.
func WithDiscardHook(fn func(n int)) DecoderOption {
	return func(d *Decoder) {
		d.onDiscard = fn
	}
}

// Decoder extracts frame bodies from an unbounded byte stream. It owns its
// accumulation buffer and is not safe for concurrent use; one Decoder serves
// one stream for that stream's whole lifetime.
type Decoder struct {
	r         io.Reader
	buf       []byte
	chunk     []byte
	stats     DecoderStats
	onDiscard func(n int)
}

func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		r:     r,
		chunk: make([]byte, defaultReadSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Next returns the next frame body: the bytes strictly between a START
// marker and the following END marker. Bodies already buffered are returned
// without touching the reader; otherwise Next blocks on the reader until one
// can be located.
//
// Misaligned data is dropped silently. A read error is returned as is and
// leaves the buffer intact, so Next may be called again after a transient
// failure such as an idle serial read.
func (d *Decoder) Next() ([]byte, error) {
	for {
		if body, ok := d.scan(); ok {
			return body, nil
		}

		n, err := d.r.Read(d.chunk)
		if n > 0 {
			d.buf = append(d.buf, d.chunk[:n]...)
		}
		if err != nil {
			return nil, err
		}
	}
}

// Buffered returns the number of bytes held waiting for a complete frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

func (d *Decoder) Stats() DecoderStats {
	return d.stats
}

func (d *Decoder) scan() ([]byte, bool) {
	for {
		s := bytes.Index(d.buf, Start)
		if s < 0 {
			// Only a trailing partial START can still begin a frame.
			d.discard(len(d.buf) - (MarkerLen - 1))
			return nil, false
		}
		e := bytes.Index(d.buf, End)
		if e < 0 {
			d.discard(s)
			return nil, false
		}

		if s > e {
			// Stale END ahead of a new START.
			d.discard(s)
			continue
		}

		body := append([]byte(nil), d.buf[s+MarkerLen:e]...)
		d.discard(s)
		d.consume(e - s + MarkerLen)
		d.stats.Frames++
		return body, true
	}
}

// discard drops n leading bytes as garbage.
func (d *Decoder) discard(n int) {
	if n <= 0 {
		return
	}
	d.consume(n)
	d.stats.Discarded += uint64(n)
	if d.onDiscard != nil {
		d.onDiscard(n)
	}
}

func (d *Decoder) consume(n int) {
	rest := copy(d.buf, d.buf[n:])
	d.buf = d.buf[:rest]
}
