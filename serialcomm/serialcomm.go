// Package serialcomm connects the framing core to a serial port: a receive
// loop that decodes, validates and dispatches inbound frames, a sender that
// frames outbound payloads, and a client for correlated command/reply
// exchanges.
package serialcomm

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/clint456/sirflink/frame"
)

const (
	DefaultPortName    = "/dev/ttyUSB0"
	DefaultBaudRate    = 4800
	DefaultReadTimeout = 500 * time.Millisecond
)

// SerialConfig describes the port to open.
type SerialConfig struct {
	PortName string
	BaudRate int
	// ReadTimeout bounds each read; idle reads then surface as io.EOF and
	// the receive loop keeps going. Zero blocks until data arrives.
	ReadTimeout time.Duration
}

type SerialReceiver interface {
	Start() error
	Close() error
}

type SerialSender interface {
	Send(payload []byte) error
}

// Recorder receives link telemetry. *metrics.Link implements it.
type Recorder interface {
	RecordFrame()
	RecordDiscard(n int)
	RecordValidationFailure(reason string)
	RecordDispatch(id byte)
	RecordTimeout(id byte)
}

type nopRecorder struct{}

func (nopRecorder) RecordFrame()                   {}
func (nopRecorder) RecordDiscard(int)              {}
func (nopRecorder) RecordValidationFailure(string) {}
func (nopRecorder) RecordDispatch(byte)            {}
func (nopRecorder) RecordTimeout(byte)             {}

type options struct {
	codec    *frame.Codec
	log      zerolog.Logger
	recorder Recorder
	idleEOF  bool
	readSize int
}

func defaultOptions() options {
	return options{
		codec:    frame.NewCodec(),
		log:      zerolog.Nop(),
		recorder: nopRecorder{},
	}
}

// Option configures receivers, senders and clients.
type Option func(*options)

// WithCodec sets the codec used to encode and validate frames.
func WithCodec(c *frame.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.log = logger
	}
}

// WithRecorder reports link telemetry to rec.
func WithRecorder(rec Recorder) Option {
	return func(o *options) {
		if rec != nil {
			o.recorder = rec
		}
	}
}

// WithIdleEOF treats io.EOF from the transport as an idle read rather than
// the end of the stream. Serial ports opened with a read timeout need it.
func WithIdleEOF(idle bool) Option {
	return func(o *options) {
		o.idleEOF = idle
	}
}

// WithReadSize sets the transport read chunk size.
func WithReadSize(n int) Option {
	return func(o *options) {
		o.readSize = n
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
