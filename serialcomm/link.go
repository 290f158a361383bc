package serialcomm

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/clint456/sirflink/frame"
	"github.com/clint456/sirflink/router"
)

// Link bundles everything one serial connection needs: a router, a receive
// loop feeding it, a sender and a request client sharing the transport.
type Link struct {
	Router   *router.Router
	Receiver *Receiver
	Sender   *Sender
	Client   *Client

	rw io.ReadWriter
}

// NewLink wires a link over rw. Call Start to begin receiving.
func NewLink(rw io.ReadWriter, opts ...Option) *Link {
	o := buildOptions(opts)
	rt := router.New(router.WithLogger(o.log))
	// The receiver must not close the shared transport on its own; Link.Close
	// does that once.
	rx := NewReceiver(readerOnly{rw}, rt, opts...)
	tx := NewSender(writerOnly{rw}, opts...)
	return &Link{
		Router:   rt,
		Receiver: rx,
		Sender:   tx,
		Client:   NewClient(rt, tx, opts...),
		rw:       rw,
	}
}

// Open opens the configured port and wires a link over it.
func Open(cfg *SerialConfig, opts ...Option) (*Link, error) {
	port, err := OpenPort(cfg)
	if err != nil {
		return nil, err
	}
	if cfg != nil && cfg.ReadTimeout > 0 {
		opts = append([]Option{WithIdleEOF(true)}, opts...)
	}
	return NewLink(port, opts...), nil
}

func (l *Link) Start() error { return l.Receiver.Start() }

// Close stops the receive loop and closes the transport.
func (l *Link) Close() error {
	err := l.Receiver.Close()
	if c, ok := l.rw.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	return err
}

func (l *Link) Done() <-chan struct{} { return l.Receiver.Done() }

func (l *Link) Err() error { return l.Receiver.Err() }

func (l *Link) Send(payload []byte) error { return l.Sender.Send(payload) }

func (l *Link) Request(ctx context.Context, payload []byte, responseID byte, timeout time.Duration) (frame.Message, error) {
	return l.Client.Request(ctx, payload, responseID, timeout)
}

type readerOnly struct{ io.Reader }

type writerOnly struct{ io.Writer }
