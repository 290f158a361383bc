package serialcomm

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/clint456/sirflink/frame"
)

var (
	ErrAlreadyStarted = errors.New("serialcomm: receiver already started")
	ErrClosed         = errors.New("serialcomm: receiver closed")
)

// idlePause is how long the loop backs off after an idle read.
const idlePause = 10 * time.Millisecond

// Dispatcher takes validated messages off the receive loop. *router.Router
// implements it.
type Dispatcher interface {
	Dispatch(msg frame.Message)
}

// Receiver pulls bytes from a transport, extracts frame bodies, validates
// them and hands every valid message to a Dispatcher. Invalid bodies are
// logged with their diagnostics and dropped; the loop keeps going.
type Receiver struct {
	r        io.Reader
	dispatch Dispatcher
	opts     options
	dec      *frame.Decoder
	counters receiverCounters

	mu      sync.Mutex
	started bool
	closed  bool
	err     error

	stopCh    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ SerialReceiver = (*Receiver)(nil)

func NewReceiver(r io.Reader, d Dispatcher, opts ...Option) *Receiver {
	rc := &Receiver{
		r:        r,
		dispatch: d,
		opts:     buildOptions(opts),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	decOpts := []frame.DecoderOption{frame.WithDiscardHook(rc.onDiscard)}
	if rc.opts.readSize > 0 {
		decOpts = append(decOpts, frame.WithReadSize(rc.opts.readSize))
	}
	rc.dec = frame.NewDecoder(r, decOpts...)
	return rc
}

// NewSerialReceiver opens the port described by cfg and wraps it in a
// Receiver. Closing the receiver closes the port.
func NewSerialReceiver(cfg *SerialConfig, d Dispatcher, opts ...Option) (*Receiver, error) {
	port, err := OpenPort(cfg)
	if err != nil {
		return nil, err
	}
	if cfg != nil && cfg.ReadTimeout > 0 {
		opts = append([]Option{WithIdleEOF(true)}, opts...)
	}
	return NewReceiver(port, d, opts...), nil
}

// Start launches the receive loop. It may be called once.
func (rc *Receiver) Start() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.closed {
		return ErrClosed
	}
	if rc.started {
		return ErrAlreadyStarted
	}
	rc.started = true
	go rc.loop()
	return nil
}

// Close stops the loop and closes the transport if it is an io.Closer.
// It does not wait for the loop to exit; use Done for that.
func (rc *Receiver) Close() error {
	var err error
	rc.closeOnce.Do(func() {
		rc.mu.Lock()
		rc.closed = true
		started := rc.started
		rc.mu.Unlock()

		close(rc.stopCh)
		if c, ok := rc.r.(io.Closer); ok {
			err = c.Close()
		}
		if !started {
			close(rc.done)
		}
	})
	return err
}

// Done is closed once the receive loop has exited.
func (rc *Receiver) Done() <-chan struct{} { return rc.done }

// Err reports the transport error that ended the loop. It is nil while the
// loop runs, after a clean end of stream, and after Close.
func (rc *Receiver) Err() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.err
}

func (rc *Receiver) Stats() ReceiverStats { return rc.counters.snapshot() }

func (rc *Receiver) loop() {
	defer close(rc.done)
	log := rc.opts.log
	log.Info().Msg("receive loop started")

	for {
		// Transports that are not io.Closers keep delivering after Close.
		if rc.stopping() {
			log.Info().Msg("receive loop stopped")
			return
		}
		body, err := rc.dec.Next()
		if err != nil {
			if rc.stopping() {
				log.Info().Msg("receive loop stopped")
				return
			}
			if errors.Is(err, io.EOF) {
				if rc.opts.idleEOF {
					time.Sleep(idlePause)
					continue
				}
				log.Info().Int("buffered", rc.dec.Buffered()).Msg("transport reached end of stream")
				return
			}
			log.Error().Err(err).Msg("transport read failed")
			rc.mu.Lock()
			rc.err = err
			rc.mu.Unlock()
			return
		}
		rc.counters.frames.Add(1)
		rc.opts.recorder.RecordFrame()
		rc.handle(body)
	}
}

func (rc *Receiver) stopping() bool {
	select {
	case <-rc.stopCh:
		return true
	default:
		return false
	}
}

func (rc *Receiver) handle(body []byte) {
	msg, err := rc.opts.codec.Validate(body)
	if err != nil {
		rc.counters.rejected.Add(1)
		for _, reason := range failureReasons(err) {
			rc.opts.recorder.RecordValidationFailure(reason)
		}

		ev := rc.opts.log.Warn().Err(err).Int("body_len", len(body))
		var ve *frame.ValidationError
		if errors.As(err, &ve) {
			ev = ev.
				Int("declared_len", ve.DeclaredLength).
				Int("actual_len", ve.ActualLength).
				Str("declared_checksum", frame.FormatChecksum(ve.DeclaredChecksum)).
				Str("computed_checksum", frame.FormatChecksum(ve.ComputedChecksum))
		}
		ev.Msg("frame rejected")
		return
	}

	rc.counters.messages.Add(1)
	rc.opts.recorder.RecordDispatch(msg.ID)
	rc.opts.log.Debug().Stringer("msg", msg).Msg("message received")
	if rc.dispatch != nil {
		rc.dispatch.Dispatch(msg)
	}
}

func (rc *Receiver) onDiscard(n int) {
	rc.counters.discarded.Add(uint64(n))
	rc.opts.recorder.RecordDiscard(n)
	rc.opts.log.Debug().Int("bytes", n).Msg("discarded unframed bytes")
}
