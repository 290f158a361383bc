package serialcomm

import (
	"fmt"
	"io"
	"sync"
)

// Sender frames payloads and writes them to a transport. Concurrent Sends
// never interleave their bytes.
type Sender struct {
	mu   sync.Mutex
	w    io.Writer
	opts options
}

var _ SerialSender = (*Sender)(nil)

func NewSender(w io.Writer, opts ...Option) *Sender {
	return &Sender{w: w, opts: buildOptions(opts)}
}

// NewSerialSender opens the port described by cfg for writing.
func NewSerialSender(cfg *SerialConfig, opts ...Option) (*Sender, error) {
	port, err := OpenPort(cfg)
	if err != nil {
		return nil, err
	}
	return NewSender(port, opts...), nil
}

func (s *Sender) Send(payload []byte) error {
	buf, err := s.opts.codec.Encode(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	s.opts.log.Debug().Int("payload_len", len(payload)).Hex("frame", buf).Msg("frame sent")
	return nil
}

// Close closes the transport if it is an io.Closer.
func (s *Sender) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
