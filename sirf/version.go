package sirf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clint456/sirflink/frame"
)

const DefaultPollTimeout = 3 * time.Second

// Requester sends a command and waits for the reply with a given id.
// *serialcomm.Client and *serialcomm.Link implement it.
type Requester interface {
	Request(ctx context.Context, payload []byte, responseID byte, timeout time.Duration) (frame.Message, error)
}

// SoftwareVersion extracts the version text from a Software Version String
// message. NUL padding and surrounding whitespace are dropped.
func SoftwareVersion(msg frame.Message) (string, error) {
	if msg.ID != SoftwareVersionString {
		return "", fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrWrongMessage, msg.ID, SoftwareVersionString)
	}
	if i := bytes.IndexByte(msg.Body, 0); i >= 0 {
		return strings.TrimSpace(string(msg.Body[:i])), nil
	}
	return strings.TrimSpace(string(msg.Body)), nil
}

type pollOptions struct {
	timeout time.Duration
}

type PollOption func(*pollOptions)

// WithTimeout overrides DefaultPollTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) PollOption {
	return func(o *pollOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// PollSoftwareVersion asks the receiver for its software version and waits
// for the 0x06 reply.
func PollSoftwareVersion(ctx context.Context, r Requester, opts ...PollOption) (string, error) {
	o := pollOptions{timeout: DefaultPollTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	msg, err := r.Request(ctx, []byte{PollSoftwareVersionID, 0x00}, SoftwareVersionString, o.timeout)
	if err != nil {
		return "", fmt.Errorf("poll software version: %w", err)
	}
	return SoftwareVersion(msg)
}
