package serialcomm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clint456/sirflink/frame"
	"github.com/clint456/sirflink/router"
)

// Client issues commands and waits for the reply carrying a given message
// id. Replies are matched by id only; concurrent requests for the same id
// are served oldest first.
type Client struct {
	router *router.Router
	sender SerialSender
	opts   options
}

func NewClient(rt *router.Router, s SerialSender, opts ...Option) *Client {
	return &Client{router: rt, sender: s, opts: buildOptions(opts)}
}

// Send writes payload without waiting for anything.
func (c *Client) Send(payload []byte) error {
	return c.sender.Send(payload)
}

// Request sends payload and returns the next message with responseID. The
// waiter is registered before the write so a fast reply cannot slip past.
func (c *Client) Request(ctx context.Context, payload []byte, responseID byte, timeout time.Duration) (frame.Message, error) {
	w, err := c.router.Expect(responseID, timeout)
	if err != nil {
		return frame.Message{}, err
	}
	if err := c.sender.Send(payload); err != nil {
		w.Cancel()
		return frame.Message{}, fmt.Errorf("send request: %w", err)
	}

	msg, err := w.Wait(ctx)
	if err != nil {
		if errors.Is(err, router.ErrTimeout) {
			c.opts.recorder.RecordTimeout(responseID)
		}
		c.opts.log.Warn().Err(err).Uint8("expect_id", responseID).Msg("request got no reply")
		return frame.Message{}, err
	}
	return msg, nil
}
