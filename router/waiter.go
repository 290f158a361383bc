package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/clint456/sirflink/frame"
)

type waiterState int

const (
	statePending waiterState = iota
	stateDelivered
	stateDropped
)

// Waiter is a pending one-shot request for the next message with a given
// id. It resolves exactly once: with the first matching dispatch, or with a
// timeout or cancellation, after which it is deregistered and can no longer
// receive a message.
type Waiter struct {
	r         *Router
	id        byte
	timeout   time.Duration
	deadline  time.Time
	ch        chan frame.Message
	timer     *time.Timer
	expired   chan struct{}
	cancelled chan struct{}

	// state is guarded by r.mu.
	state waiterState

	once sync.Once
	msg  frame.Message
	err  error
}

func (w *Waiter) ID() byte { return w.id }

func (w *Waiter) Deadline() time.Time { return w.deadline }

// Wait blocks until the waiter resolves. Repeated calls return the same
// outcome.
func (w *Waiter) Wait(ctx context.Context) (frame.Message, error) {
	w.once.Do(func() {
		w.msg, w.err = w.wait(ctx)
	})
	return w.msg, w.err
}

func (w *Waiter) wait(ctx context.Context) (frame.Message, error) {
	defer w.timer.Stop()

	select {
	case msg := <-w.ch:
		return msg, nil
	case <-w.expired:
		return frame.Message{}, w.timeoutError()
	case <-w.cancelled:
		return frame.Message{}, ErrCancelled
	case <-ctx.Done():
	}

	err := fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	switch w.r.settle(w) {
	case statePending:
		w.r.log.Debug().Uint8("id", w.id).Err(err).Msg("waiter dropped")
		return frame.Message{}, err
	case stateDelivered:
		// A dispatch claimed the waiter first; its message is on the way.
		return <-w.ch, nil
	}
	select {
	case <-w.expired:
		return frame.Message{}, w.timeoutError()
	default:
		return frame.Message{}, ErrCancelled
	}
}

// expire runs on the timer goroutine at the deadline.
func (w *Waiter) expire() {
	if w.r.settle(w) != statePending {
		return
	}
	w.r.log.Debug().Uint8("id", w.id).Dur("after", w.timeout).Msg("waiter expired")
	close(w.expired)
}

func (w *Waiter) timeoutError() error {
	return &TimeoutError{ID: w.id, After: w.timeout}
}

// Cancel deregisters the waiter if it has not resolved yet. Wait then
// returns ErrCancelled.
func (w *Waiter) Cancel() {
	if w.r.settle(w) != statePending {
		return
	}
	w.timer.Stop()
	close(w.cancelled)
}
