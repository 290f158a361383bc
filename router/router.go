package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clint456/sirflink/frame"
)

var (
	ErrTimeout        = errors.New("router: timed out waiting for message")
	ErrInvalidTimeout = errors.New("router: timeout must be positive")
	ErrCancelled      = errors.New("router: wait cancelled")
)

// TimeoutError reports which message id a waiter gave up on.
type TimeoutError struct {
	ID    byte
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("router: no message id %d within %s", e.ID, e.After)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Handler receives dispatched messages. It runs on the dispatching goroutine
// and should return quickly.
type Handler func(frame.Message)

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used for dispatch tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Router) {
		r.log = logger
	}
}

type listener struct {
	h Handler
}

// Router fans validated messages out by id and resolves one-shot waiters.
// It is safe for concurrent use.
type Router struct {
	log zerolog.Logger

	mu        sync.Mutex
	listeners map[byte][]*listener
	catchAll  []*listener
	waiters   map[byte][]*Waiter
}

func New(opts ...Option) *Router {
	r := &Router{
		log:       zerolog.Nop(),
		listeners: make(map[byte][]*listener),
		waiters:   make(map[byte][]*Waiter),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers h for every message with the given id. The returned
// func removes the registration.
func (r *Router) Subscribe(id byte, h Handler) (unsubscribe func()) {
	l := &listener{h: h}

	r.mu.Lock()
	r.listeners[id] = append(r.listeners[id], l)
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.listeners[id] = removeListener(r.listeners[id], l)
		if len(r.listeners[id]) == 0 {
			delete(r.listeners, id)
		}
	}
}

// SubscribeAll registers h for every dispatched message.
func (r *Router) SubscribeAll(h Handler) (unsubscribe func()) {
	l := &listener{h: h}

	r.mu.Lock()
	r.catchAll = append(r.catchAll, l)
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.catchAll = removeListener(r.catchAll, l)
	}
}

// Dispatch delivers msg to the oldest pending waiter for its id, if any,
// then to every listener for the id and every catch-all listener.
func (r *Router) Dispatch(msg frame.Message) {
	r.mu.Lock()
	w := r.popWaiterLocked(msg.ID)
	handlers := make([]Handler, 0, len(r.listeners[msg.ID])+len(r.catchAll))
	for _, l := range r.listeners[msg.ID] {
		handlers = append(handlers, l.h)
	}
	for _, l := range r.catchAll {
		handlers = append(handlers, l.h)
	}
	r.mu.Unlock()

	if w != nil {
		w.ch <- msg
		r.log.Trace().Uint8("id", msg.ID).Msg("resolved waiter")
	}
	for _, h := range handlers {
		h(msg)
	}
}

// Expect registers a one-shot waiter for the next message with the given id.
// The deadline starts now, so a caller can register before writing the
// command that provokes the reply. At the deadline the waiter is
// deregistered whether or not anyone is waiting on it yet.
func (r *Router) Expect(id byte, timeout time.Duration) (*Waiter, error) {
	if timeout <= 0 {
		return nil, ErrInvalidTimeout
	}

	w := &Waiter{
		r:         r,
		id:        id,
		timeout:   timeout,
		deadline:  time.Now().Add(timeout),
		ch:        make(chan frame.Message, 1),
		expired:   make(chan struct{}),
		cancelled: make(chan struct{}),
	}

	// The timer starts under the lock so its callback cannot settle a
	// waiter that is not registered yet.
	r.mu.Lock()
	r.waiters[id] = append(r.waiters[id], w)
	w.timer = time.AfterFunc(timeout, w.expire)
	r.mu.Unlock()

	return w, nil
}

// AwaitOnce waits for the next message with the given id. It fails with a
// *TimeoutError if none arrives within timeout, or with ErrCancelled if ctx
// ends first.
func (r *Router) AwaitOnce(ctx context.Context, id byte, timeout time.Duration) (frame.Message, error) {
	w, err := r.Expect(id, timeout)
	if err != nil {
		return frame.Message{}, err
	}
	return w.Wait(ctx)
}

// Pending returns the number of unresolved waiters for id.
func (r *Router) Pending(id byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters[id])
}

func (r *Router) popWaiterLocked(id byte) *Waiter {
	queue := r.waiters[id]
	if len(queue) == 0 {
		return nil
	}
	w := queue[0]
	if len(queue) == 1 {
		delete(r.waiters, id)
	} else {
		r.waiters[id] = queue[1:]
	}
	w.state = stateDelivered
	return w
}

// settle deregisters w if it is still pending and returns the state it was
// in beforehand. Only the caller that observes statePending owns the outcome.
func (r *Router) settle(w *Waiter) waiterState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w.state != statePending {
		return w.state
	}
	queue := r.waiters[w.id]
	for i, cur := range queue {
		if cur == w {
			queue = append(queue[:i:i], queue[i+1:]...)
			break
		}
	}
	if len(queue) == 0 {
		delete(r.waiters, w.id)
	} else {
		r.waiters[w.id] = queue
	}
	w.state = stateDropped
	return statePending
}

func removeListener(ls []*listener, target *listener) []*listener {
	out := ls[:0:0]
	for _, l := range ls {
		if l != target {
			out = append(out, l)
		}
	}
	return out
}
