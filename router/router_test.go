package router

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clint456/sirflink/frame"
	"github.com/clint456/sirflink/internal/testutil/testlog"
)

func msg(id byte, body ...byte) frame.Message {
	return frame.Message{ID: id, Body: body}
}

func TestDispatchNotifiesListenersByID(t *testing.T) {
	testlog.Start(t)

	r := New()
	var got2, got6, all []byte
	r.Subscribe(2, func(m frame.Message) { got2 = append(got2, m.Body...) })
	r.Subscribe(6, func(m frame.Message) { got6 = append(got6, m.Body...) })
	r.SubscribeAll(func(m frame.Message) { all = append(all, m.ID) })

	r.Dispatch(msg(2, 0xaa))
	r.Dispatch(msg(6, 0xbb))
	r.Dispatch(msg(9, 0xcc))
	r.Dispatch(msg(2, 0xdd))

	assert.Equal(t, []byte{0xaa, 0xdd}, got2)
	assert.Equal(t, []byte{0xbb}, got6)
	assert.Equal(t, []byte{2, 6, 9, 2}, all)
}

func TestUnsubscribe(t *testing.T) {
	r := New()
	calls := 0
	unsubscribe := r.Subscribe(4, func(frame.Message) { calls++ })
	unsubscribeAll := r.SubscribeAll(func(frame.Message) { calls++ })

	r.Dispatch(msg(4))
	unsubscribe()
	unsubscribeAll()
	r.Dispatch(msg(4))

	assert.Equal(t, 2, calls)
}

func TestAwaitOnceResolvesWithMatchingMessage(t *testing.T) {
	testlog.Start(t)

	r := New()
	go func() {
		for r.Pending(6) == 0 {
			time.Sleep(time.Millisecond)
		}
		r.Dispatch(msg(2, 0x01))
		r.Dispatch(msg(6, 'v', '1'))
	}()

	got, err := r.AwaitOnce(context.Background(), 6, time.Second)
	require.NoError(t, err)
	assert.Equal(t, msg(6, 'v', '1'), got)
	assert.Zero(t, r.Pending(6))
}

func TestAwaitOnceTimesOutAndIgnoresLateMessage(t *testing.T) {
	testlog.Start(t)

	const timeout = 60 * time.Millisecond
	r := New()

	start := time.Now()
	_, err := r.AwaitOnce(context.Background(), 6, timeout)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrTimeout)
	var terr *TimeoutError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, byte(6), terr.ID)
	assert.Equal(t, timeout, terr.After)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+time.Second)
	assert.Zero(t, r.Pending(6), "timed out waiter must be deregistered")

	delivered := 0
	r.SubscribeAll(func(frame.Message) { delivered++ })
	r.Dispatch(msg(6))
	assert.Equal(t, 1, delivered)
	assert.Zero(t, r.Pending(6))
}

func TestExpiredWaiterIgnoresDispatchBeforeWait(t *testing.T) {
	testlog.Start(t)
	r := New()
	w, err := r.Expect(6, 20*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, r.Pending(6), "expired waiter must be deregistered without Wait")

	r.Dispatch(msg(6, 0x99))
	_, err = w.Wait(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestUnwaitedWaiterExpires(t *testing.T) {
	r := New()
	_, err := r.Expect(6, 10*time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return r.Pending(6) == 0 }, time.Second, 5*time.Millisecond)
}

func TestAwaitOnceRejectsNonPositiveTimeout(t *testing.T) {
	r := New()
	_, err := r.AwaitOnce(context.Background(), 1, 0)
	assert.ErrorIs(t, err, ErrInvalidTimeout)
	_, err = r.Expect(1, -time.Second)
	assert.ErrorIs(t, err, ErrInvalidTimeout)
	assert.Zero(t, r.Pending(1))
}

func TestAwaitOnceContextCancel(t *testing.T) {
	r := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.AwaitOnce(ctx, 6, time.Minute)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Zero(t, r.Pending(6))
}

func TestDispatchServesOldestWaiterOnly(t *testing.T) {
	r := New()
	first, err := r.Expect(6, time.Second)
	require.NoError(t, err)
	second, err := r.Expect(6, 50*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 2, r.Pending(6))

	r.Dispatch(msg(6, 0x01))
	assert.Equal(t, 1, r.Pending(6))

	got, err := first.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, msg(6, 0x01), got)

	_, err = second.Wait(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Zero(t, r.Pending(6))
}

func TestExpectBeforeDispatchKeepsMessage(t *testing.T) {
	r := New()
	w, err := r.Expect(6, time.Second)
	require.NoError(t, err)

	// The reply lands before anyone is blocked in Wait.
	r.Dispatch(msg(6, 0x42))

	got, err := w.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), got.Body[0])

	again, err := w.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestDeliveredMessageWinsOverExpiredTimer(t *testing.T) {
	r := New()
	w, err := r.Expect(6, 10*time.Millisecond)
	require.NoError(t, err)

	r.Dispatch(msg(6, 0x07))
	time.Sleep(30 * time.Millisecond)

	// The timer fires after the dispatch claimed the waiter; the claimed
	// message must still be returned rather than a timeout.
	got, err := w.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, msg(6, 0x07), got)
}

func TestCancelDeregistersWaiter(t *testing.T) {
	r := New()
	w, err := r.Expect(6, time.Minute)
	require.NoError(t, err)

	w.Cancel()
	assert.Zero(t, r.Pending(6))

	delivered := false
	r.Subscribe(6, func(frame.Message) { delivered = true })
	r.Dispatch(msg(6))
	assert.True(t, delivered)

	_, err = w.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestCancelUnblocksWait(t *testing.T) {
	r := New()
	w, err := r.Expect(6, time.Minute)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := w.Wait(context.Background())
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	w.Cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Cancel")
	}
}

func TestConcurrentWaitersResolveExactlyOnce(t *testing.T) {
	r := New()
	const n = 50

	waiters := make([]*Waiter, n)
	for i := range waiters {
		w, err := r.Expect(6, 200*time.Millisecond)
		require.NoError(t, err)
		waiters[i] = w
	}

	var wg sync.WaitGroup
	results := make([]error, n)
	for i, w := range waiters {
		wg.Add(1)
		go func(i int, w *Waiter) {
			defer wg.Done()
			_, results[i] = w.Wait(context.Background())
		}(i, w)
	}

	for i := 0; i < n/2; i++ {
		r.Dispatch(msg(6, byte(i)))
	}
	wg.Wait()

	var ok, timedOut int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrTimeout):
			timedOut++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, n/2, ok)
	assert.Equal(t, n/2, timedOut)
	assert.Zero(t, r.Pending(6))
}
