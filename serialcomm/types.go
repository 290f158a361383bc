package serialcomm

import "sync/atomic"

// ReceiverStats is a point-in-time view of a receive loop's counters.
type ReceiverStats struct {
	Frames    uint64 // bodies extracted from the stream
	Messages  uint64 // bodies that validated and were dispatched
	Rejected  uint64 // bodies that failed validation
	Discarded uint64 // bytes dropped while resynchronizing
}

type receiverCounters struct {
	frames    atomic.Uint64
	messages  atomic.Uint64
	rejected  atomic.Uint64
	discarded atomic.Uint64
}

func (c *receiverCounters) snapshot() ReceiverStats {
	return ReceiverStats{
		Frames:    c.frames.Load(),
		Messages:  c.messages.Load(),
		Rejected:  c.rejected.Load(),
		Discarded: c.discarded.Load(),
	}
}
