package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Link counts what happens to bytes and messages on one serial link.
type Link struct {
	FramesDecoded     prometheus.Counter
	BytesDiscarded    prometheus.Counter
	ValidationFailure *prometheus.CounterVec
	Dispatched        *prometheus.CounterVec
	RequestTimeouts   *prometheus.CounterVec
}

func NewLink() *Link {
	return &Link{
		FramesDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sirflink",
			Subsystem: "decoder",
			Name:      "frames_total",
			Help:      "Frame bodies extracted from the byte stream.",
		}),
		BytesDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sirflink",
			Subsystem: "decoder",
			Name:      "discarded_bytes_total",
			Help:      "Bytes dropped while resynchronizing on frame markers.",
		}),
		ValidationFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sirflink",
			Subsystem: "validator",
			Name:      "failures_total",
			Help:      "Frame bodies rejected by length or checksum verification.",
		}, []string{"reason"}),
		Dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sirflink",
			Subsystem: "router",
			Name:      "messages_total",
			Help:      "Validated messages dispatched by message id.",
		}, []string{"id"}),
		RequestTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sirflink",
			Subsystem: "router",
			Name:      "request_timeouts_total",
			Help:      "Correlated requests that got no reply in time, by expected id.",
		}, []string{"id"}),
	}
}

// Register adds every collector to reg.
func (l *Link) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		l.FramesDecoded,
		l.BytesDiscarded,
		l.ValidationFailure,
		l.Dispatched,
		l.RequestTimeouts,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Validation failure reasons.
const (
	ReasonLength   = "length"
	ReasonChecksum = "checksum"
	ReasonShort    = "short"
	ReasonEmpty    = "empty"
)

func (l *Link) RecordValidationFailure(reason string) {
	if l == nil {
		return
	}
	l.ValidationFailure.WithLabelValues(reason).Inc()
}

func (l *Link) RecordFrame() {
	if l == nil {
		return
	}
	l.FramesDecoded.Inc()
}

func (l *Link) RecordDiscard(n int) {
	if l == nil {
		return
	}
	l.BytesDiscarded.Add(float64(n))
}

func (l *Link) RecordDispatch(id byte) {
	if l == nil {
		return
	}
	l.Dispatched.WithLabelValues(strconv.Itoa(int(id))).Inc()
}

func (l *Link) RecordTimeout(id byte) {
	if l == nil {
		return
	}
	l.RequestTimeouts.WithLabelValues(strconv.Itoa(int(id))).Inc()
}
