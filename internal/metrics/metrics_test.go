package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkCounters(t *testing.T) {
	l := NewLink()
	require.NoError(t, l.Register(prometheus.NewRegistry()))

	l.RecordFrame()
	l.RecordFrame()
	l.RecordDiscard(7)
	l.RecordValidationFailure(ReasonChecksum)
	l.RecordDispatch(2)
	l.RecordDispatch(2)
	l.RecordDispatch(6)
	l.RecordTimeout(6)

	assert.Equal(t, 2.0, testutil.ToFloat64(l.FramesDecoded))
	assert.Equal(t, 7.0, testutil.ToFloat64(l.BytesDiscarded))
	assert.Equal(t, 1.0, testutil.ToFloat64(l.ValidationFailure.WithLabelValues(ReasonChecksum)))
	assert.Equal(t, 0.0, testutil.ToFloat64(l.ValidationFailure.WithLabelValues(ReasonLength)))
	assert.Equal(t, 2.0, testutil.ToFloat64(l.Dispatched.WithLabelValues("2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(l.RequestTimeouts.WithLabelValues("6")))
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, NewLink().Register(reg))
	assert.Error(t, NewLink().Register(reg))
}

func TestNilLinkIsNoop(t *testing.T) {
	var l *Link
	assert.NotPanics(t, func() {
		l.RecordFrame()
		l.RecordDiscard(1)
		l.RecordValidationFailure(ReasonShort)
		l.RecordDispatch(1)
		l.RecordTimeout(1)
	})
}
