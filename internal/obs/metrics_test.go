package obs

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsNilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AddSamples(1)
		m.SetBufferLines(2)
		m.SetQueueDepth(3)
		m.ObserveFlush(TriggerSize, 1, time.Millisecond, nil)
		m.ObserveAttempt(false)
		m.IncProducerError("AAPL.US")
	})
}

func TestMetricsObserveFlush(t *testing.T) {
	m := NewMetrics(nil)

	m.ObserveFlush(TriggerTimer, 3, time.Millisecond, nil)
	m.ObserveFlush(TriggerTimer, 5, time.Millisecond, errors.New("boom"))
	m.ObserveFlush(TriggerDrain, 2, time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.flushes.WithLabelValues(TriggerTimer, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flushes.WithLabelValues(TriggerTimer, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flushes.WithLabelValues(TriggerDrain, "ok")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.flushedLines))
}

func TestMetricsRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.AddSamples(4)
	m.ObserveAttempt(true)
	m.IncProducerError("700.HK")

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.samples))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.producerErrors.WithLabelValues("700.HK")))
}
