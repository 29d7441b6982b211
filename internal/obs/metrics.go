package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "finfo"

// Flush triggers.
const (
	TriggerSize  = "size"
	TriggerTimer = "timer"
	TriggerDrain = "drain"
)

// Metrics collects pipeline counters and latency stats. A nil *Metrics is a no-op.
type Metrics struct {
	samples        prometheus.Counter
	bufferLines    prometheus.Gauge
	flushes        *prometheus.CounterVec
	flushedLines   prometheus.Counter
	flushLatency   prometheus.Histogram
	writeAttempts  *prometheus.CounterVec
	producerErrors *prometheus.CounterVec
	queueDepth     prometheus.Gauge
}

// NewMetrics allocates the collectors and registers them on reg. A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_received_total",
			Help:      "Samples received by the writer from producers.",
		}),
		bufferLines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_lines",
			Help:      "Encoded lines waiting in the batch buffer.",
		}),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushes_total",
			Help:      "Flushes by trigger and result.",
		}, []string{"trigger", "result"}),
		flushedLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushed_lines_total",
			Help:      "Lines delivered to the sink.",
		}),
		flushLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_duration_seconds",
			Help:      "Duration of a flush including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		writeAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_attempts_total",
			Help:      "Single sink write attempts by result.",
		}, []string{"result"}),
		producerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "producer_errors_total",
			Help:      "Producers terminated by an error.",
		}, []string{"producer"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Sample batches waiting in the inbound channel.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.samples,
			m.bufferLines,
			m.flushes,
			m.flushedLines,
			m.flushLatency,
			m.writeAttempts,
			m.producerErrors,
			m.queueDepth,
		)
	}
	return m
}

// AddSamples counts samples handed to the writer.
func (m *Metrics) AddSamples(n int) {
	if m == nil {
		return
	}
	m.samples.Add(float64(n))
}

// SetBufferLines tracks the batch buffer length.
func (m *Metrics) SetBufferLines(n int) {
	if m == nil {
		return
	}
	m.bufferLines.Set(float64(n))
}

// SetQueueDepth tracks the inbound channel length.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// ObserveFlush records one flush attempt sequence.
func (m *Metrics) ObserveFlush(trigger string, lines int, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.flushLatency.Observe(d.Seconds())
	if err != nil {
		m.flushes.WithLabelValues(trigger, "error").Inc()
		return
	}
	m.flushes.WithLabelValues(trigger, "ok").Inc()
	m.flushedLines.Add(float64(lines))
}

// ObserveAttempt records one sink write attempt.
func (m *Metrics) ObserveAttempt(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.writeAttempts.WithLabelValues("ok").Inc()
		return
	}
	m.writeAttempts.WithLabelValues("error").Inc()
}

// IncProducerError records a producer that stopped with an error.
func (m *Metrics) IncProducerError(producer string) {
	if m == nil {
		return
	}
	m.producerErrors.WithLabelValues(producer).Inc()
}
