package recorder

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"finfo/internal/codec"
	"finfo/internal/obs"
	"finfo/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// Sink delivers one joined line protocol payload, retrying as it sees fit.
type Sink interface {
	Write(ctx context.Context, body []byte) error
}

// Writer drains sample batches from a channel, encodes them into its buffer
// and flushes the buffer to the sink on a size or time trigger.
type Writer[T any] struct {
	cfg     Config
	sink    Sink
	encode  codec.Encoder[T]
	metrics *obs.Metrics
	buf     *Buffer

	flushes uint64
	running uint32

	mu  sync.Mutex
	err error
}

// NewWriter creates a Writer for one sample shape.
func NewWriter[T any](cfg Config, sink Sink, encode codec.Encoder[T], metrics *obs.Metrics) (*Writer[T], error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, exception.ErrWriterNilSink
	}
	if encode == nil {
		return nil, exception.ErrWriterNilEncoder
	}
	return &Writer[T]{
		cfg:     cfg,
		sink:    sink,
		encode:  encode,
		metrics: metrics,
		buf:     NewBuffer(cfg.BufferSize),
	}, nil
}

// Config returns the resolved configuration.
func (w *Writer[T]) Config() Config {
	return w.cfg
}

// Err returns the error that stopped Run, if any.
func (w *Writer[T]) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Run consumes in until it is closed, then performs a final flush of whatever
// is still buffered.
//
// A flush whose retries are exhausted is fatal: Run returns its error at once,
// without reading further batches, and the undelivered lines stay in the
// buffer. ctx bounds the sink writes only.
func (w *Writer[T]) Run(ctx context.Context, in <-chan []T) error {
	if !atomic.CompareAndSwapUint32(&w.running, 0, 1) {
		return exception.ErrWriterRunning
	}

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case batch, ok := <-in:
			if !ok {
				return w.stop(w.drain(ctx))
			}
			w.append(batch)
			w.metrics.SetQueueDepth(len(in))
			if w.cfg.TimerMode == TimerSinceAppend {
				ticker.Reset(w.cfg.FlushInterval)
			}
			if w.buf.Len() >= w.cfg.BatchMax {
				if err := w.flush(ctx, obs.TriggerSize); err != nil {
					return w.stop(err)
				}
				ticker.Reset(w.cfg.FlushInterval)
			}
		case <-ticker.C:
			if w.buf.Len() == 0 {
				continue
			}
			if err := w.flush(ctx, obs.TriggerTimer); err != nil {
				return w.stop(err)
			}
			ticker.Reset(w.cfg.FlushInterval)
		}
	}
}

func (w *Writer[T]) append(batch []T) {
	if len(batch) == 0 {
		return
	}
	for i := range batch {
		appendSample(w.buf, w.encode, batch[i])
	}
	w.metrics.AddSamples(len(batch))
	w.metrics.SetBufferLines(w.buf.Len())
}

func (w *Writer[T]) drain(ctx context.Context) error {
	if w.buf.Len() == 0 {
		logs.Infof("writer drained, %d flushes, nothing left to send", w.flushes)
		return nil
	}
	if err := w.flush(ctx, obs.TriggerDrain); err != nil {
		return errors.Wrap(err, "final flush")
	}
	logs.Infof("writer drained, %d flushes", w.flushes)
	return nil
}

// flush sends the whole buffer. The buffer is emptied only on success.
func (w *Writer[T]) flush(ctx context.Context, trigger string) error {
	w.flushes++
	lines := w.buf.Len()
	start := time.Now()

	err := w.sink.Write(ctx, w.buf.Bytes())
	w.metrics.ObserveFlush(trigger, lines, time.Since(start), err)
	if err != nil {
		return errors.Wrapf(err, "%s flush #%d of %d lines", trigger, w.flushes, lines)
	}

	w.buf.Reset()
	w.metrics.SetBufferLines(0)
	logs.Debugf("writer %s flush #%d delivered %d lines", trigger, w.flushes, lines)
	return nil
}

// stop records the terminal error of Run.
func (w *Writer[T]) stop(err error) error {
	if err == nil {
		return nil
	}
	logs.Errorf("writer stopped, %d lines undelivered, err: %+v", w.buf.Len(), err)
	w.mu.Lock()
	w.err = err
	w.mu.Unlock()
	return err
}
