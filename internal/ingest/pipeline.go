package ingest

import (
	"context"
	"sync"

	"finfo/internal/obs"
	"finfo/internal/recorder"
	"finfo/pkg/exception"

	"github.com/yanun0323/logs"
)

// Pipeline wires producers to a single Writer through a bounded channel.
type Pipeline[T any] struct {
	writer  *recorder.Writer[T]
	metrics *obs.Metrics
}

// NewPipeline creates a supervisor around writer.
func NewPipeline[T any](writer *recorder.Writer[T], metrics *obs.Metrics) *Pipeline[T] {
	return &Pipeline[T]{writer: writer, metrics: metrics}
}

// Run starts the writer and every producer, waits for all producers to
// finish, closes the channel and waits for the writer's final flush.
//
// A producer error is logged and never cancels its siblings. Cancelling ctx
// stops the producers; the writer still drains with a context detached from
// that cancellation. If the writer stops early on an undeliverable flush, the
// producers are stopped too and that error is the result. Otherwise the result
// is the writer's final flush error.
func (p *Pipeline[T]) Run(ctx context.Context, producers ...Producer[T]) error {
	if p == nil || p.writer == nil {
		return exception.ErrNilInstance
	}
	if len(producers) == 0 {
		return exception.ErrPipelineNoProducer
	}

	ch := make(chan []T, p.writer.Config().QueueSize)
	done := make(chan struct{})
	var writerErr error
	go func() {
		defer close(done)
		writerErr = p.writer.Run(context.WithoutCancel(ctx), ch)
	}()

	prodCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-done:
			cancel()
		case <-prodCtx.Done():
		}
	}()

	pub := NewPublisher(ch, done)
	var wg sync.WaitGroup
	for _, prod := range producers {
		wg.Add(1)
		go func(prod Producer[T]) {
			defer wg.Done()
			if err := prod.Run(prodCtx, pub); err != nil {
				p.metrics.IncProducerError(prod.Name())
				logs.Errorf("producer %s stopped, err: %+v", prod.Name(), err)
				return
			}
			logs.Infof("producer %s finished", prod.Name())
		}(prod)
	}

	wg.Wait()
	close(ch)
	<-done

	if writerErr != nil {
		logs.Errorf("pipeline stopped with undelivered data, err: %+v", writerErr)
	}
	return writerErr
}
