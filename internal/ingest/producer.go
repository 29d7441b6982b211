package ingest

import (
	"context"
	"time"

	"finfo/internal/model"
	"finfo/pkg/exception"
)

// Producer periodically fetches samples for one symbol and publishes them.
// Run returns nil when ctx is cancelled or the producer has nothing left to do.
type Producer[T any] interface {
	Name() string
	Run(ctx context.Context, pub Publisher[T]) error
}

// QuoteFetcher returns the latest spot quotes of the given symbols.
type QuoteFetcher interface {
	FetchQuotes(ctx context.Context, symbols []string) ([]model.Quote, error)
}

// CandleFetcher returns the candles of one symbol within [from, to).
type CandleFetcher interface {
	FetchCandles(ctx context.Context, symbol string, period model.Period, from, to time.Time) ([]model.Candle, error)
}

// Publisher is the sending side of the writer channel handed to producers.
type Publisher[T any] struct {
	out  chan<- []T
	done <-chan struct{}
}

// NewPublisher wraps out. done is closed once the consumer of out has stopped.
func NewPublisher[T any](out chan<- []T, done <-chan struct{}) Publisher[T] {
	return Publisher[T]{out: out, done: done}
}

// Publish blocks until the batch is queued. A full channel suspends the caller.
func (p Publisher[T]) Publish(ctx context.Context, batch []T) error {
	if len(batch) == 0 {
		return nil
	}
	select {
	case <-p.done:
		return exception.ErrWriterStopped
	default:
	}

	select {
	case p.out <- batch:
		return nil
	case <-p.done:
		return exception.ErrWriterStopped
	case <-ctx.Done():
		select {
		case <-p.done:
			return exception.ErrWriterStopped
		default:
		}
		return ctx.Err()
	}
}

// shutdown reports whether a Publish error only reflects ctx being done.
// A stopped writer is always reported, even during shutdown.
func shutdown(ctx context.Context, err error) bool {
	return ctx.Err() != nil && err != exception.ErrWriterStopped
}
