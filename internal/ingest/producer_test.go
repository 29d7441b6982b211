package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"finfo/internal/model"
	"finfo/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

var errFetch = errors.New("fetch failed")

type fakeQuoteFetcher struct {
	calls  atomic.Int32
	failAt int32
}

func (f *fakeQuoteFetcher) FetchQuotes(_ context.Context, symbols []string) ([]model.Quote, error) {
	n := f.calls.Add(1)
	if f.failAt > 0 && n >= f.failAt {
		return nil, errFetch
	}
	out := make([]model.Quote, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, model.Quote{Symbol: s, LastDone: float64(n), Timestamp: int64(n)})
	}
	return out, nil
}

type fakeCandleFetcher struct {
	mu     sync.Mutex
	ranges map[string][][2]int64
	failAt map[string]int
}

func (f *fakeCandleFetcher) FetchCandles(_ context.Context, symbol string, period model.Period, from, to time.Time) ([]model.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ranges == nil {
		f.ranges = make(map[string][][2]int64)
	}
	f.ranges[symbol] = append(f.ranges[symbol], [2]int64{from.Unix(), to.Unix()})
	if n, ok := f.failAt[symbol]; ok && len(f.ranges[symbol]) >= n {
		return nil, errFetch
	}

	step := period.Duration()
	var out []model.Candle
	for ts := from; ts.Before(to); ts = ts.Add(step) {
		out = append(out, model.Candle{Symbol: symbol, Close: 1, Timestamp: ts.Unix()})
	}
	return out, nil
}

func TestPublishBackpressure(t *testing.T) {
	ch := make(chan []int, 1)
	pub := NewPublisher(ch, make(chan struct{}))

	require.NoError(t, pub.Publish(context.Background(), []int{1}))

	returned := make(chan error, 1)
	go func() {
		returned <- pub.Publish(context.Background(), []int{2})
	}()

	select {
	case err := <-returned:
		t.Fatalf("publish on a full channel returned early: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	assert.Equal(t, []int{1}, <-ch)
	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publish did not resume after the channel drained")
	}
	assert.Equal(t, []int{2}, <-ch)
}

func TestPublishWriterStopped(t *testing.T) {
	ch := make(chan []int)
	done := make(chan struct{})
	close(done)

	err := NewPublisher(ch, done).Publish(context.Background(), []int{1})
	require.ErrorIs(t, err, exception.ErrWriterStopped)
}

func TestPublishContextCancelled(t *testing.T) {
	ch := make(chan []int)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewPublisher(ch, make(chan struct{})).Publish(ctx, []int{1})
	require.ErrorIs(t, err, context.Canceled)
}

func TestPublishEmptyBatchIsNoop(t *testing.T) {
	ch := make(chan []int)
	require.NoError(t, NewPublisher(ch, make(chan struct{})).Publish(context.Background(), nil))
}

func TestPollerPublishesImmediatelyAndPeriodically(t *testing.T) {
	fetcher := &fakeQuoteFetcher{}
	p, err := NewPoller("AAPL.US", fetcher, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "poll:AAPL.US", p.Name())

	ch := make(chan []model.Quote, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, NewPublisher(ch, make(chan struct{}))) }()

	select {
	case batch := <-ch:
		require.Len(t, batch, 1)
		assert.Equal(t, "AAPL.US", batch[0].Symbol)
		assert.Equal(t, int64(1), batch[0].Timestamp)
	case <-time.After(30 * time.Millisecond):
		t.Fatal("first poll was not immediate")
	}

	select {
	case batch := <-ch:
		assert.Equal(t, int64(2), batch[0].Timestamp)
	case <-time.After(time.Second):
		t.Fatal("second poll did not happen")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestPollerFetchErrorStopsProducer(t *testing.T) {
	fetcher := &fakeQuoteFetcher{failAt: 2}
	p, err := NewPoller("700.HK", fetcher, 10*time.Millisecond)
	require.NoError(t, err)

	ch := make(chan []model.Quote, 16)
	err = p.Run(context.Background(), NewPublisher(ch, make(chan struct{})))
	require.ErrorIs(t, err, errFetch)
	assert.Len(t, ch, 1)
}

func TestNewPollerDefaults(t *testing.T) {
	_, err := NewPoller("X", nil, 0)
	require.ErrorIs(t, err, exception.ErrProducerNilFetcher)

	p, err := NewPoller("X", &fakeQuoteFetcher{}, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPollInterval, p.interval)
}

func TestBackfillWalksWindows(t *testing.T) {
	fetcher := &fakeCandleFetcher{}
	from := time.Unix(1700000000, 0)
	b, err := NewBackfill(BackfillConfig{
		Symbol: "AAPL.US",
		Period: model.PeriodMinute,
		From:   from,
		To:     from.Add(25 * time.Minute),
		Window: 10 * time.Minute,
	}, fetcher)
	require.NoError(t, err)

	ch := make(chan []model.Candle, 16)
	require.NoError(t, b.Run(context.Background(), NewPublisher(ch, make(chan struct{}))))
	close(ch)

	var sizes []int
	var last int64
	for batch := range ch {
		sizes = append(sizes, len(batch))
		for _, c := range batch {
			assert.Greater(t, c.Timestamp, last)
			last = c.Timestamp
		}
	}
	assert.Equal(t, []int{10, 10, 5}, sizes)
	assert.Equal(t, [][2]int64{
		{1700000000, 1700000600},
		{1700000600, 1700001200},
		{1700001200, 1700001500},
	}, fetcher.ranges["AAPL.US"])
}

func TestBackfillSharedLimiter(t *testing.T) {
	fetcher := &fakeCandleFetcher{}
	limiter := rate.NewLimiter(rate.Every(50*time.Millisecond), 1)
	from := time.Unix(1700000000, 0)

	ch := make(chan []model.Candle, 16)
	pub := NewPublisher(ch, make(chan struct{}))
	start := time.Now()
	for _, symbol := range []string{"AAPL.US", "TSLA.US"} {
		b, err := NewBackfill(BackfillConfig{
			Symbol:  symbol,
			From:    from,
			To:      from.Add(2 * time.Hour),
			Window:  time.Hour,
			Limiter: limiter,
		}, fetcher)
		require.NoError(t, err)
		require.NoError(t, b.Run(context.Background(), pub))
	}

	// four fetches, the first uses the burst token
	assert.GreaterOrEqual(t, time.Since(start), 140*time.Millisecond)
	assert.Len(t, fetcher.ranges["AAPL.US"], 2)
	assert.Len(t, fetcher.ranges["TSLA.US"], 2)
}

func TestBackfillLimiterCancelled(t *testing.T) {
	fetcher := &fakeCandleFetcher{}
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	require.True(t, limiter.Allow())
	from := time.Unix(1700000000, 0)
	b, err := NewBackfill(BackfillConfig{Symbol: "X", From: from, To: from.Add(time.Hour), Limiter: limiter}, fetcher)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, b.Run(ctx, NewPublisher(make(chan []model.Candle, 1), make(chan struct{}))))
	assert.Empty(t, fetcher.ranges["X"])
}

func TestNewBackfillRejectsEmptyRange(t *testing.T) {
	now := time.Now()
	_, err := NewBackfill(BackfillConfig{Symbol: "X", From: now, To: now}, &fakeCandleFetcher{})
	require.ErrorIs(t, err, exception.ErrProducerEmptyRange)

	_, err = NewBackfill(BackfillConfig{Symbol: "X", From: now, To: now.Add(time.Hour)}, nil)
	require.ErrorIs(t, err, exception.ErrProducerNilFetcher)
}
