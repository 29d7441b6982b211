package ingest

import (
	"context"
	"time"

	"finfo/internal/model"
	"finfo/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"golang.org/x/time/rate"
)

// BackfillConfig describes one historical range to load.
type BackfillConfig struct {
	Symbol string
	Period model.Period
	From   time.Time
	To     time.Time
	// Window is the span requested per fetch.
	Window time.Duration
	// Limiter throttles fetches. It may be shared between backfills.
	Limiter *rate.Limiter
}

// Backfill walks [From, To) in Window steps and publishes each window's
// candles. It finishes once the range is exhausted.
type Backfill struct {
	cfg     BackfillConfig
	fetcher CandleFetcher
}

// NewBackfill validates the range and creates the producer.
func NewBackfill(cfg BackfillConfig, fetcher CandleFetcher) (*Backfill, error) {
	if fetcher == nil {
		return nil, exception.ErrProducerNilFetcher
	}
	if !cfg.From.Before(cfg.To) {
		return nil, errors.Wrapf(exception.ErrProducerEmptyRange, "%s: %s >= %s", cfg.Symbol, cfg.From, cfg.To)
	}
	if cfg.Period == "" {
		cfg.Period = model.PeriodMinute
	}
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	return &Backfill{cfg: cfg, fetcher: fetcher}, nil
}

func (b *Backfill) Name() string {
	return "backfill:" + b.cfg.Symbol
}

func (b *Backfill) Run(ctx context.Context, pub Publisher[model.Candle]) error {
	var total int
	for start := b.cfg.From; start.Before(b.cfg.To); {
		if b.cfg.Limiter != nil {
			if err := b.cfg.Limiter.Wait(ctx); err != nil {
				return nil
			}
		}

		end := start.Add(b.cfg.Window)
		if end.After(b.cfg.To) {
			end = b.cfg.To
		}

		candles, err := b.fetcher.FetchCandles(ctx, b.cfg.Symbol, b.cfg.Period, start, end)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrapf(err, "fetch candles of %s in [%d, %d)", b.cfg.Symbol, start.Unix(), end.Unix())
		}
		if err := pub.Publish(ctx, candles); err != nil {
			if shutdown(ctx, err) {
				return nil
			}
			return errors.Wrapf(err, "publish %d candles of %s", len(candles), b.cfg.Symbol)
		}
		total += len(candles)
		start = end
	}

	logs.Infof("backfill %s done, %d candles", b.cfg.Symbol, total)
	return nil
}
