package ingest

import (
	"context"
	"time"

	"finfo/internal/model"
	"finfo/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

const DefaultPollInterval = 30 * time.Second

// Poller fetches the spot quote of one symbol on a fixed period. The first
// fetch happens immediately.
type Poller struct {
	symbol   string
	fetcher  QuoteFetcher
	interval time.Duration
}

// NewPoller creates a quote poller. A non-positive interval uses DefaultPollInterval.
func NewPoller(symbol string, fetcher QuoteFetcher, interval time.Duration) (*Poller, error) {
	if fetcher == nil {
		return nil, exception.ErrProducerNilFetcher
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{symbol: symbol, fetcher: fetcher, interval: interval}, nil
}

func (p *Poller) Name() string {
	return "poll:" + p.symbol
}

func (p *Poller) Run(ctx context.Context, pub Publisher[model.Quote]) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	symbols := []string{p.symbol}
	for {
		quotes, err := p.fetcher.FetchQuotes(ctx, symbols)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrapf(err, "fetch quote of %s", p.symbol)
		}

		if err := pub.Publish(ctx, quotes); err != nil {
			if shutdown(ctx, err) {
				return nil
			}
			return errors.Wrapf(err, "publish %d quotes of %s", len(quotes), p.symbol)
		}

		select {
		case <-ctx.Done():
			logs.Infof("poller %s stopped", p.symbol)
			return nil
		case <-ticker.C:
		}
	}
}
