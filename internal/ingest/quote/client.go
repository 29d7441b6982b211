package quote

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finfo/internal/model"
	"finfo/pkg/exception"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"
)

const (
	quotePath  = "/v1/quote"
	candlePath = "/v1/candlesticks"

	defaultTimeout = 15 * time.Second
)

// Config points the client at a quote service.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client fetches quotes and candles from a REST quote service.
type Client struct {
	cfg    Config
	base   *url.URL
	client *http.Client
}

// New creates a quote client. A nil http client uses http.DefaultClient.
func New(cfg Config, client *http.Client) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse quote base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Wrapf(exception.ErrConfigInvalid, "quote base url %q is not absolute", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{cfg: cfg, base: base, client: client}, nil
}

// FetchQuotes returns the latest quote of each symbol the service knows.
func (c *Client) FetchQuotes(ctx context.Context, symbols []string) ([]model.Quote, error) {
	if len(symbols) == 0 {
		return nil, exception.ErrQuoteEmptySymbols
	}

	q := url.Values{}
	q.Set("symbol", strings.Join(symbols, ","))

	var resp QuoteResponse
	if err := c.get(ctx, quotePath, q, &resp); err != nil {
		return nil, err
	}

	out := make([]model.Quote, 0, len(resp.Quotes))
	for _, p := range resp.Quotes {
		out = append(out, p.Model())
	}
	return out, nil
}

// FetchCandles returns the candles of symbol within [from, to).
func (c *Client) FetchCandles(ctx context.Context, symbol string, period model.Period, from, to time.Time) ([]model.Candle, error) {
	if symbol == "" {
		return nil, exception.ErrQuoteEmptySymbols
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("period", string(period))
	q.Set("start", strconv.FormatInt(from.Unix(), 10))
	q.Set("end", strconv.FormatInt(to.Unix(), 10))

	var resp CandleResponse
	if err := c.get(ctx, candlePath, q, &resp); err != nil {
		return nil, err
	}

	start, end := from.Unix(), to.Unix()
	out := make([]model.Candle, 0, len(resp.Candles))
	for _, p := range resp.Candles {
		if p.Timestamp < start || p.Timestamp >= end {
			continue
		}
		out = append(out, p.Model(symbol))
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u := *c.base
	u.Path += path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.Wrap(err, "new quote request")
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "do quote request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Wrapf(exception.ErrQuoteUnauthorized, "status %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return errors.Wrapf(exception.ErrQuoteStatus, "status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := sonic.ConfigFastest.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(err, "decode quote response")
	}
	return nil
}
