package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"finfo/internal/obs"
	"finfo/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

const maxErrorBody = 4 << 10

// StatusError carries a non-2xx response from the sink.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sink: status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return exception.ErrSinkStatus
}

// TransportError carries a write attempt that never produced a response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "sink: transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() []error {
	return []error{exception.ErrSinkTransport, e.Err}
}

// Client writes line protocol payloads to the sink over HTTP.
type Client struct {
	cfg      Config
	endpoint string
	auth     string
	client   *http.Client
	metrics  *obs.Metrics
}

// New creates a sink client. A nil http client uses http.DefaultClient.
func New(cfg Config, client *http.Client, metrics *obs.Metrics) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	endpoint, err := cfg.Endpoint()
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		cfg:      cfg,
		endpoint: endpoint,
		auth:     "Bearer " + cfg.Token,
		client:   client,
		metrics:  metrics,
	}, nil
}

// Endpoint returns the resolved write URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Send performs exactly one write attempt with body as the entire payload.
func (c *Client) Send(ctx context.Context, body []byte) error {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "new sink request")
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
}

// Write sends body with the configured retry budget. Every failed attempt but
// the last is followed by its backoff delay. When all attempts fail, the last
// attempt error is returned without further waiting.
func (c *Client) Write(ctx context.Context, body []byte) error {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.Attempts; attempt++ {
		err := c.Send(ctx, body)
		c.metrics.ObserveAttempt(err == nil)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == c.cfg.Attempts {
			logs.Warnf("sink write attempt %d/%d failed, err: %+v", attempt, c.cfg.Attempts, err)
			break
		}

		delay := c.cfg.Backoff.Delay(attempt)
		logs.Warnf("sink write attempt %d/%d failed, retry in %s, err: %+v", attempt, c.cfg.Attempts, delay, err)
		if werr := wait(ctx, delay); werr != nil {
			return errors.Wrapf(lastErr, "write aborted after %d attempts: %v", attempt, werr)
		}
	}

	if lastErr == nil {
		return exception.ErrSinkUnknownWrite
	}
	return errors.Wrapf(lastErr, "write failed after %d attempts", c.cfg.Attempts)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
