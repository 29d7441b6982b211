package query

import (
	"context"
	"crypto/tls"
	"strings"
	"sync/atomic"
	"time"

	"finfo/pkg/exception"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/flight/flightsql"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const defaultTimeout = 30 * time.Second

// Config describes the FlightSQL endpoint.
type Config struct {
	// Addr is host:port. An http:// or https:// prefix is accepted; https enables TLS.
	Addr     string
	Database string
	Token    string
	TLS      bool
	Timeout  time.Duration
}

func (c Config) target() (string, bool, error) {
	addr := strings.TrimSpace(c.Addr)
	useTLS := c.TLS
	switch {
	case strings.HasPrefix(addr, "https://"):
		addr, useTLS = strings.TrimPrefix(addr, "https://"), true
	case strings.HasPrefix(addr, "http://"):
		addr = strings.TrimPrefix(addr, "http://")
	}
	addr = strings.TrimRight(addr, "/")
	if addr == "" {
		return "", false, exception.ErrQueryEmptyAddr
	}
	return addr, useTLS, nil
}

type flightClient interface {
	Execute(ctx context.Context, query string, opts ...grpc.CallOption) (*flight.FlightInfo, error)
	DoGet(ctx context.Context, in *flight.Ticket, opts ...grpc.CallOption) (*flight.Reader, error)
	Close() error
}

// Client runs SQL statements over FlightSQL.
type Client struct {
	cfg    Config
	fc     flightClient
	closed atomic.Bool
}

// New dials the endpoint. The connection is lazy; errors surface on Execute.
func New(ctx context.Context, cfg Config) (*Client, error) {
	addr, useTLS, err := cfg.target()
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	creds := insecure.NewCredentials()
	if useTLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	fc, err := flightsql.NewClient(addr, nil, nil, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, errors.Wrapf(err, "dial flightsql %s", addr)
	}
	logs.Debugf("flightsql client for %s, database %q, tls %t", addr, cfg.Database, useTLS)
	return &Client{cfg: cfg, fc: fc}, nil
}

// Execute runs one statement and collects every endpoint's record batches.
func (c *Client) Execute(ctx context.Context, sql string) (*Result, error) {
	if c.closed.Load() {
		return nil, exception.ErrQueryClosed
	}
	if strings.TrimSpace(sql) == "" {
		return nil, exception.ErrQueryEmptySQL
	}

	ctx, cancel := context.WithTimeout(c.outgoing(ctx), c.cfg.Timeout)
	defer cancel()

	info, err := c.fc.Execute(ctx, sql)
	if err != nil {
		return nil, errors.Wrap(err, "execute")
	}

	res := &Result{}
	for i, ep := range info.GetEndpoint() {
		if ep.GetTicket() == nil {
			continue
		}
		if err := c.fetch(ctx, ep.GetTicket(), res); err != nil {
			res.Release()
			return nil, errors.Wrapf(err, "endpoint %d", i)
		}
	}
	return res, nil
}

func (c *Client) fetch(ctx context.Context, ticket *flight.Ticket, res *Result) error {
	rdr, err := c.fc.DoGet(ctx, ticket)
	if err != nil {
		return errors.Wrap(err, "do get")
	}
	defer rdr.Release()

	if res.Schema == nil {
		res.Schema = rdr.Schema()
	}
	for rdr.Next() {
		rec := rdr.Record()
		rec.Retain()
		res.Records = append(res.Records, rec)
	}
	return rdr.Err()
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	kv := make([]string, 0, 4)
	if c.cfg.Database != "" {
		kv = append(kv, "database", c.cfg.Database)
	}
	if c.cfg.Token != "" {
		kv = append(kv, "authorization", "Bearer "+c.cfg.Token)
	}
	if len(kv) == 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}

// Close releases the connection. Further Execute calls fail.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.fc.Close()
}
