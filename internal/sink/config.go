package sink

import (
	"net/url"
	"strings"
	"time"

	"finfo/pkg/exception"

	"github.com/yanun0323/errors"
)

const (
	defaultAttempts  = 3
	defaultTimeout   = 10 * time.Second
	defaultPrecision = "second"

	writePath = "/api/v3/write_lp"
)

// Config controls the line protocol sink client.
type Config struct {
	// URL is the server base URL. When Database is empty it is used as the full write URL.
	URL       string
	Database  string
	Precision string
	Token     string
	Timeout   time.Duration
	Attempts  int
	Backoff   Backoff
}

// DefaultConfig returns a baseline configuration for the given server.
func DefaultConfig(baseURL, database, token string) Config {
	return Config{
		URL:       baseURL,
		Database:  database,
		Precision: defaultPrecision,
		Token:     token,
		Timeout:   defaultTimeout,
		Attempts:  defaultAttempts,
		Backoff:   DefaultBackoff(),
	}
}

func (c Config) withDefaults() Config {
	if c.Precision == "" {
		c.Precision = defaultPrecision
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.Attempts == 0 {
		c.Attempts = defaultAttempts
	}
	if c.Backoff == (Backoff{}) {
		c.Backoff = DefaultBackoff()
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return exception.ErrSinkEmptyURL
	}
	if c.Attempts < 0 {
		return errors.Wrap(exception.ErrConfigInvalid, "sink attempts must be >= 0")
	}
	if c.Timeout < 0 {
		return errors.Wrap(exception.ErrConfigInvalid, "sink timeout must be >= 0")
	}
	return nil
}

// Endpoint resolves the write URL.
func (c Config) Endpoint() (string, error) {
	u, err := url.Parse(strings.TrimSpace(c.URL))
	if err != nil {
		return "", errors.Wrap(err, "parse sink url")
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.Wrapf(exception.ErrConfigInvalid, "sink url %q is not absolute", c.URL)
	}
	if c.Database == "" {
		return u.String(), nil
	}

	u.Path = strings.TrimRight(u.Path, "/") + writePath
	q := u.Query()
	q.Set("db", c.Database)
	precision := c.Precision
	if precision == "" {
		precision = defaultPrecision
	}
	q.Set("precision", precision)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
