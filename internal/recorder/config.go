package recorder

import (
	"time"

	"finfo/pkg/exception"

	"github.com/yanun0323/errors"
)

const (
	defaultBatchMax   = 500
	defaultQueueSize  = 64
	defaultBufferSize = 64 * 1024
)

var defaultFlushInterval = time.Second

// TimerMode selects what restarts the flush timer.
type TimerMode uint8

const (
	// TimerSinceFlush restarts the timer only when a flush attempt completes.
	TimerSinceFlush TimerMode = iota
	// TimerSinceAppend also restarts the timer whenever a batch is appended.
	TimerSinceAppend
)

// ParseTimerMode maps "flush" and "append" to a TimerMode.
func ParseTimerMode(s string) (TimerMode, error) {
	switch s {
	case "", "flush":
		return TimerSinceFlush, nil
	case "append":
		return TimerSinceAppend, nil
	default:
		return 0, errors.Wrapf(exception.ErrConfigInvalid, "unknown timer mode %q", s)
	}
}

func (m TimerMode) String() string {
	switch m {
	case TimerSinceAppend:
		return "append"
	default:
		return "flush"
	}
}

// Config controls Writer batching behavior.
type Config struct {
	// BatchMax is the buffered line count that triggers an immediate flush.
	BatchMax int
	// FlushInterval is the time trigger period.
	FlushInterval time.Duration
	// QueueSize is the inbound channel capacity in sample batches.
	QueueSize  int
	BufferSize int
	TimerMode  TimerMode
}

// DefaultConfig returns a baseline configuration for the Writer.
func DefaultConfig() Config {
	return Config{
		BatchMax:      defaultBatchMax,
		FlushInterval: defaultFlushInterval,
		QueueSize:     defaultQueueSize,
		BufferSize:    defaultBufferSize,
		TimerMode:     TimerSinceFlush,
	}
}

func (c Config) withDefaults() Config {
	if c.BatchMax == 0 {
		c.BatchMax = defaultBatchMax
	}
	if c.FlushInterval == 0 {
		c.FlushInterval = defaultFlushInterval
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.BufferSize == 0 {
		c.BufferSize = defaultBufferSize
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.BatchMax <= 0 {
		return errors.Wrap(exception.ErrConfigInvalid, "recorder BatchMax must be > 0")
	}
	if c.FlushInterval <= 0 {
		return errors.Wrap(exception.ErrConfigInvalid, "recorder FlushInterval must be > 0")
	}
	if c.QueueSize <= 0 {
		return errors.Wrap(exception.ErrConfigInvalid, "recorder QueueSize must be > 0")
	}
	if c.BufferSize < 0 {
		return errors.Wrap(exception.ErrConfigInvalid, "recorder BufferSize must be >= 0")
	}
	if c.TimerMode > TimerSinceAppend {
		return errors.Wrap(exception.ErrConfigInvalid, "recorder TimerMode is unknown")
	}
	return nil
}
