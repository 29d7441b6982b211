package sink

import "time"

// Backoff is an exponential delay schedule without jitter.
type Backoff struct {
	// Base is the delay after the first failed attempt.
	Base time.Duration
	// Max caps a single delay. Zero means no cap.
	Max time.Duration
	// Factor multiplies the delay for each further attempt.
	Factor float64
}

// DefaultBackoff yields 100ms, 200ms, 400ms, ...
func DefaultBackoff() Backoff {
	return Backoff{
		Base:   100 * time.Millisecond,
		Factor: 2.0,
	}
}

// Delay returns the wait after the given failed attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	base := b.Base
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	factor := b.Factor
	if factor <= 1 {
		factor = 2.0
	}

	wait := base
	for i := 1; i < attempt; i++ {
		next := time.Duration(float64(wait) * factor)
		if b.Max > 0 && next > b.Max {
			return b.Max
		}
		wait = next
	}
	if b.Max > 0 && wait > b.Max {
		return b.Max
	}
	return wait
}
