package backoff

import (
	"context"
	"math/rand"
	"time"
)

// Backoff computes exponentially growing delays with ±10% jitter.
// It is not safe for concurrent use.
type Backoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	currentInterval time.Duration
	attempts        int
}

func New(initial, max time.Duration, multiplier float64) *Backoff {
	return &Backoff{
		InitialInterval: initial,
		MaxInterval:     max,
		Multiplier:      multiplier,
	}
}

// Next returns the next backoff duration
func (b *Backoff) Next() time.Duration {
	if b.currentInterval == 0 {
		b.currentInterval = b.InitialInterval
	} else {
		b.currentInterval = time.Duration(float64(b.currentInterval) * b.Multiplier)
		if b.currentInterval > b.MaxInterval {
			b.currentInterval = b.MaxInterval
		}
	}
	b.attempts++

	// Add jitter: ±10%
	jitter := time.Duration(rand.Float64()*0.2*float64(b.currentInterval)) -
		time.Duration(0.1*float64(b.currentInterval))

	return b.currentInterval + jitter
}

// Wait sleeps for the next backoff duration. It returns false if ctx ended first.
func (b *Backoff) Wait(ctx context.Context) bool {
	timer := time.NewTimer(b.Next())
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Attempts returns how many delays were handed out since the last Reset
func (b *Backoff) Attempts() int {
	return b.attempts
}

// Reset resets the backoff to initial state
func (b *Backoff) Reset() {
	b.currentInterval = 0
	b.attempts = 0
}
