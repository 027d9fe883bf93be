// Package retry provides backoff policies for operations that fail
// transiently, such as probing external links over a flaky network.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Backoff selects how the delay grows between attempts.
type Backoff string

const (
	BackoffFixed       Backoff = "fixed"
	BackoffLinear      Backoff = "linear"
	BackoffExponential Backoff = "exponential"
)

// Policy describes how often and how patiently an operation is retried
// after a transient failure. It is immutable after construction.
type Policy struct {
	Backoff    Backoff
	Initial    time.Duration // base delay before the first retry
	Max        time.Duration // cap for growth
	MaxRetries int           // retries after the first failure
}

// Default returns the policy used when nothing is configured: linear
// growth from 500ms capped at 3s, two retries.
func Default() Policy {
	return Policy{
		Backoff:    BackoffLinear,
		Initial:    500 * time.Millisecond,
		Max:        3 * time.Second,
		MaxRetries: 2,
	}
}

// New builds a policy from raw settings. Zero or invalid values keep
// the defaults, and Initial is clamped to Max.
func New(backoff Backoff, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := Default()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	switch backoff {
	case BackoffFixed, BackoffLinear, BackoffExponential:
		p.Backoff = backoff
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the pause before the given retry (1-based: the first
// retry is 1). Non-positive retries yield zero.
func (p Policy) Delay(retry int) time.Duration {
	if retry <= 0 {
		return 0
	}
	switch p.Backoff {
	case BackoffFixed:
		return p.Initial
	case BackoffExponential:
		d := p.Initial * (1 << (retry - 1))
		if d > p.Max {
			return p.Max
		}
		return d
	default:
		d := time.Duration(retry) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// Sleep waits out the delay for the given retry, returning early with
// the context error when the caller is canceled.
func (p Policy) Sleep(ctx context.Context, retry int) error {
	d := p.Delay(retry)
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

// Validate reports a policy that cannot be applied.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial delay must be positive")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max delay must be positive")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	return nil
}
