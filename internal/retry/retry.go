// Package retry provides the bounded-retry policy shared by data fetches
// and alert dispatch.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy describes a bounded retry with linear backoff.
type Policy struct {
	MaxAttempts int
	DelayBase   time.Duration
}

// DefaultPolicy returns the policy used when config leaves retry unset.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, DelayBase: time.Second}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.DelayBase <= 0 {
		p.DelayBase = time.Second
	}
	return p
}

// Do runs op until it succeeds or attempts are exhausted. Between attempts it
// waits DelayBase*(attempt+1), aborting early if ctx is cancelled.
func (p Policy) Do(ctx context.Context, op func() error) error {
	p = p.normalized()
	var lastErr error
	for i := 0; i < p.MaxAttempts; i++ {
		if err := op(); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if i == p.MaxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-time.After(p.DelayBase * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, lastErr)
}
