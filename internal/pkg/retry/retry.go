package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy controls exponential backoff with jitter.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Default is the policy shared by the geocoding and routing clients.
var Default = Policy{
	MaxAttempts: 3,
	BaseDelay:   250 * time.Millisecond,
	MaxDelay:    2 * time.Second,
}

// Do runs fn, retrying while retryable reports the returned error as
// transient. The delay doubles per attempt, capped at MaxDelay, with up to
// 25% random jitter added. The last error is returned once attempts are
// exhausted or the context is cancelled.
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var err error
	delay := p.BaseDelay
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil || attempt >= p.MaxAttempts || !retryable(err) {
			return err
		}

		wait := delay
		if wait > 0 {
			wait += time.Duration(rand.Int63n(int64(wait)/4 + 1))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}
