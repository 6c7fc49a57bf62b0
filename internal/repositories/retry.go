package repositories

import (
	"context"
	"math/rand"
	"time"

	"pazargate/internal/apperr"
)

var readBackoffs = []time.Duration{50 * time.Millisecond, 200 * time.Millisecond, 800 * time.Millisecond}

// withReadRetry retries fn up to three times after a transient store
// failure, sleeping a jittered backoff between attempts. Write paths
// never retry; they surface the failure immediately.
func withReadRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !apperr.Retryable(err) || attempt >= len(readBackoffs) {
			return err
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(jitter(readBackoffs[attempt])):
		}
	}
}

// jitter spreads the delay over [d/2, d) to avoid retry alignment
func jitter(d time.Duration) time.Duration {
	half := int64(d) / 2
	return time.Duration(half + rand.Int63n(half))
}
