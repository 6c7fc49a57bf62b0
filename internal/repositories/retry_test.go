package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pazargate/internal/apperr"
)

func fastBackoffs(t *testing.T) {
	t.Helper()
	saved := readBackoffs
	readBackoffs = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	t.Cleanup(func() { readBackoffs = saved })
}

func TestReadRetryRecoversAfterTransientFailures(t *testing.T) {
	fastBackoffs(t)

	calls := 0
	err := withReadRetry(context.Background(), func() error {
		calls++
		if calls <= 3 {
			return apperr.E(apperr.KindStoreUnavailable, "test.read", "connection reset", nil)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls, "one initial attempt plus one retry per backoff")
}

func TestReadRetryExhaustsAllBackoffs(t *testing.T) {
	fastBackoffs(t)

	calls := 0
	err := withReadRetry(context.Background(), func() error {
		calls++
		return apperr.E(apperr.KindStoreUnavailable, "test.read", "connection reset", nil)
	})

	require.Error(t, err)
	assert.Equal(t, apperr.KindStoreUnavailable, apperr.KindOf(err))
	assert.Equal(t, 4, calls)
}

func TestReadRetryStopsOnNonRetryableError(t *testing.T) {
	fastBackoffs(t)

	calls := 0
	err := withReadRetry(context.Background(), func() error {
		calls++
		return apperr.E(apperr.KindValidation, "test.read", "bad input", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "only transient store failures retry")
}

func TestJitterStaysWithinBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := jitter(100 * time.Millisecond)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.Less(t, d, 100*time.Millisecond)
	}
}
