package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := E(KindStoreUnavailable, "session.open", "", errors.New("connection refused"))
	assert.Equal(t, KindStoreUnavailable, KindOf(err))

	wrapped := fmt.Errorf("handling turn: %w", err)
	assert.Equal(t, KindStoreUnavailable, KindOf(wrapped), "kind survives wrapping")

	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestIsKind(t *testing.T) {
	err := E(KindValidation, "pin_auth.register", "PIN must be 4-6 digits", nil)
	assert.True(t, IsKind(err, KindValidation))
	assert.False(t, IsKind(err, KindIntegrity))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(E(KindStoreUnavailable, "op", "", nil)))
	assert.False(t, Retryable(E(KindIntegrity, "op", "", nil)), "constraint violations must not retry")
	assert.False(t, Retryable(E(KindTimeout, "op", "", nil)))
	assert.False(t, Retryable(nil))
}

func TestErrorString(t *testing.T) {
	cause := errors.New("duplicate key")
	err := E(KindIntegrity, "listing.insert", "unique violation", cause)
	assert.Contains(t, err.Error(), "listing.insert")
	assert.Contains(t, err.Error(), "integrity_violation")
	assert.Contains(t, err.Error(), "duplicate key")
	assert.Equal(t, cause, errors.Unwrap(err))
}
