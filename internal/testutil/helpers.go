package testutil

import (
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/swarmnav/internal/channel"
)

// NewTestRNG creates a deterministic random number generator for tests
func NewTestRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NopLogger returns a no-op logger for tests
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// TestLogger routes log output through t.Log.
func TestLogger(t *testing.T) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t))
}

// AssertPanic asserts that the given function panics
func AssertPanic(t *testing.T, f func(), msgAndArgs ...interface{}) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic but none occurred: %v", msgAndArgs)
		}
	}()
	f()
}

// NewTestStore returns a small layout and a zeroed store sized for it.
func NewTestStore(t *testing.T, maxW, maxH, queueCapacity int) (*channel.Store, channel.Layout) {
	t.Helper()
	layout, err := channel.NewLayout(maxW, maxH, queueCapacity)
	require.NoError(t, err)
	return channel.NewStore(layout.Size()), layout
}
