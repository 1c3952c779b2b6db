package numa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetConfiguredReturnsPositiveCount(t *testing.T) {
	n, err := GetConfigured()
	require.NoError(t, err)
	require.Greater(t, n, 0)
}

func TestClockTicksPerSecondReturnsPositiveValue(t *testing.T) {
	hz, err := ClockTicksPerSecond()
	require.NoError(t, err)
	require.Greater(t, hz, int64(0))
}

func TestPinToCPUZeroSucceeds(t *testing.T) {
	done := make(chan error, 1)
	go func() {
		done <- Pin(0)
	}()
	require.NoError(t, <-done)
}
