package epoch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInvalidEpochIsNotValid(t *testing.T) {
	require.False(t, Invalid.Valid())
	require.True(t, Epoch(1).Valid())
}

func TestBeforeSimpleOrder(t *testing.T) {
	require.True(t, Epoch(1).Before(Epoch(2)))
	require.False(t, Epoch(2).Before(Epoch(1)))
	require.False(t, Epoch(1).Before(Epoch(1)))
}

func TestBeforeWrapsAroundNearRangeBoundary(t *testing.T) {
	max := Epoch(mask)
	require.True(t, max.Before(Epoch(1)))
	require.False(t, Epoch(1).Before(max))
}

func TestCompareEqual(t *testing.T) {
	rel, err := Compare(Epoch(5), Epoch(5))
	require.NoError(t, err)
	require.Equal(t, RelationEqual, rel)
}

func TestCompareBeforeAndAfter(t *testing.T) {
	rel, err := Compare(Epoch(5), Epoch(6))
	require.NoError(t, err)
	require.Equal(t, RelationBefore, rel)

	rel, err = Compare(Epoch(6), Epoch(5))
	require.NoError(t, err)
	require.Equal(t, RelationAfter, rel)
}

func TestCompareRejectsExactHalfRange(t *testing.T) {
	a := Epoch(0)
	b := Epoch(halfRange)
	_, err := Compare(a, b)
	require.ErrorIs(t, err, ErrIncomparable)
}

func TestClockAdvancesAndSkipsInvalid(t *testing.T) {
	c := NewClock()
	require.Equal(t, Epoch(1), c.Current())

	c.current.Store(mask)
	c.advance()
	require.Equal(t, Epoch(1), c.Current())
}

func TestClockRunAdvancesOnTick(t *testing.T) {
	c := NewClock()
	start := c.Current()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, 5*time.Millisecond) }()

	<-ctx.Done()
	require.NoError(t, <-done)
	require.True(t, start.Before(c.Current()))
}

func TestEpochWrapAroundAntisymmetricAndTransitive(t *testing.T) {
	for delta := uint32(1); delta < halfRange; delta += 997 {
		a := Epoch(0)
		b := Epoch(delta)
		if a.Before(b) {
			require.False(t, b.Before(a))
		}
	}

	a, b, c := Epoch(1), Epoch(2), Epoch(3)
	require.True(t, a.Before(b))
	require.True(t, b.Before(c))
	require.True(t, a.Before(c))
}
