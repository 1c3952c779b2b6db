package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"silotxn/pkg/session"
	"silotxn/pkg/worker"
)

func TestEngineStartRunsAndShutsDownCleanly(t *testing.T) {
	e := New(Config{
		WorkerCount: 2,
		EpochTick:   5 * time.Millisecond,
		WakeupTick:  5 * time.Millisecond,
		PinToNUMA:   false,
	}, nil)

	require.NoError(t, e.Start(context.Background()))
	require.Len(t, e.Workers, 2)

	require.NoError(t, e.Shutdown())
}

func TestEngineWorkersExecuteSubmittedTasks(t *testing.T) {
	e := New(Config{
		WorkerCount: 1,
		EpochTick:   5 * time.Millisecond,
		WakeupTick:  5 * time.Millisecond,
		PinToNUMA:   false,
	}, nil)
	require.NoError(t, e.Start(context.Background()))
	defer e.Shutdown()

	w := e.Workers[0]
	task := worker.NewTask(func(got *worker.Worker) (any, error) {
		return got.ID, nil
	})
	sess, ok := session.TryImpersonate(w, task)
	require.True(t, ok)

	result, err := sess.Wait(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, uint16(0), result)
}

func TestEngineShutdownBeforeStartIsNoop(t *testing.T) {
	e := New(Config{}, nil)
	require.NoError(t, e.Shutdown())
}
