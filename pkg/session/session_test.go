package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"silotxn/pkg/epoch"
	"silotxn/pkg/occ"
	"silotxn/pkg/worker"
)

func newTestWorker(id uint16) *worker.Worker {
	clock := epoch.NewClockAt(1)
	txn := occ.New(clock, id, nil)
	return worker.New(id, 0, txn, false)
}

func TestTryImpersonateBindsWorker(t *testing.T) {
	w := newTestWorker(0)
	task := worker.NewTask(func(*worker.Worker) (any, error) { return 42, nil })

	sess, ok := TryImpersonate(w, task)
	require.True(t, ok)
	require.Same(t, w, sess.Worker())
}

func TestTryImpersonateFailsWhenWorkerBusy(t *testing.T) {
	w := newTestWorker(0)
	first := worker.NewTask(func(*worker.Worker) (any, error) { return nil, nil })
	_, ok := TryImpersonate(w, first)
	require.True(t, ok)

	second := worker.NewTask(func(*worker.Worker) (any, error) { return nil, nil })
	sess, ok := TryImpersonate(w, second)
	require.False(t, ok)
	require.Nil(t, sess)
}

// TestExactlyOneSessionWinsConcurrentImpersonation is session's view of the
// worker-handoff invariant: only one of many racing submitters to the same
// idle worker gets a bound session back.
func TestExactlyOneSessionWinsConcurrentImpersonation(t *testing.T) {
	w := newTestWorker(0)

	const submitters = 16
	var wins int32
	var wg sync.WaitGroup
	wg.Add(submitters)
	for i := 0; i < submitters; i++ {
		go func() {
			defer wg.Done()
			task := worker.NewTask(func(*worker.Worker) (any, error) { return nil, nil })
			if _, ok := TryImpersonate(w, task); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), wins)
}

func TestSessionWaitReturnsWorkerResult(t *testing.T) {
	w := newTestWorker(0)
	task := worker.NewTask(func(*worker.Worker) (any, error) { return "done", nil })
	sess, ok := TryImpersonate(w, task)
	require.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initBarrier := make(chan struct{})
	close(initBarrier)
	go w.Run(ctx, initBarrier, 10*time.Millisecond)

	result, err := sess.Wait(ctx, 10*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "done", result)

	w.Stop()
}
