package electionservice

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(workers int) *laneExecutor {
	return newLaneExecutor(workers, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLaneExecutorPreservesOrderPerKey(t *testing.T) {
	x := newTestExecutor(4)

	var (
		mu  sync.Mutex
		got = map[int64][]int{}
	)
	for i := range 60 {
		key := int64(i % 3)
		require.NoError(t, x.Submit(key, func() {
			mu.Lock()
			got[key] = append(got[key], i)
			mu.Unlock()
		}))
	}
	require.NoError(t, x.Close(context.Background()))

	total := 0
	for key, seq := range got {
		total += len(seq)
		for i := 1; i < len(seq); i++ {
			assert.Less(t, seq[i-1], seq[i], "lane %d ran out of order", key)
		}
	}
	assert.Equal(t, 60, total)
}

func TestLaneExecutorSerializesKey(t *testing.T) {
	x := newTestExecutor(8)

	var running, peak atomic.Int32
	for range 20 {
		require.NoError(t, x.Submit(7, func() {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			running.Add(-1)
		}))
	}
	require.NoError(t, x.Close(context.Background()))
	assert.Equal(t, int32(1), peak.Load())
}

func TestLaneExecutorRunsKeysConcurrently(t *testing.T) {
	x := newTestExecutor(2)

	// Each task waits for the other; this only finishes if both lanes run at once.
	a, b := make(chan struct{}), make(chan struct{})
	require.NoError(t, x.Submit(1, func() { close(a); <-b }))
	require.NoError(t, x.Submit(2, func() { close(b); <-a }))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, x.Close(ctx))
}

func TestLaneExecutorRecoversPanics(t *testing.T) {
	x := newTestExecutor(1)

	var ran atomic.Bool
	require.NoError(t, x.Submit(1, func() { panic("boom") }))
	require.NoError(t, x.Submit(1, func() { ran.Store(true) }))
	require.NoError(t, x.Close(context.Background()))

	assert.True(t, ran.Load(), "a panicking task does not stall its lane")
}

func TestLaneExecutorRejectsAfterClose(t *testing.T) {
	x := newTestExecutor(1)
	require.NoError(t, x.Close(context.Background()))

	err := x.Submit(1, func() {})
	assert.ErrorIs(t, err, ErrExecutorClosed)
}

func TestLaneExecutorCloseHonorsContext(t *testing.T) {
	x := newTestExecutor(1)
	release := make(chan struct{})
	defer close(release)
	require.NoError(t, x.Submit(1, func() { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, x.Close(ctx), context.DeadlineExceeded)
}
