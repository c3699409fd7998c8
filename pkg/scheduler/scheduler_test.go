package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTickerRunsUntilCancelled(t *testing.T) {
	var runs atomic.Int32
	h := NewTicker(discardLogger()).Every(context.Background(), "count", 5*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	})

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)

	h.Cancel()
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("schedule did not stop")
	}

	stopped := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load())
}

func TestTickerRunOnStart(t *testing.T) {
	var runs atomic.Int32
	h := NewTicker(discardLogger(), WithRunOnStart()).Every(context.Background(), "start", time.Hour, func(ctx context.Context) {
		runs.Add(1)
	})
	defer h.Cancel()

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)
}

func TestTickerRecoversPanics(t *testing.T) {
	var runs atomic.Int32
	h := NewTicker(discardLogger()).Every(context.Background(), "panics", 5*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
		panic("boom")
	})
	defer h.Cancel()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)
}

func TestTickerParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewTicker(discardLogger()).Every(ctx, "parent", time.Hour, func(ctx context.Context) {})
	cancel()

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("schedule ignored parent cancellation")
	}
}

func TestTickerRejectsNonPositiveInterval(t *testing.T) {
	h := NewTicker(discardLogger()).Every(context.Background(), "bad", 0, func(ctx context.Context) {
		t.Fatal("task must not run")
	})
	<-h.Done()
}
