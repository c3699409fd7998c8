package electionqueue

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sweepJob(task string) *river.Job[SweepJob] {
	return &river.Job[SweepJob]{
		JobRow: &rivertype.JobRow{ID: 1, Attempt: 1, Kind: SweepJob{}.Kind()},
		Args:   SweepJob{Task: task},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweepJob_Kind(t *testing.T) {
	assert.Equal(t, "election_sweep", SweepJob{}.Kind())
}

func TestSweepWorker_Work(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		register   bool
		cancelReg  bool
		wantRuns   int32
		wantCancel bool
	}{
		{name: "runs registered task", register: true, wantRuns: 1},
		{name: "unknown task cancels job", wantCancel: true},
		{name: "cancelled schedule skips run", register: true, cancelReg: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewSweepWorker(discardLogger(), 0)
			var runs atomic.Int32

			regCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			if tt.register {
				w.Register(regCtx, "auto_close", func(context.Context) { runs.Add(1) })
			}
			if tt.cancelReg {
				cancel()
			}

			err := w.Work(ctx, sweepJob("auto_close"))
			if tt.wantCancel {
				assert.ErrorContains(t, err, "no task registered")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantRuns, runs.Load())
		})
	}
}

func TestSweepWorker_CancelStopsRunningTask(t *testing.T) {
	w := NewSweepWorker(discardLogger(), time.Minute)
	regCtx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	w.Register(regCtx, "purge", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})

	done := make(chan error, 1)
	go func() { done <- w.Work(context.Background(), sweepJob("purge")) }()

	<-started
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not cancelled with its schedule")
	}
}

func TestSweepWorker_UnregisterAndTimeout(t *testing.T) {
	w := NewSweepWorker(nil, 0)
	assert.Equal(t, DefaultJobTimeout, w.Timeout(sweepJob("x")))

	w.Register(context.Background(), "x", func(context.Context) {})
	w.Unregister("x")
	_, ok := w.lookup("x")
	assert.False(t, ok)
}
