package electionintegrationtests

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	electionmetrics "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/metrics"
	electionqueue "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueService_RunsPeriodicSweep(t *testing.T) {
	require.NoError(t, testEnv.Reset(testEnv.Ctx))
	ctx, cancel := context.WithTimeout(testEnv.Ctx, 2*time.Minute)
	defer cancel()

	queue, err := electionqueue.NewService(ctx, testEnv.DB, testEnv.Logger, testEnv.Config.Postgres.DSN, electionmetrics.NewNoop(), electionqueue.Options{})
	require.NoError(t, err)
	require.NoError(t, queue.Start(ctx))
	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		_ = queue.Stop(stopCtx)
	})

	var runs atomic.Int32
	ran := make(chan struct{}, 1)
	handle := queue.Every(ctx, "integration_sweep", time.Second, func(context.Context) {
		runs.Add(1)
		select {
		case ran <- struct{}{}:
		default:
		}
	})

	// River only enqueues periodic jobs once this node is elected leader.
	select {
	case <-ran:
	case <-ctx.Done():
		t.Fatal("periodic sweep never ran")
	}

	require.Eventually(t, func() bool {
		jobs, err := queue.RecentJobs(ctx, 10)
		if err != nil || len(jobs) == 0 {
			return false
		}
		return jobs[0].Task == "integration_sweep"
	}, 30*time.Second, 200*time.Millisecond)

	handle.Cancel()
	select {
	case <-handle.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("handle did not finish after cancel")
	}

	after := runs.Load()
	time.Sleep(3 * time.Second)
	assert.LessOrEqual(t, runs.Load(), after+1, "cancelled sweep kept running")
}
