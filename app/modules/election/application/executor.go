package electionservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MCCitiesNetwork/Elections-sub001/pkg/observability/attr"
	"golang.org/x/sync/semaphore"
)

// ErrExecutorClosed is returned for work submitted after shutdown began.
var ErrExecutorClosed = errors.New("election executor is closed")

// laneExecutor runs tasks on background goroutines. Tasks sharing a key run
// one at a time in submission order; different keys run concurrently, bounded
// by the worker limit. Submit never blocks.
type laneExecutor struct {
	logger *slog.Logger
	sem    *semaphore.Weighted

	mu     sync.Mutex
	lanes  map[int64]*lane
	closed bool
	wg     sync.WaitGroup
}

type lane struct {
	tasks []func()
}

func newLaneExecutor(workers int, logger *slog.Logger) *laneExecutor {
	if workers < 1 {
		workers = 1
	}
	return &laneExecutor{
		logger: logger,
		sem:    semaphore.NewWeighted(int64(workers)),
		lanes:  make(map[int64]*lane),
	}
}

// Submit queues task on the lane for key.
func (x *laneExecutor) Submit(key int64, task func()) error {
	x.mu.Lock()
	if x.closed {
		x.mu.Unlock()
		return ErrExecutorClosed
	}
	l, running := x.lanes[key]
	if !running {
		l = &lane{}
		x.lanes[key] = l
	}
	l.tasks = append(l.tasks, task)
	x.wg.Add(1)
	x.mu.Unlock()

	if !running {
		go x.drain(key, l)
	}
	return nil
}

func (x *laneExecutor) drain(key int64, l *lane) {
	for {
		x.mu.Lock()
		if len(l.tasks) == 0 {
			delete(x.lanes, key)
			x.mu.Unlock()
			return
		}
		task := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		x.mu.Unlock()

		// Acquire only fails on a cancelled context, and this one never is.
		_ = x.sem.Acquire(context.Background(), 1)
		x.run(key, task)
		x.sem.Release(1)
		x.wg.Done()
	}
}

func (x *laneExecutor) run(key int64, task func()) {
	defer func() {
		if r := recover(); r != nil {
			x.logger.Error("Recovered panic in election task",
				attr.Int64("lane", key),
				attr.Error(fmt.Errorf("panic: %v", r)),
			)
		}
	}()
	task()
}

// Close rejects new work and waits for queued tasks or ctx.
func (x *laneExecutor) Close(ctx context.Context) error {
	x.mu.Lock()
	x.closed = true
	x.mu.Unlock()

	done := make(chan struct{})
	go func() {
		x.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
