package electionqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MCCitiesNetwork/Elections-sub001/pkg/observability/attr"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/scheduler"
	"github.com/riverqueue/river"
)

// DefaultJobTimeout bounds one sweep run.
const DefaultJobTimeout = 5 * time.Minute

type registration struct {
	task scheduler.Task
	// ctx is cancelled when the schedule is cancelled.
	ctx context.Context
}

// SweepWorker runs SweepJob rows by dispatching to the task registered under
// the job's name.
type SweepWorker struct {
	river.WorkerDefaults[SweepJob]

	logger  *slog.Logger
	timeout time.Duration

	mu    sync.RWMutex
	tasks map[string]registration
}

// NewSweepWorker creates a worker with no registered tasks.
func NewSweepWorker(logger *slog.Logger, timeout time.Duration) *SweepWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	return &SweepWorker{
		logger:  logger,
		timeout: timeout,
		tasks:   make(map[string]registration),
	}
}

// Register binds task to name, replacing an earlier binding.
func (w *SweepWorker) Register(ctx context.Context, name string, task scheduler.Task) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tasks[name] = registration{task: task, ctx: ctx}
}

// Unregister removes the binding for name.
func (w *SweepWorker) Unregister(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.tasks, name)
}

func (w *SweepWorker) lookup(name string) (registration, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	reg, ok := w.tasks[name]
	return reg, ok
}

// Timeout implements river.Worker.
func (w *SweepWorker) Timeout(*river.Job[SweepJob]) time.Duration {
	return w.timeout
}

// Work implements river.Worker. Jobs for a task that is no longer registered
// on this node are cancelled rather than retried.
func (w *SweepWorker) Work(ctx context.Context, job *river.Job[SweepJob]) error {
	reg, ok := w.lookup(job.Args.Task)
	if !ok {
		w.logger.Warn("No sweep registered for job", attr.String("task", job.Args.Task))
		return river.JobCancel(fmt.Errorf("no task registered for %q", job.Args.Task))
	}
	if reg.ctx.Err() != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(reg.ctx, cancel)
	defer stop()

	start := time.Now()
	reg.task(ctx)
	w.logger.Debug("Sweep job finished",
		attr.String("task", job.Args.Task),
		attr.Duration("duration", time.Since(start)),
	)
	return nil
}
