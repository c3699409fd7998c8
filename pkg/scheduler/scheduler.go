// Package scheduler runs periodic background tasks that can be cancelled,
// independent of any particular host loop.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MCCitiesNetwork/Elections-sub001/pkg/observability/attr"
)

// Task is one run of a periodic job. The context is cancelled when the
// schedule is cancelled.
type Task func(ctx context.Context)

// Handle controls a scheduled task.
type Handle interface {
	// Cancel stops future runs and cancels the context of a run in progress.
	Cancel()
	// Done is closed once the schedule has fully stopped.
	Done() <-chan struct{}
}

// Scheduler starts periodic tasks.
type Scheduler interface {
	Every(ctx context.Context, name string, interval time.Duration, task Task) Handle
}

// Ticker is an in-process Scheduler backed by time.Ticker. Runs of the same
// task never overlap: a tick that arrives while the task is still running is
// dropped.
type Ticker struct {
	logger     *slog.Logger
	runOnStart bool
}

// TickerOption configures a Ticker.
type TickerOption func(*Ticker)

// WithRunOnStart makes every task run once immediately after scheduling.
func WithRunOnStart() TickerOption {
	return func(t *Ticker) { t.runOnStart = true }
}

// NewTicker creates a ticker scheduler.
func NewTicker(logger *slog.Logger, opts ...TickerOption) *Ticker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Ticker{logger: logger}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (h *handle) Cancel() {
	h.once.Do(h.cancel)
}

func (h *handle) Done() <-chan struct{} {
	return h.done
}

// Every runs task every interval until ctx is done or the handle is cancelled.
// A non-positive interval is rejected by running nothing.
func (t *Ticker) Every(ctx context.Context, name string, interval time.Duration, task Task) Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &handle{cancel: cancel, done: make(chan struct{})}

	if interval <= 0 {
		t.logger.Error("Refusing to schedule task with non-positive interval",
			attr.String("task", name),
			attr.Duration("interval", interval),
		)
		cancel()
		close(h.done)
		return h
	}

	go func() {
		defer close(h.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		t.logger.Info("Scheduled periodic task",
			attr.String("task", name),
			attr.Duration("interval", interval),
		)

		if t.runOnStart {
			t.run(ctx, name, task)
		}
		for {
			select {
			case <-ctx.Done():
				t.logger.Info("Periodic task stopped", attr.String("task", name))
				return
			case <-ticker.C:
				t.run(ctx, name, task)
			}
		}
	}()

	return h
}

func (t *Ticker) run(ctx context.Context, name string, task Task) {
	if ctx.Err() != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.logger.ErrorContext(ctx, "Periodic task panicked",
				attr.String("task", name),
				attr.Error(fmt.Errorf("panic: %v", r)),
			)
		}
	}()
	task(ctx)
}
