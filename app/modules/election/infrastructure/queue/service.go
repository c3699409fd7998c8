package electionqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	electionmetrics "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/metrics"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/observability/attr"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/scheduler"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/uptrace/bun"
)

// Metrics is the subset of the election metrics the queue reports to.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// QueueService is a River-backed scheduler for the election sweeps. Periodic
// jobs only run on the elected River leader, so each sweep fires once per
// interval across all nodes sharing the database.
type QueueService interface {
	scheduler.Scheduler
	// RecentJobs lists the latest sweep jobs, newest first.
	RecentJobs(ctx context.Context, limit int) ([]JobInfo, error)
	// Start starts the queue service
	Start(ctx context.Context) error
	// Stop stops the queue service
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Service schedules and runs sweep jobs with River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	db      *bun.DB
	logger  *slog.Logger
	metrics Metrics
	worker  *SweepWorker
}

// Options tunes the River client.
type Options struct {
	MaxWorkers int
	JobTimeout time.Duration
}

// NewService creates a River client over its own pgx pool (River requires
// pgx, not database/sql).
func NewService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, metrics Metrics, opts Options) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = electionmetrics.NewNoop()
	}
	ctxLogger := logger.With(
		attr.String("operation", "new_election_queue_service"),
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		ctxLogger.Error("Failed to parse DSN for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		ctxLogger.Error("Failed to create pgx pool for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		ctxLogger.Error("Failed to ping database for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 2
	}

	worker := NewSweepWorker(ctxLogger, opts.JobTimeout)
	workers := river.NewWorkers()
	river.AddWorker(workers, worker)

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Logger: ctxLogger,
		Queues: map[string]river.QueueConfig{
			QueueName: {MaxWorkers: opts.MaxWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	metrics.RecordOperationDuration(ctx, "initialize_service", "river", time.Since(start))
	ctxLogger.Info("Election queue service initialized")

	return &Service{
		client:  riverClient,
		pool:    pool,
		db:      bunDB,
		logger:  ctxLogger,
		metrics: metrics,
		worker:  worker,
	}, nil
}

// Start starts the River queue service
func (s *Service) Start(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "start_service", "river")

	s.logger.Info("Starting election queue service")

	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("failed to start River client: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "start_service", "river")
	s.metrics.RecordOperationDuration(ctx, "start_service", "river", time.Since(start))
	return nil
}

// Stop stops the River client and closes its pool.
func (s *Service) Stop(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "stop_service", "river")

	s.logger.Info("Stopping election queue service")

	err := s.client.Stop(ctx)
	s.pool.Close()
	if err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "stop_service", "river")
		return fmt.Errorf("failed to stop River client: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "stop_service", "river")
	s.metrics.RecordOperationDuration(ctx, "stop_service", "river", time.Since(start))
	return nil
}

type periodicHandle struct {
	done chan struct{}
	once sync.Once
	stop func()
}

func (h *periodicHandle) Cancel() {
	h.once.Do(func() {
		h.stop()
		close(h.done)
	})
}

func (h *periodicHandle) Done() <-chan struct{} { return h.done }

// Every registers task as a River periodic job that also runs on start. The
// job is removed when the handle is cancelled or ctx is done.
func (s *Service) Every(ctx context.Context, name string, interval time.Duration, task scheduler.Task) scheduler.Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &periodicHandle{done: make(chan struct{})}

	if interval <= 0 {
		s.logger.Error("Refusing to schedule sweep with non-positive interval",
			attr.String("task", name),
			attr.Duration("interval", interval),
		)
		h.stop = cancel
		h.Cancel()
		return h
	}

	s.worker.Register(ctx, name, task)
	jobHandle := s.client.PeriodicJobs().Add(river.NewPeriodicJob(
		river.PeriodicInterval(interval),
		func() (river.JobArgs, *river.InsertOpts) {
			return SweepJob{Task: name}, &river.InsertOpts{
				Queue:       QueueName,
				MaxAttempts: 1,
				UniqueOpts: river.UniqueOpts{
					ByArgs:   true,
					ByPeriod: interval,
				},
			}
		},
		&river.PeriodicJobOpts{RunOnStart: true},
	))

	h.stop = func() {
		cancel()
		s.client.PeriodicJobs().Remove(jobHandle)
		s.worker.Unregister(name)
		s.logger.Info("Periodic sweep removed", attr.String("task", name))
	}
	context.AfterFunc(ctx, h.Cancel)

	s.logger.Info("Scheduled periodic sweep",
		attr.String("task", name),
		attr.Duration("interval", interval),
	)
	return h
}

// RecentJobs returns the latest sweep jobs from River's job table.
func (s *Service) RecentJobs(ctx context.Context, limit int) ([]JobInfo, error) {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "recent_jobs", "river")

	if limit <= 0 {
		limit = 20
	}

	type riverJobRow struct {
		ID          int64      `bun:"id"`
		State       string     `bun:"state"`
		Task        string     `bun:"task"`
		ScheduledAt *time.Time `bun:"scheduled_at"`
		Attempt     int16      `bun:"attempt"`
	}

	var rows []riverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "state", "scheduled_at", "attempt").
		ColumnExpr("args->>'task' AS task").
		Where("kind = ?", SweepJob{}.Kind()).
		Order("id DESC").
		Limit(limit).
		Scan(ctx, &rows)
	if err != nil {
		s.logger.Error("Failed to query sweep jobs", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "recent_jobs", "river")
		return nil, fmt.Errorf("failed to query sweep jobs: %w", err)
	}

	jobs := make([]JobInfo, len(rows))
	for i, row := range rows {
		scheduledAt := ""
		if row.ScheduledAt != nil {
			scheduledAt = row.ScheduledAt.Format(time.RFC3339)
		}
		jobs[i] = JobInfo{
			ID:          row.ID,
			Task:        row.Task,
			State:       row.State,
			ScheduledAt: scheduledAt,
			Attempt:     int(row.Attempt),
		}
	}

	s.metrics.RecordOperationSuccess(ctx, "recent_jobs", "river")
	s.metrics.RecordOperationDuration(ctx, "recent_jobs", "river", time.Since(start))
	return jobs, nil
}
