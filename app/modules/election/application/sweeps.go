package electionservice

import (
	"context"
	"log/slog"
	"time"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	electionutil "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/utils"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/future"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/observability/attr"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/scheduler"
)

const (
	SweepAutoClose = "auto_close"
	SweepPurge     = "deleted_purge"

	DefaultAutoCloseInterval = 60 * time.Second
	MinAutoCloseInterval     = time.Second
	DefaultPurgeInterval     = time.Hour
	MinPurgeInterval         = time.Minute
	DefaultDeletedRetention  = 30 * 24 * time.Hour
)

// SweepConfig controls the background sweeps. Zero intervals take the
// defaults; a zero retention purges deleted elections on the next pass.
type SweepConfig struct {
	AutoCloseInterval time.Duration
	PurgeInterval     time.Duration
	Retention         time.Duration
}

// Normalized applies defaults and the minimum intervals.
func (c SweepConfig) Normalized() SweepConfig {
	if c.AutoCloseInterval <= 0 {
		c.AutoCloseInterval = DefaultAutoCloseInterval
	}
	c.AutoCloseInterval = max(c.AutoCloseInterval, MinAutoCloseInterval)
	if c.PurgeInterval <= 0 {
		c.PurgeInterval = DefaultPurgeInterval
	}
	c.PurgeInterval = max(c.PurgeInterval, MinPurgeInterval)
	c.Retention = max(c.Retention, 0)
	return c
}

// SweepReport summarizes one sweep pass.
type SweepReport struct {
	Examined int
	Acted    int
	Failed   int
}

// Sweeper runs the time-driven passes through the service, so sweeps take
// the same locks and audit paths as interactive callers.
type Sweeper struct {
	svc    *ElectionService
	clock  electionutil.Clock
	logger *slog.Logger
	cfg    SweepConfig
}

// NewSweeper creates a sweeper over svc.
func NewSweeper(svc *ElectionService, cfg SweepConfig) *Sweeper {
	return &Sweeper{
		svc:    svc,
		clock:  svc.clock,
		logger: svc.logger.With(attr.String("component", "election_sweeper")),
		cfg:    cfg.Normalized(),
	}
}

// Config returns the normalized sweep configuration.
func (w *Sweeper) Config() SweepConfig { return w.cfg }

// Start schedules both sweeps. Cancel the returned handles, or ctx, to stop
// them.
func (w *Sweeper) Start(ctx context.Context, sched scheduler.Scheduler) []scheduler.Handle {
	return []scheduler.Handle{
		sched.Every(ctx, SweepAutoClose, w.cfg.AutoCloseInterval, func(ctx context.Context) {
			w.AutoCloseOnce(ctx, w.clock.Now())
		}),
		sched.Every(ctx, SweepPurge, w.cfg.PurgeInterval, func(ctx context.Context) {
			w.PurgeOnce(ctx, w.clock.Now())
		}),
	}
}

// AutoCloseOnce closes every OPEN election whose duration has elapsed at now.
func (w *Sweeper) AutoCloseOnce(ctx context.Context, now time.Time) SweepReport {
	var pending []sweepItem[bool]
	report := SweepReport{}
	for _, snap := range w.svc.Snapshots() {
		if snap.Status() != electiondomain.StatusOpen {
			continue
		}
		if _, ok := snap.Duration(); !ok {
			continue
		}
		report.Examined++
		closesAt, ok := snap.ClosesAt()
		if !ok || now.Before(closesAt) {
			continue
		}
		pending = append(pending, sweepItem[bool]{id: snap.ID(), f: w.svc.autoCloseElection(ctx, snap.ID(), now)})
	}
	return w.finish(ctx, SweepAutoClose, report, pending)
}

// PurgeOnce hard-deletes every DELETED election whose retention has elapsed.
func (w *Sweeper) PurgeOnce(ctx context.Context, now time.Time) SweepReport {
	var pending []sweepItem[bool]
	report := SweepReport{}
	for _, snap := range w.svc.Snapshots() {
		if snap.Status() != electiondomain.StatusDeleted {
			continue
		}
		report.Examined++
		if deletedAt, ok := snap.DeletedAt(); ok && now.Sub(deletedAt) < w.cfg.Retention {
			continue
		}
		pending = append(pending, sweepItem[bool]{id: snap.ID(), f: w.svc.purgeElection(ctx, snap.ID(), now, w.cfg.Retention)})
	}
	return w.finish(ctx, SweepPurge, report, pending)
}

type sweepItem[T any] struct {
	id electiondomain.ElectionID
	f  *future.Future[T]
}

// finish waits for every queued election. A failure is logged and counted;
// it never stops the rest of the pass.
func (w *Sweeper) finish(ctx context.Context, sweep string, report SweepReport, pending []sweepItem[bool]) SweepReport {
	for _, item := range pending {
		acted, err := item.f.Await(ctx)
		if err != nil {
			report.Failed++
			w.logger.WarnContext(ctx, "Sweep failed for election",
				attr.String("sweep", sweep),
				attr.ElectionID(int64(item.id)),
				attr.Error(err),
			)
			continue
		}
		if acted {
			report.Acted++
		}
	}

	if w.svc.metrics != nil {
		w.svc.metrics.RecordSweepRun(ctx, sweep, report.Examined, report.Acted, report.Failed)
	}
	if report.Acted > 0 || report.Failed > 0 {
		w.logger.InfoContext(ctx, "Sweep pass finished",
			attr.String("sweep", sweep),
			attr.Int("examined", report.Examined),
			attr.Int("acted", report.Acted),
			attr.Int("failed", report.Failed),
		)
	}
	return report
}
