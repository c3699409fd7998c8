package election

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	authjwt "github.com/MCCitiesNetwork/Elections-sub001/app/modules/auth/infrastructure/jwt"
	authhandlers "github.com/MCCitiesNetwork/Elections-sub001/app/modules/auth/infrastructure/handlers"
	electionservice "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/application"
	electionmetrics "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/metrics"
	electionqueue "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/queue"
	electiondb "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/repositories"
	electionrouter "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/router"
	electionutil "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/utils"
	"github.com/MCCitiesNetwork/Elections-sub001/config"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/observability/attr"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Dependencies are the collaborators the module is built from.
type Dependencies struct {
	Repo      electiondb.Repository
	DB        *bun.DB // required for the river scheduler
	Logger    *slog.Logger
	Metrics   electionmetrics.ElectionMetrics
	Tracer    trace.Tracer
	Publisher electionservice.EventPublisher
	Clock     electionutil.Clock
	JWT       authjwt.Provider
	// HTTPRouter receives the read-only routes when non-nil.
	HTTPRouter chi.Router
}

// Module owns the election service, its sweeps and its HTTP routes.
type Module struct {
	config     *config.Config
	service    *electionservice.ElectionService
	sweeper    *electionservice.Sweeper
	scheduler  scheduler.Scheduler
	queue      electionqueue.QueueService
	handles    []scheduler.Handle
	cancelFunc context.CancelFunc
	logger     *slog.Logger
}

// NewModule creates the election module.
func NewModule(ctx context.Context, cfg *config.Config, deps Dependencies) (*Module, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Initializing election module")

	service := electionservice.NewElectionService(
		deps.Repo,
		logger,
		deps.Metrics,
		deps.Tracer,
		deps.Publisher,
		deps.Clock,
		electionservice.Options{
			Workers:          cfg.Elections.Workers,
			OperationTimeout: cfg.Postgres.OperationTimeout,
		},
	)

	sweeper := electionservice.NewSweeper(service, electionservice.SweepConfig{
		AutoCloseInterval: cfg.Elections.AutoCloseInterval,
		PurgeInterval:     cfg.Elections.PurgeInterval,
		Retention:         cfg.Elections.Retention(),
	})

	m := &Module{
		config:  cfg,
		service: service,
		sweeper: sweeper,
		logger:  logger,
	}

	switch cfg.Elections.Scheduler {
	case config.SchedulerRiver:
		if deps.DB == nil {
			return nil, errors.New("river scheduler requires a database")
		}
		queue, err := electionqueue.NewService(ctx, deps.DB, logger, cfg.Postgres.DSN, deps.Metrics, electionqueue.Options{})
		if err != nil {
			return nil, fmt.Errorf("failed to create election queue: %w", err)
		}
		m.queue = queue
		m.scheduler = queue
	default:
		m.scheduler = scheduler.NewTicker(logger, scheduler.WithRunOnStart())
	}

	if deps.HTTPRouter != nil {
		limiter := authhandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst)
		electionrouter.Mount(
			deps.HTTPRouter,
			electionrouter.NewHandlers(service, logger, deps.Tracer),
			deps.JWT,
			electionrouter.Options{Limiter: limiter, AllowedOrigins: cfg.HTTP.AllowedOrigins},
		)
	}

	return m, nil
}

// Run warms the snapshot cache, starts the sweeps and blocks until ctx is
// done.
func (m *Module) Run(ctx context.Context) error {
	m.logger.InfoContext(ctx, "Starting election module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if err := m.service.Refresh(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Failed to load elections", attr.Error(err))
		return err
	}
	m.logger.InfoContext(ctx, "Election cache warmed", attr.Int("elections", len(m.service.Snapshots())))

	if m.queue != nil {
		if err := m.queue.Start(ctx); err != nil {
			return err
		}
	}

	m.handles = m.sweeper.Start(ctx, m.scheduler)
	cfg := m.sweeper.Config()
	m.logger.InfoContext(ctx, "Election module started",
		attr.String("scheduler", m.config.Elections.Scheduler),
		attr.Duration("auto_close_interval", cfg.AutoCloseInterval),
		attr.Duration("purge_interval", cfg.PurgeInterval),
		attr.Duration("retention", cfg.Retention),
	)

	<-ctx.Done()
	return nil
}

// Close stops the sweeps and drains the service.
func (m *Module) Close(ctx context.Context) error {
	m.logger.Info("Stopping election module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	for _, h := range m.handles {
		h.Cancel()
		select {
		case <-h.Done():
		case <-ctx.Done():
		}
	}

	var errs []error
	if m.queue != nil {
		if err := m.queue.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := m.service.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("error draining election service: %w", err))
	}

	m.logger.Info("Election module stopped")
	return errors.Join(errs...)
}

// Service returns the election service for use by other modules.
func (m *Module) Service() *electionservice.ElectionService {
	return m.service
}

// Sweeper exposes the sweep passes.
func (m *Module) Sweeper() *electionservice.Sweeper {
	return m.sweeper
}
