package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MCCitiesNetwork/Elections-sub001/app/eventbus"
	authjwt "github.com/MCCitiesNetwork/Elections-sub001/app/modules/auth/infrastructure/jwt"
	"github.com/MCCitiesNetwork/Elections-sub001/app/modules/election"
	electionmetrics "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/metrics"
	electiondb "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/repositories"
	electionutil "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/utils"
	"github.com/MCCitiesNetwork/Elections-sub001/config"
	"github.com/MCCitiesNetwork/Elections-sub001/db/bundb"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/observability/attr"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

const serviceName = "elections"

// App holds the wired application.
type App struct {
	Config         *config.Config
	Logger         *slog.Logger
	DB             *bundb.DBService
	EventBus       *eventbus.EventBus
	Registry       *prometheus.Registry
	Router         chi.Router
	ElectionModule *election.Module

	server        *http.Server
	metricsServer *http.Server
}

// NewApp wires storage, the event bus, metrics and the election module from
// cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}

	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := electionmetrics.NewPrometheus(app.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	var (
		repo electiondb.Repository
		db   *bun.DB
	)
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		logger.WarnContext(ctx, "Using in-memory storage; elections are lost on restart")
		repo = electiondb.NewMemoryRepository()
	default:
		app.DB, err = bundb.NewBunDBService(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		repo = app.DB.ElectionDB
		db = app.DB.GetDB()
	}

	app.EventBus, err = eventbus.NewEventBus(ctx, logger, eventbus.Options{NATSURL: cfg.NATS.URL})
	if err != nil {
		app.closeStorage()
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsHandler := promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})
	if cfg.Observability.MetricsAddress == "" {
		router.Handle("/metrics", metricsHandler)
	} else {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		app.metricsServer = &http.Server{
			Addr:              cfg.Observability.MetricsAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	app.Router = router

	app.ElectionModule, err = election.NewModule(ctx, cfg, election.Dependencies{
		Repo:       repo,
		DB:         db,
		Logger:     logger,
		Metrics:    metrics,
		Tracer:     otel.Tracer(serviceName),
		Publisher:  app.EventBus,
		Clock:      electionutil.RealClock{},
		JWT:        authjwt.NewProvider(cfg.JWT.Secret, cfg.JWT.DefaultTTL),
		HTTPRouter: router,
	})
	if err != nil {
		_ = app.EventBus.Close()
		app.closeStorage()
		return nil, err
	}

	app.server = &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return app, nil
}

// Run serves HTTP and runs the election module until ctx is done, then shuts
// everything down.
func (app *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.ElectionModule.Run(gctx)
	})
	g.Go(func() error {
		return serve(gctx, app.server, app.Logger)
	})
	if app.metricsServer != nil {
		g.Go(func() error {
			return serve(gctx, app.metricsServer, app.Logger)
		})
	}

	err := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if closeErr := app.Close(shutdownCtx); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	return err
}

// serve runs srv until ctx is done.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", attr.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server %s: %w", srv.Addr, err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return <-errCh
}

// Close stops the module, then the event bus and storage.
func (app *App) Close(ctx context.Context) error {
	var errs []error
	if err := app.ElectionModule.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := app.EventBus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing event bus: %w", err))
	}
	if err := app.closeStorage(); err != nil {
		errs = append(errs, fmt.Errorf("error closing database: %w", err))
	}
	return errors.Join(errs...)
}

func (app *App) closeStorage() error {
	if app.DB == nil {
		return nil
	}
	return app.DB.Close()
}
