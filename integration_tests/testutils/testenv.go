package testutils

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/MCCitiesNetwork/Elections-sub001/config"
	"github.com/MCCitiesNetwork/Elections-sub001/db/bundb"
	"github.com/MCCitiesNetwork/Elections-sub001/integration_tests/containers"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
)

// electionTables lists every election table, children first.
var electionTables = []string{
	"election_ballot_selections",
	"election_ballots",
	"election_voters",
	"election_polls",
	"election_candidate_head_items",
	"election_candidates",
	"election_requirement_permissions",
	"election_requirements",
	"election_status_changes",
	"elections",
}

// TestEnvironment holds all resources needed for integration testing
type TestEnvironment struct {
	Ctx           context.Context
	CancelContext context.CancelFunc
	PgContainer   *postgres.PostgresContainer
	NatsContainer testcontainers.Container
	DBService     *bundb.DBService
	DB            *bun.DB
	NatsConn      *nats.Conn
	JetStream     jetstream.JetStream
	Config        *config.Config
	Logger        *slog.Logger
}

// NewTestEnvironment starts Postgres and NATS, applies the election and River
// schemas and connects to both.
func NewTestEnvironment(ctx context.Context) (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(ctx)
	env := &TestEnvironment{
		Ctx:           ctx,
		CancelContext: cancel,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if err := env.setup(ctx); err != nil {
		env.Cleanup()
		return nil, err
	}
	return env, nil
}

func (env *TestEnvironment) setup(ctx context.Context) error {
	pgContainer, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup postgres container: %w", err)
	}
	env.PgContainer = pgContainer

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup nats container: %w", err)
	}
	env.NatsContainer = natsContainer

	env.Config = &config.Config{
		Postgres: config.PostgresConfig{DSN: dsn},
		Storage:  config.StorageConfig{Driver: config.StoragePostgres},
		NATS:     config.NATSConfig{URL: natsURL},
		JWT:      config.JWTConfig{Secret: "integration-secret"},
	}
	env.Config.Normalize()

	env.DBService, err = bundb.NewBunDBService(ctx, env.Config.Postgres, env.Logger)
	if err != nil {
		return err
	}
	env.DB = env.DBService.GetDB()

	if _, err := bundb.MigrateElections(ctx, env.DB); err != nil {
		return err
	}
	if _, err := bundb.MigrateRiver(ctx, dsn); err != nil {
		return err
	}

	env.NatsConn, err = nats.Connect(natsURL, nats.Timeout(10*time.Second))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	env.JetStream, err = jetstream.New(env.NatsConn)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return nil
}

// Reset truncates every election table, restarts their id sequences and
// drops queued River jobs.
func (env *TestEnvironment) Reset(ctx context.Context) error {
	query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(electionTables, ", "))
	if _, err := env.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	if _, err := env.DB.ExecContext(ctx, "DELETE FROM river_job"); err != nil {
		return fmt.Errorf("failed to cleanup river jobs: %w", err)
	}
	return nil
}

// Cleanup tears down all resources created for testing
func (env *TestEnvironment) Cleanup() {
	if env.CancelContext != nil {
		env.CancelContext()
	}
	if env.NatsConn != nil {
		env.NatsConn.Close()
	}
	if env.DBService != nil {
		if err := env.DBService.Close(); err != nil {
			log.Printf("Error closing DB: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if env.NatsContainer != nil {
		if err := env.NatsContainer.Terminate(ctx); err != nil {
			log.Printf("Error terminating NATS container: %v", err)
		}
	}
	if env.PgContainer != nil {
		if err := env.PgContainer.Terminate(ctx); err != nil {
			log.Printf("Error terminating Postgres container: %v", err)
		}
	}
}
