package bundb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	electiondb "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/repositories"
	"github.com/MCCitiesNetwork/Elections-sub001/config"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/observability/attr"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// DBService holds the shared bun connection and the repositories built on it.
type DBService struct {
	ElectionDB electiondb.Repository
	db         *bun.DB
}

// GetDB returns the underlying database connection pool.
func (dbService *DBService) GetDB() *bun.DB {
	return dbService.db
}

// NewBunDBService connects to Postgres and builds the repositories.
func NewBunDBService(ctx context.Context, cfg config.PostgresConfig, logger *slog.Logger) (*DBService, error) {
	sqldb, err := pgConn(ctx, cfg)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to connect to PostgreSQL", attr.Error(err))
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := bunDB(sqldb)
	logger.InfoContext(ctx, "Connected to PostgreSQL")

	return &DBService{
		ElectionDB: electiondb.NewRepository(db),
		db:         db,
	}, nil
}

// Close closes the connection pool.
func (dbService *DBService) Close() error {
	return dbService.db.Close()
}

// bunDB returns a new bun.DB for given sql.DB connection pool.
func bunDB(sqldb *sql.DB) *bun.DB {
	return bun.NewDB(sqldb, pgdialect.New())
}

func pgConn(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
	if cfg.ConnectTimeout > 0 {
		opts = append(opts, pgdriver.WithDialTimeout(cfg.ConnectTimeout))
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(opts...))

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := sqldb.PingContext(pingCtx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return sqldb, nil
}
