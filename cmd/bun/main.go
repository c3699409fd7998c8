package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	authdomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/auth/domain"
	authjwt "github.com/MCCitiesNetwork/Elections-sub001/app/modules/auth/infrastructure/jwt"
	"github.com/MCCitiesNetwork/Elections-sub001/config"
	"github.com/MCCitiesNetwork/Elections-sub001/db/bundb"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// flag.Parse consumed -config; hand the rest to the CLI.
	args := append([]string{os.Args[0]}, flag.Args()...)
	if err := newApp(cfg).Run(args); err != nil {
		log.Fatal(err)
	}
}

func newApp(cfg *config.Config) *cli.App {
	var dbService *bundb.DBService
	connect := func(c *cli.Context) error {
		if cfg.Storage.Driver != config.StoragePostgres {
			return fmt.Errorf("%s needs postgres storage, got %q", c.Command.Name, cfg.Storage.Driver)
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
		svc, err := bundb.NewBunDBService(c.Context, cfg.Postgres, logger)
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		dbService = svc
		return nil
	}
	disconnect := func(*cli.Context) error {
		if dbService == nil {
			return nil
		}
		return dbService.Close()
	}
	migrator := func() *migrate.Migrator { return bundb.NewMigrator(dbService.GetDB()) }

	migrateCmd := newDBCommand(migrator)
	migrateCmd.Before, migrateCmd.After = connect, disconnect

	return &cli.App{
		Name: "bun",
		Commands: []*cli.Command{
			migrateCmd,
			newRiverCommand(cfg),
			newTokenCommand(cfg.JWT),
		},
	}
}

func newDBCommand(migrator func() *migrate.Migrator) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "election schema migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					return migrator().Init(c.Context)
				},
			},
			{
				Name:  "migrate",
				Usage: "migrate database",
				Action: func(c *cli.Context) error {
					group, err := migrator().Migrate(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("No new migrations to run")
					} else {
						fmt.Printf("Migrated to %s\n", group)
					}
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group",
				Action: func(c *cli.Context) error {
					group, err := migrator().Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("No groups to roll back")
					} else {
						fmt.Printf("Rolled back %s\n", group)
					}
					return nil
				},
			},
			{
				Name:  "create_go",
				Usage: "create Go migration",
				Action: func(c *cli.Context) error {
					name := strings.Join(c.Args().Slice(), "_")
					if name == "" {
						return fmt.Errorf("migration name required")
					}
					mf, err := migrator().CreateGoMigration(c.Context, name)
					if err != nil {
						return err
					}
					fmt.Printf("Created migration %s (%s)\n", mf.Name, mf.Path)
					return nil
				},
			},
			{
				Name:  "create_sql",
				Usage: "create up and down SQL migrations",
				Action: func(c *cli.Context) error {
					name := strings.Join(c.Args().Slice(), "_")
					if name == "" {
						return fmt.Errorf("migration name required")
					}
					files, err := migrator().CreateSQLMigrations(c.Context, name)
					if err != nil {
						return err
					}
					for _, mf := range files {
						fmt.Printf("Created migration %s (%s)\n", mf.Name, mf.Path)
					}
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: func(c *cli.Context) error {
					ms, err := migrator().MigrationsWithStatus(c.Context)
					if err != nil {
						return err
					}
					fmt.Printf("Migrations: %s\n", ms)
					fmt.Printf("Applied: %s\n", ms.Applied())
					fmt.Printf("Unapplied: %s\n", ms.Unapplied())
					return nil
				},
			},
		},
	}
}

func newRiverCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "river",
		Usage: "apply the River queue schema used by the river sweep scheduler",
		Action: func(c *cli.Context) error {
			if cfg.Storage.Driver != config.StoragePostgres {
				return fmt.Errorf("river needs postgres storage, got %q", cfg.Storage.Driver)
			}
			res, err := bundb.MigrateRiver(c.Context, cfg.Postgres.DSN)
			if err != nil {
				return err
			}
			if len(res.Versions) == 0 {
				fmt.Println("River schema is up to date")
				return nil
			}
			for _, v := range res.Versions {
				fmt.Printf("Applied River migration %03d (%s)\n", v.Version, v.Duration)
			}
			return nil
		},
	}
}

func newTokenCommand(jwtCfg config.JWTConfig) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue a signed bearer token for the elections HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "subject", Usage: "operator recorded in the token and in privileged export logs", Required: true},
			&cli.StringFlag{Name: "role", Value: string(authdomain.RoleAdmin), Usage: "viewer or admin"},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime, defaults to jwt.default_ttl"},
		},
		Action: func(c *cli.Context) error {
			token, err := issueToken(jwtCfg, c.String("subject"), authdomain.Role(c.String("role")), c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}

func issueToken(jwtCfg config.JWTConfig, subject string, role authdomain.Role, ttl time.Duration) (string, error) {
	if jwtCfg.Secret == "" {
		return "", errors.New("jwt.secret is not configured")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("subject must not be blank")
	}
	if ttl < 0 {
		return "", errors.New("ttl must not be negative")
	}
	return authjwt.NewProvider(jwtCfg.Secret, jwtCfg.DefaultTTL).GenerateToken(subject, role, ttl)
}
