package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/realtoken-portfolio/internal/config"
	"github.com/realtoken-portfolio/internal/logging"
	"github.com/realtoken-portfolio/internal/storage"
)

func newMigrateCmd() *cobra.Command {
	var (
		dbType string
		path   string
	)

	cmd := &cobra.Command{
		Use:       "migrate [up|down|version]",
		Short:     "Run database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}

			cfg, ctx, err := loadConfig()
			if err != nil {
				return err
			}

			switch dbType {
			case "postgres":
				if path == "" {
					path = "migrations/postgres"
				}
				return runPostgresMigrations(ctx, cfg, action, path)
			case "clickhouse":
				if path == "" {
					path = "migrations/clickhouse"
				}
				return runClickHouseMigrations(ctx, cfg, action, path)
			default:
				return fmt.Errorf("unknown database type: %s", dbType)
			}
		},
	}
	cmd.Flags().StringVar(&dbType, "db", "postgres", "Database type: postgres, clickhouse")
	cmd.Flags().StringVar(&path, "path", "", "Migrations directory (default migrations/<db>)")
	return cmd
}

func runPostgresMigrations(ctx context.Context, cfg *config.Config, action, path string) error {
	logger := logging.FromContext(ctx)
	databaseURL := storage.PostgresURL(&cfg.Database.Postgres)

	switch action {
	case "up":
		logger.Info("Running Postgres migrations...")
		if err := storage.RunMigrations(databaseURL, path); err != nil {
			return err
		}
		logger.Info("Postgres migrations completed successfully")

	case "down":
		logger.Info("Rolling back Postgres migration...")
		if err := storage.RollbackMigrations(databaseURL, path); err != nil {
			return err
		}
		logger.Info("Postgres migration rolled back successfully")

	case "version":
		version, dirty, err := storage.MigrationVersion(databaseURL, path)
		if err != nil {
			return err
		}
		logger.Infof("Current Postgres migration version: %d (dirty: %v)", version, dirty)

	default:
		return fmt.Errorf("unknown action: %s", action)
	}

	return nil
}

func runClickHouseMigrations(ctx context.Context, cfg *config.Config, action, path string) error {
	if action != "up" {
		return fmt.Errorf("ClickHouse migrations only support 'up' action")
	}
	if cfg.Database.ClickHouse.Host == "" {
		return fmt.Errorf("CLICKHOUSE_HOST is not set")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("migrations directory not found: %s", path)
	}

	db, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		return fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Error closing ClickHouse connection")
		}
	}()

	return storage.RunClickHouseMigrations(ctx, db, path)
}
