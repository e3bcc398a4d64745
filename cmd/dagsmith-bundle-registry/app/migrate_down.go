package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/dagsmith/bundle-registry-server/database"
	"github.com/dagsmith/bundle-registry-server/internal/logger"
)

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back database migrations",
	Long: `Roll back the database migrations. This is destructive: the bundle
records table is dropped, including the soft-deleted historical rows.`,
	RunE: runMigrateDown,
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	connString, cfg, err := migrationConnString(cmd)
	if err != nil {
		return err
	}

	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}

	if !yes {
		logger.Warnf("About to roll back migrations on database: %s@%s:%d/%s (this drops the bundle records table)",
			cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
		if !confirm() {
			logger.Infof("Migration rollback cancelled by user")
			return nil
		}
	}

	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(ctx); closeErr != nil {
			logger.Errorf("Error closing database connection: %v", closeErr)
		}
	}()

	logger.Infof("Rolling back database migrations...")
	if err := database.MigrateDown(ctx, conn); err != nil {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	logger.Infof("Migrations rolled back successfully")
	return nil
}
