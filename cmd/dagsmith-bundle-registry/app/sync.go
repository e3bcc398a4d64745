package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dagsmith/bundle-registry-server/internal/bundles"
	"github.com/dagsmith/bundle-registry-server/internal/config"
	"github.com/dagsmith/bundle-registry-server/internal/db"
	"github.com/dagsmith/bundle-registry-server/internal/logger"
	"github.com/dagsmith/bundle-registry-server/internal/state"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile bundle records with the configured bundles",
	Long: `Reconcile the persisted bundle records with the currently configured
bundles: new names are registered active, reappearing names are re-activated,
and names no longer configured are deactivated. Records are never deleted.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := syncCmd.MarkFlagRequired("config"); err != nil {
		logger.Fatalf("Failed to mark config flag as required: %v", err)
	}
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Constructing the manager validates every configured entry before any
	// record is touched.
	manager, err := bundles.NewManager(cfg.BundleBackends, cfg)
	if err != nil {
		return err
	}

	if cfg.Database == nil {
		return fmt.Errorf("database configuration is required")
	}
	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	stateService := state.NewDBService(pool)
	if err := stateService.Reconcile(ctx, manager.Names()); err != nil {
		return fmt.Errorf("failed to reconcile bundle records: %w", err)
	}

	records, err := stateService.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to list bundle records: %w", err)
	}
	for _, rec := range records {
		logger.Infof("Bundle %s: active=%t", rec.Name, rec.Active)
	}

	return nil
}
