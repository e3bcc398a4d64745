package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dagsmith/bundle-registry-server/internal/api"
	"github.com/dagsmith/bundle-registry-server/internal/bundles"
	"github.com/dagsmith/bundle-registry-server/internal/config"
	"github.com/dagsmith/bundle-registry-server/internal/db"
	"github.com/dagsmith/bundle-registry-server/internal/logger"
	"github.com/dagsmith/bundle-registry-server/internal/state"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bundle registry API server",
	Long: `Start the bundle registry API server.

The server requires a configuration file (--config) that specifies the
DAGs folder, the bundle backends setting, and the database connection.
Bundle records are reconciled once at startup; periodic refresh is left to
an external loop.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second
	serverRequestTimeout   = 10 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 15 * time.Second // Must be > serverRequestTimeout to let middleware handle timeout
	serverIdleTimeout      = 60 * time.Second
)

func init() {
	serveCmd.Flags().String("address", ":8080", "Address to listen on")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address"))
	if err != nil {
		logger.Fatalf("Failed to bind address flag: %v", err)
	}
	err = viper.BindPFlag("config", serveCmd.Flags().Lookup("config"))
	if err != nil {
		logger.Fatalf("Failed to bind config flag: %v", err)
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		logger.Fatalf("Failed to mark config flag as required: %v", err)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	address := viper.GetString("address")

	logger.Infof("Starting bundle registry server on %s", address)

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Infof("Loaded configuration from %s (dags folder: %s)", configPath, cfg.DagsFolder)

	// Fail fast: an invalid bundle entry means no server.
	manager, err := bundles.NewManager(cfg.BundleBackends, cfg)
	if err != nil {
		return err
	}
	logger.Infof("Resolved %d configured bundle(s)", len(manager.Names()))

	if cfg.Database == nil {
		return fmt.Errorf("database configuration is required")
	}
	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	stateService := state.NewDBService(pool)

	// Bring the persisted records in line with configuration before
	// exposing them.
	if err := stateService.Reconcile(ctx, manager.Names()); err != nil {
		return fmt.Errorf("failed to reconcile bundle records: %w", err)
	}

	router := api.NewServer(manager, stateService,
		api.WithMiddlewares(
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(serverRequestTimeout),
			api.LoggingMiddleware,
		),
	)

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	go func() {
		logger.Infof("Server listening on %s", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	logger.Info("Server shutdown complete")
	return nil
}
