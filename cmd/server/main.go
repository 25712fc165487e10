// Package main is the entry point for the need2reef GraphQL API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kidtango/need2reefbackend/graph"
	"github.com/kidtango/need2reefbackend/internal/auth"
	"github.com/kidtango/need2reefbackend/internal/config"
	"github.com/kidtango/need2reefbackend/internal/database"
	"github.com/kidtango/need2reefbackend/internal/database/memory"
	"github.com/kidtango/need2reefbackend/internal/logging"
	"github.com/kidtango/need2reefbackend/internal/server"
)

var (
	port    string
	migrate bool
)

var rootCmd = &cobra.Command{
	Use:   "need2reef-server",
	Short: "Serve the need2reef GraphQL API",
	Long: `Serves the need2reef GraphQL API at /graphql.

Configuration is read from the environment (PORT, STORE_DRIVER, DATABASE_URL,
JWT_SECRET, TOKEN_TTL, FRONTEND_URL, PLAYGROUND, LOG_LEVEL, ...).`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cmd.Flags().Changed("port") {
			cfg.Port = port
		}
		if cmd.Flags().Changed("migrate") {
			cfg.RunMigrations = migrate
		}
		return serve(cmd.Context(), cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger := logging.New(cfg.LogLevel, cfg.LogFormat)
		db, err := database.NewClient(cmd.Context(), cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		return db.Migrate(cfg.MigrationsPath)
	},
}

func init() {
	rootCmd.Flags().StringVar(&port, "port", "4000", "Port to listen on (overrides PORT)")
	rootCmd.Flags().BoolVar(&migrate, "migrate", false, "Apply migrations before serving (overrides RUN_MIGRATIONS)")
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	resolver := graph.NewResolver(store, tokens, auth.NewHasher(cfg.BcryptCost), logger)
	schema, err := graph.NewSchema(resolver)
	if err != nil {
		return fmt.Errorf("failed to build schema: %w", err)
	}

	router := server.NewRouter(graph.NewHandler(&schema), tokens, server.Options{
		FrontendURL: cfg.FrontendURL,
		Playground:  cfg.Playground,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"port":  cfg.Port,
			"store": cfg.StoreDriver,
		}).Info("need2reef API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// openStore returns the configured store and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (database.Store, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn("using the in-memory store; data is lost on restart")
		return memory.New(), func() {}, nil
	}

	db, err := database.NewClient(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(cfg.MigrationsPath); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return db, func() { db.Close() }, nil
}
