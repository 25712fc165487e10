// Package main is the entry point for the need2reef Temporal worker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kidtango/need2reefbackend/internal/config"
	"github.com/kidtango/need2reefbackend/internal/database"
	"github.com/kidtango/need2reefbackend/internal/logging"
	"github.com/kidtango/need2reefbackend/internal/temporal"
)

var (
	cfg    *config.Config
	logger *logrus.Logger

	batchSize    int
	scheduleCron string
)

var rootCmd = &cobra.Command{
	Use:           "need2reef-worker",
	Short:         "Background jobs for need2reef",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		logger = logging.New(cfg.LogLevel, cfg.LogFormat)
		if cfg.StoreDriver != config.DriverPostgres {
			return fmt.Errorf("the worker requires STORE_DRIVER=%s", config.DriverPostgres)
		}
		return cfg.Validate()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the Temporal worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := database.NewClient(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		c, err := temporal.NewClient(cfg, logger)
		if err != nil {
			return err
		}
		defer c.Close()

		w := c.NewWorker(temporal.NewProfileActivities(db))

		if err := w.Start(); err != nil {
			return fmt.Errorf("failed to start worker: %w", err)
		}
		logger.WithField("taskQueue", c.TaskQueue()).Info("Temporal worker started")

		<-ctx.Done()
		logger.Info("shutting down...")
		w.Stop()
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Create the missing profile of every user without one",
	Long: `Starts the profile reconciliation workflow and waits for its result.

With --schedule the workflow is instead registered as a Temporal schedule
running on the given cron expression.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		c, err := temporal.NewClient(cfg, logger)
		if err != nil {
			return err
		}
		defer c.Close()

		size := batchSize
		if size <= 0 {
			size = cfg.ReconcileBatchSize
		}

		if scheduleCron != "" {
			if err := c.ScheduleReconcile(ctx, scheduleCron, size); err != nil {
				return err
			}
			logger.WithField("cron", scheduleCron).Info("reconciliation scheduled")
			return nil
		}

		result, err := c.ReconcileProfiles(ctx, size)
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"checked":  result.Checked,
			"repaired": result.Repaired,
			"failed":   len(result.Failed),
		}).Info("reconciliation finished")
		if len(result.Failed) > 0 {
			return fmt.Errorf("%d users still have no profile", len(result.Failed))
		}
		return nil
	},
}

func init() {
	reconcileCmd.Flags().IntVar(&batchSize, "batch-size", 0, "Users to check in one run (default RECONCILE_BATCH_SIZE)")
	reconcileCmd.Flags().StringVar(&scheduleCron, "schedule", "", "Register a schedule with this cron expression instead of running once")
	rootCmd.AddCommand(runCmd, reconcileCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
