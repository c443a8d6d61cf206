package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/consultation_scheduler/internal/app"
	"github.com/Freeeeeet/consultation_scheduler/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "consultd",
		Short:         "Lawyer availability and consultation booking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCommand(), newMigrateCommand())

	return cmd
}

func newServeCommand() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger := app.NewLogger(cfg.Environment, cfg.LogFile)
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("Starting consultd",
				zap.String("environment", cfg.Environment),
				zap.String("storage", cfg.Storage),
				zap.String("timezone", cfg.Location().String()))

			a, err := app.New(ctx, cfg, logger, !skipMigrations)
			if err != nil {
				logger.Error("Failed to initialize application", zap.Error(err))
				return err
			}
			defer a.Close()

			return a.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply database migrations on start")

	return cmd
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd.Context(), func(ctx context.Context, m *app.Migrator, _ *zap.Logger) error {
					return m.Run(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd.Context(), func(ctx context.Context, m *app.Migrator, logger *zap.Logger) error {
					version, err := m.Version(ctx)
					if err != nil {
						return err
					}
					logger.Info("Schema version", zap.Int64("version", version))
					return nil
				})
			},
		},
	)

	return cmd
}

func withMigrator(ctx context.Context, fn func(context.Context, *app.Migrator, *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogFile)
	defer logger.Sync()

	pool, err := app.OpenPool(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return fn(ctx, migrator, logger)
}
