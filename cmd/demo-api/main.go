package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/upb/observability-demo-api/app"
	"github.com/upb/observability-demo-api/config"
	"github.com/upb/observability-demo-api/internal/observability"
	"github.com/upb/observability-demo-api/repositories/postgres"
	"github.com/upb/observability-demo-api/routes"
	"github.com/upb/observability-demo-api/server"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	envFiles []string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "demo-api",
		Short:        "Multi-tenant observability demo API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "env file(s) to load before reading the environment (default .env when present)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newInitSchemaCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func newInitSchemaCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init-schema",
		Short: "Create the items table and indexes, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := bootstrap(ctx, opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			db, err := postgres.NewDB(cfg.Database, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			return db.InitSchema(ctx)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.Version)
		},
	}
}

// bootstrap loads configuration and builds the process logger.
func bootstrap(ctx context.Context, opts *rootOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.New(ctx, opts.envFiles...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, logger, err := bootstrap(ctx, opts)
	if err != nil {
		return err
	}

	logger.Info("starting demo API",
		zap.String("environment", cfg.Environment),
		zap.Strings("valid_tenants", cfg.Tenants.ValidTenants),
		zap.Bool("metrics_enabled", cfg.Observability.MetricsEnabled),
		zap.Bool("tracing_enabled", cfg.Observability.TracingEnabled),
	)

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", zap.Error(err))
		_ = logger.Sync()
		return err
	}

	runErr := server.New(cfg, routes.SetupRoutes(deps), logger).Run(ctx)

	if err := deps.Close(context.Background()); err != nil {
		logger.Error("error while closing dependencies", zap.Error(err))
	}
	return runErr
}
