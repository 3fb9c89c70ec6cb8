// Package cmd defines and implements the CLI commands for the vigia
// executable.
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vigiadata/vigia/internal/app"
	"github.com/vigiadata/vigia/internal/config"
	"github.com/vigiadata/vigia/internal/metrics"
)

var (
	cfgFile     string
	metricsAddr string
)

// appKeyType is the key for storing the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// newApp is the application factory. It is a variable so tests can replace
// it with a mock factory.
var newApp = func(ctx context.Context, cfg config.Config) (*app.App, error) {
	return app.New(ctx, cfg)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vigia",
		Short: "Harvests market data from the web and monitors the record store.",
		Long: `vigia periodically harvests product listings and financial indicator
tables, normalizes the locale-formatted text into canonical records, persists
them, and monitors the accumulated store for data-quality regressions and
price trends. Each subcommand is one batch run, intended to be driven by an
external scheduler.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			appInstance, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			if metricsAddr != "" {
				startMetricsServer(metricsAddr, appInstance.Logger)
			}
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(*app.App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is environment only)")
	cmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on this address during the run")

	cmd.AddCommand(newHarvestCmd())
	cmd.AddCommand(newMonitorCmd())

	return cmd
}

// resolveApp retrieves the App injected by the root command.
func resolveApp(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application services are not initialized")
	}
	return appInstance, nil
}

// startMetricsServer exposes the Prometheus surface for the duration of the
// run. Serve errors are logged, never fatal: metrics are an observation
// aid, not part of the batch contract.
func startMetricsServer(addr string, logger *zap.Logger) {
	go func() {
		logger.Info("metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, metrics.Handler()); err != nil {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
