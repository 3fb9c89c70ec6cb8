package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vigiadata/vigia/internal/app"
	"github.com/vigiadata/vigia/internal/clock"
	"github.com/vigiadata/vigia/internal/pipeline"
	"github.com/vigiadata/vigia/internal/store"
)

var saveMode string

// newHarvestCmd creates the 'harvest' command group. Each subcommand runs
// one batch: fetch, extract, normalize, persist.
func newHarvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Runs one harvest batch and persists the canonical records",
	}
	cmd.PersistentFlags().StringVar(&saveMode, "mode", "", "save mode: overwrite or append (default: overwrite for products, append for indicators)")

	cmd.AddCommand(&cobra.Command{
		Use:   "products",
		Short: "Harvests product listings for the configured query terms",
		RunE:  runHarvestProducts,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "indicators",
		Short: "Harvests indicator history tables for the configured codes",
		RunE:  runHarvestIndicators,
	})
	return cmd
}

func runHarvestProducts(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	mode, err := resolveMode(store.Overwrite)
	if err != nil {
		return err
	}

	pl := pipeline.New(appInstance.Fetcher, appInstance.Archive, pipelineConfig(appInstance), appInstance.Logger, clock.System{})
	records := pl.Products(cmd.Context(), appInstance.Config.Products.Queries)

	// Persistence failure is non-fatal by contract: log it and let the
	// next scheduled run try again with fresh data.
	if err := appInstance.Products.Save(cmd.Context(), records, mode); err != nil {
		appInstance.Logger.Error("product snapshot not persisted", zap.Error(err))
	}
	return nil
}

func runHarvestIndicators(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	mode, err := resolveMode(store.Append)
	if err != nil {
		return err
	}

	pl := pipeline.New(appInstance.Fetcher, appInstance.Archive, pipelineConfig(appInstance), appInstance.Logger, clock.System{})
	records := pl.Indicators(cmd.Context(), appInstance.Config.Indicators.Codes)

	if err := appInstance.Indicators.Save(cmd.Context(), records, mode); err != nil {
		appInstance.Logger.Error("indicator snapshot not persisted", zap.Error(err))
	}
	return nil
}

func pipelineConfig(a *app.App) pipeline.Config {
	return pipeline.Config{
		ListingBaseURL:       a.Config.Products.BaseURL,
		IndicatorURLTemplate: a.Config.Indicators.URLTemplate,
	}
}

func resolveMode(fallback store.Mode) (store.Mode, error) {
	switch saveMode {
	case "":
		return fallback, nil
	case "overwrite":
		return store.Overwrite, nil
	case "append":
		return store.Append, nil
	default:
		return store.Overwrite, fmt.Errorf("unknown save mode %q (want overwrite or append)", saveMode)
	}
}
