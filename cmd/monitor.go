package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vigiadata/vigia/internal/clock"
	"github.com/vigiadata/vigia/internal/monitor"
)

// newMonitorCmd creates the 'monitor' command group. The process exit code
// carries the cycle's boolean contract: zero when the cycle fully
// completed, non-zero when it aborted early.
func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Runs one monitoring cycle over the persisted store",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "products",
		Short: "Monitors the product snapshot",
		RunE:  runMonitorProducts,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "indicators",
		Short: "Monitors the indicator snapshot",
		RunE:  runMonitorIndicators,
	})
	return cmd
}

func runMonitorProducts(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := appInstance.Config

	monitorCfg := monitor.Config{
		Window:    cfg.Monitor.Window,
		SMAWindow: cfg.Monitor.SMAWindow,
		MinValues: cfg.Monitor.MinValues,
		Epsilon:   cfg.Monitor.ProductEpsilon,
	}
	history := monitor.NewHistoryLog(cfg.Products.HistoryPath, cfg.Monitor.HistoryLimit)
	m := monitor.New(appInstance.Products, appInstance.Alerter, history, monitorCfg, appInstance.Logger, clock.System{})

	if !m.Run(cmd.Context()) {
		return fmt.Errorf("product monitoring cycle aborted")
	}
	return nil
}

func runMonitorIndicators(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := appInstance.Config

	monitorCfg := monitor.Config{
		Window:    cfg.Monitor.Window,
		SMAWindow: cfg.Monitor.SMAWindow,
		MinValues: cfg.Monitor.MinValues,
		Epsilon:   cfg.Monitor.IndicatorEpsilon,
	}
	history := monitor.NewHistoryLog(cfg.Indicators.HistoryPath, cfg.Monitor.HistoryLimit)
	m := monitor.New(appInstance.Indicators, appInstance.Alerter, history, monitorCfg, appInstance.Logger, clock.System{})

	if !m.Run(cmd.Context()) {
		return fmt.Errorf("indicator monitoring cycle aborted")
	}
	return nil
}
