// Package app initializes and holds the long-lived services, acting as the
// dependency injection container the CLI commands consume.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vigiadata/vigia/internal/alert"
	"github.com/vigiadata/vigia/internal/archive"
	"github.com/vigiadata/vigia/internal/config"
	"github.com/vigiadata/vigia/internal/fetch"
	"github.com/vigiadata/vigia/internal/logging"
	"github.com/vigiadata/vigia/internal/monitor"
	"github.com/vigiadata/vigia/internal/store"
	csvstore "github.com/vigiadata/vigia/internal/store/csv"
	pgstore "github.com/vigiadata/vigia/internal/store/postgres"
)

// ProductBackend is a product store the monitor can also read.
type ProductBackend interface {
	store.ProductStore
	monitor.Source
}

// IndicatorBackend is an indicator store the monitor can also read.
type IndicatorBackend interface {
	store.IndicatorStore
	monitor.Source
}

// App holds the shared services for one invocation.
type App struct {
	Config     config.Config
	Logger     *zap.Logger
	Fetcher    fetch.Fetcher
	Products   ProductBackend
	Indicators IndicatorBackend
	Archive    archive.Provider
	Alerter    alert.Alerter

	closers []func()
}

// New builds the service graph from configuration. It fails fast when a
// configured provider cannot be initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger}

	fetchCfg := fetch.Config{
		UserAgent:           cfg.Fetch.UserAgent,
		RequestTimeout:      cfg.FetchTimeout(),
		Concurrency:         cfg.Fetch.Concurrency,
		PerDomainQPS:        cfg.Fetch.PerDomainQPS,
		HeadlessEnabled:     cfg.Fetch.Headless.Enabled,
		HeadlessMaxParallel: cfg.Fetch.Headless.MaxParallel,
		HeadlessNavTimeout:  cfg.HeadlessNavTimeout(),
	}
	collyFetcher, err := fetch.NewCollyFetcher(fetchCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize fetcher: %w", err)
	}
	a.Fetcher = collyFetcher
	if cfg.Fetch.Headless.Enabled {
		renderer, err := fetch.NewRenderer(fetchCfg, logger)
		switch {
		case errors.Is(err, fetch.ErrRendererDisabled):
			// fall through with the plain fetcher
		case err != nil:
			return nil, fmt.Errorf("initialize renderer: %w", err)
		default:
			a.closers = append(a.closers, renderer.Close)
			a.Fetcher = fetch.NewFallbackFetcher(collyFetcher, renderer, logger)
			logger.Info("headless rendering fallback enabled")
		}
	}

	a.Products = csvstore.NewProductStore(cfg.Products.SnapshotPath, logger)
	switch cfg.Store.Provider {
	case "postgres":
		pg, err := pgstore.NewIndicatorStore(ctx, pgstore.Config{
			DSN:      cfg.Store.Postgres.DSN,
			Table:    cfg.Store.Postgres.Table,
			MaxConns: cfg.Store.Postgres.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize postgres store: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		a.Indicators = pg
		logger.Info("using postgres indicator store", zap.String("table", cfg.Store.Postgres.Table))
	default:
		a.Indicators = csvstore.NewIndicatorStore(cfg.Indicators.SnapshotPath, logger)
	}

	switch cfg.Archive.Provider {
	case "local":
		local, err := archive.NewLocal(cfg.Archive.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("initialize local archive: %w", err)
		}
		a.Archive = local
		logger.Info("archiving raw pages locally", zap.String("dir", cfg.Archive.BaseDir))
	case "gcs":
		gcs, err := archive.NewGCS(ctx, cfg.Archive.Bucket, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize gcs archive: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := gcs.Close(); err != nil {
				logger.Warn("close gcs archive", zap.Error(err))
			}
		})
		a.Archive = gcs
		logger.Info("archiving raw pages to gcs", zap.String("bucket", cfg.Archive.Bucket))
	default:
		a.Archive = archive.NoOp{}
	}

	switch cfg.Alert.Provider {
	case "pubsub":
		ps, err := alert.NewPubSub(ctx, cfg.Alert.PubSub.ProjectID, cfg.Alert.PubSub.TopicID, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize pubsub alerter: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := ps.Close(); err != nil {
				logger.Warn("close pubsub alerter", zap.Error(err))
			}
		})
		a.Alerter = ps
	case "noop":
		a.Alerter = alert.NoOp{}
	default:
		// SMTP construction always succeeds; incomplete credentials leave
		// alerting disabled rather than failing the run.
		a.Alerter = alert.NewSMTP(alert.SMTPConfig{
			Host:     cfg.Alert.SMTP.Host,
			Port:     cfg.Alert.SMTP.Port,
			Sender:   cfg.Alert.SMTP.Sender,
			Receiver: cfg.Alert.SMTP.Receiver,
			Password: cfg.Alert.SMTP.Password,
		}, logger)
	}

	return a, nil
}

// Close shuts down the service graph and flushes the logger.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	// Best-effort flush; stderr sync failures are expected on some
	// platforms.
	_ = a.Logger.Sync()
}
