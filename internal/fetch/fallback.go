package fetch

import (
	"context"

	"go.uber.org/zap"
)

// FallbackFetcher tries the primary fetcher first and promotes the request
// to the fallback (typically the headless renderer) when the primary attempt
// fails or produces an empty body.
type FallbackFetcher struct {
	primary  Fetcher
	fallback Fetcher
	logger   *zap.Logger
}

// NewFallbackFetcher wires a primary fetcher with an optional fallback. A
// nil fallback degrades to the primary alone.
func NewFallbackFetcher(primary, fallback Fetcher, logger *zap.Logger) *FallbackFetcher {
	return &FallbackFetcher{primary: primary, fallback: fallback, logger: logger}
}

// Fetch attempts the primary fetcher, promoting to the fallback on failure.
func (f *FallbackFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	page, err := f.primary.Fetch(ctx, rawURL)
	if err == nil && len(page.Body) > 0 {
		return page, nil
	}
	if f.fallback == nil {
		return page, err
	}
	f.logger.Info("promoting fetch to headless renderer",
		zap.String("url", rawURL),
		zap.Error(err),
	)
	return f.fallback.Fetch(ctx, rawURL)
}
