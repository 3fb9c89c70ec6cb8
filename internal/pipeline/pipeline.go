// Package pipeline orchestrates a harvest run: fetch one page per input
// term, extract raw records, normalize every field, attach provenance, and
// return the canonical batch. One failing term contributes zero records and
// never aborts the batch.
package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vigiadata/vigia/internal/archive"
	"github.com/vigiadata/vigia/internal/clock"
	"github.com/vigiadata/vigia/internal/extract"
	"github.com/vigiadata/vigia/internal/fetch"
	"github.com/vigiadata/vigia/internal/metrics"
	"github.com/vigiadata/vigia/internal/normalize"
	"github.com/vigiadata/vigia/internal/record"
)

// Config holds the source endpoints.
type Config struct {
	// ListingBaseURL is the product search root; the query term is appended
	// with spaces folded to dashes.
	ListingBaseURL string
	// IndicatorURLTemplate receives the indicator code via %s.
	IndicatorURLTemplate string
}

// Pipeline runs harvest batches against a fetcher and hands raw pages to
// the archive.
type Pipeline struct {
	fetcher fetch.Fetcher
	archive archive.Provider
	logger  *zap.Logger
	clock   clock.Clock
	cfg     Config
}

// New assembles a pipeline. A nil archive degrades to archive.NoOp.
func New(fetcher fetch.Fetcher, arch archive.Provider, cfg Config, logger *zap.Logger, clk clock.Clock) *Pipeline {
	metrics.Init()
	if arch == nil {
		arch = archive.NoOp{}
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Pipeline{
		fetcher: fetcher,
		archive: arch,
		logger:  logger,
		clock:   clk,
		cfg:     cfg,
	}
}

// Products harvests one listing page per query term. Results concatenate in
// input order; a term whose fetch or parse fails is logged and skipped.
func (p *Pipeline) Products(ctx context.Context, queries []string) []record.Product {
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID), zap.String("domain", "products"))
	logger.Info("product harvest started", zap.Int("queries", len(queries)))

	var out []record.Product
	for _, query := range queries {
		listingURL := p.listingURL(query)
		page, err := p.fetcher.Fetch(ctx, listingURL)
		if err != nil {
			metrics.FetchFailed("products")
			logger.Warn("fetch failed, skipping term",
				zap.String("query", query),
				zap.String("url", listingURL),
				zap.Error(err),
			)
			continue
		}
		metrics.PageFetched("products")
		p.archivePage(ctx, runID, page)

		raws, err := extract.Products(page)
		if err != nil {
			logger.Warn("listing parse failed, skipping term",
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}
		metrics.RecordsExtracted("products", len(raws))

		fetchedAt := p.clock.Now().UTC().Format("2006-01-02")
		for _, raw := range raws {
			out = append(out, buildProduct(raw, query, fetchedAt))
		}
		logger.Info("term harvested",
			zap.String("query", query),
			zap.Int("records", len(raws)),
		)
	}
	logger.Info("product harvest finished", zap.Int("total_records", len(out)))
	return out
}

// Indicators harvests one history page per indicator code, joining the
// static location metadata per code.
func (p *Pipeline) Indicators(ctx context.Context, codes []string) []record.Indicator {
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID), zap.String("domain", "indicators"))
	logger.Info("indicator harvest started", zap.Int("codes", len(codes)))

	var out []record.Indicator
	for _, code := range codes {
		historyURL := fmt.Sprintf(p.cfg.IndicatorURLTemplate, url.QueryEscape(code))
		page, err := p.fetcher.Fetch(ctx, historyURL)
		if err != nil {
			metrics.FetchFailed("indicators")
			logger.Warn("fetch failed, skipping code",
				zap.String("code", code),
				zap.String("url", historyURL),
				zap.Error(err),
			)
			continue
		}
		metrics.PageFetched("indicators")
		p.archivePage(ctx, runID, page)

		raws, err := extract.IndicatorRows(page)
		if err != nil {
			logger.Warn("history parse failed, skipping code",
				zap.String("code", code),
				zap.Error(err),
			)
			continue
		}
		metrics.RecordsExtracted("indicators", len(raws))

		fetchedAt := p.clock.Now().UTC().Format("2006-01-02")
		for _, raw := range raws {
			out = append(out, buildIndicator(raw, code, fetchedAt))
		}
		logger.Info("code harvested",
			zap.String("code", code),
			zap.Int("records", len(raws)),
		)
	}
	logger.Info("indicator harvest finished", zap.Int("total_records", len(out)))
	return out
}

func (p *Pipeline) listingURL(query string) string {
	base := strings.TrimSuffix(p.cfg.ListingBaseURL, "/")
	return base + "/" + strings.ReplaceAll(strings.TrimSpace(query), " ", "-")
}

// archivePage saves the raw body for replay. Failures are logged and
// swallowed; archiving never blocks a harvest.
func (p *Pipeline) archivePage(ctx context.Context, runID string, page fetch.Page) {
	name := path.Join(
		"pages",
		page.FetchedAt.Format("2006-01-02"),
		runID,
		fmt.Sprintf("%x.html", sha256.Sum256([]byte(page.URL))),
	)
	if err := p.archive.Save(ctx, name, page.Body); err != nil {
		p.logger.Warn("page archive failed",
			zap.String("object", name),
			zap.Error(err),
		)
	}
}

// buildProduct normalizes one raw field set. Each field normalizes
// independently; a miss leaves that member nil and the siblings intact.
func buildProduct(raw record.ProductRaw, query, fetchedAt string) record.Product {
	p := record.Product{
		Promoted:  raw.Promoted,
		Query:     query,
		FetchedAt: fetchedAt,
	}
	if raw.Brand != "" {
		p.Brand = record.Str(raw.Brand)
	}
	if raw.Title != "" {
		p.Title = record.Str(raw.Title)
	}
	p.PrevPrice = normalizeFloat(raw.PrevPrice, "prev_price", normalize.Price)
	p.Price = normalizeFloat(raw.Price, "price", normalize.Price)
	p.DiscountPct = normalizeFloat(raw.Discount, "discount_pct", normalize.Percent)
	if raw.Installments != "" {
		if v, ok := normalize.Installments(raw.Installments); ok {
			p.Installments = record.Str(v)
		} else {
			metrics.NormalizationMiss("installments")
		}
	}
	p.Rating = normalizeFloat(raw.Rating, "rating", normalize.Price)
	if raw.Reviews != "" {
		if v, ok := normalize.Count(raw.Reviews); ok && v >= 0 {
			p.Reviews = record.Int(int(v))
		} else {
			metrics.NormalizationMiss("reviews")
		}
	}
	if raw.URL != "" {
		p.URL = record.Str(raw.URL)
	}
	return p
}

// buildIndicator normalizes one table row and joins the location metadata.
// The join is total: unknown codes receive the Unknown sentinel record.
func buildIndicator(raw record.IndicatorRaw, code, fetchedAt string) record.Indicator {
	r := record.Indicator{
		Code:      code,
		Location:  record.LocationFor(code),
		FetchedAt: fetchedAt,
	}

	if iso, ok := normalize.SpanishDate(raw.Date); ok {
		r.Date = iso
	} else if iso, ok := normalize.ISODate(raw.Date); ok {
		r.Date = iso
	} else if raw.Date != "" {
		metrics.NormalizationMiss("date")
	}

	r.Open = normalizeFloat(raw.Open, "open", normalize.Price)
	r.High = normalizeFloat(raw.High, "high", normalize.Price)
	r.Low = normalizeFloat(raw.Low, "low", normalize.Price)
	r.Close = normalizeFloat(raw.Close, "close", normalize.Price)
	r.AdjClose = normalizeFloat(raw.AdjClose, "adj_close", normalize.Price)
	r.Volume = normalizeFloat(raw.Volume, "volume", normalize.Price)

	// Date-derived fields appear only when the date normalized; a garbage
	// date yields no partial values.
	if r.Date != "" {
		if d, err := time.Parse("2006-01-02", r.Date); err == nil {
			r.Year = record.Int(d.Year())
			r.Month = record.Int(int(d.Month()))
			r.Day = record.Int(d.Day())
			r.YearMonth = record.Str(d.Format("2006-01"))
		} else {
			r.Date = ""
			metrics.NormalizationMiss("date")
		}
	}
	return r
}

func normalizeFloat(raw, field string, parse func(string) (float64, bool)) *float64 {
	if raw == "" {
		return nil
	}
	v, ok := parse(raw)
	if !ok {
		metrics.NormalizationMiss(field)
		return nil
	}
	return record.Float(v)
}
