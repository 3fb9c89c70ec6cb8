package csv

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/vigiadata/vigia/internal/monitor"
	"github.com/vigiadata/vigia/internal/record"
	"github.com/vigiadata/vigia/internal/store"
)

var productHeader = []string{
	"brand", "title", "prev_price", "price", "discount_pct", "installments",
	"rating", "reviews", "url", "promoted", "query", "fetched_at",
}

// ProductStore persists product records in one CSV snapshot.
type ProductStore struct {
	path   string
	logger *zap.Logger
}

// NewProductStore builds a CSV-backed product store at path.
func NewProductStore(path string, logger *zap.Logger) *ProductStore {
	return &ProductStore{path: path, logger: logger}
}

// Load reads the snapshot, returning an empty result when it does not exist
// yet.
func (s *ProductStore) Load(_ context.Context) ([]record.Product, error) {
	rows, err := readSnapshot(s.path, len(productHeader))
	if err != nil {
		return nil, err
	}
	out := make([]record.Product, 0, len(rows))
	for _, row := range rows {
		promoted, _ := strconv.ParseBool(row[9])
		out = append(out, record.Product{
			Brand:        parseStrPtr(row[0]),
			Title:        parseStrPtr(row[1]),
			PrevPrice:    parseFloatPtr(row[2]),
			Price:        parseFloatPtr(row[3]),
			DiscountPct:  parseFloatPtr(row[4]),
			Installments: parseStrPtr(row[5]),
			Rating:       parseFloatPtr(row[6]),
			Reviews:      parseIntPtr(row[7]),
			URL:          parseStrPtr(row[8]),
			Promoted:     promoted,
			Query:        row[10],
			FetchedAt:    row[11],
		})
	}
	return out, nil
}

// Save writes the records in the requested mode.
func (s *ProductStore) Save(_ context.Context, records []record.Product, mode store.Mode) error {
	rows := make([][]string, 0, len(records))
	for _, p := range records {
		rows = append(rows, []string{
			derefStr(p.Brand),
			derefStr(p.Title),
			formatFloat(p.PrevPrice),
			formatFloat(p.Price),
			formatFloat(p.DiscountPct),
			derefStr(p.Installments),
			formatFloat(p.Rating),
			formatInt(p.Reviews),
			derefStr(p.URL),
			strconv.FormatBool(p.Promoted),
			p.Query,
			p.FetchedAt,
		})
	}
	if err := writeSnapshot(s.path, productHeader, rows, mode); err != nil {
		return fmt.Errorf("save product snapshot: %w", err)
	}
	s.logger.Info("product snapshot saved",
		zap.String("path", s.path),
		zap.Int("records", len(records)),
		zap.String("mode", mode.String()),
	)
	return nil
}

// Check verifies the snapshot file is present, the monitor's reachability
// probe.
func (s *ProductStore) Check(_ context.Context) error {
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("product snapshot %s: %w", s.path, err)
	}
	return nil
}

// Snapshot computes the monitor's view: totals, rows missing title or
// price, and the price series in stored order.
func (s *ProductStore) Snapshot(ctx context.Context) (monitor.Snapshot, error) {
	records, err := s.Load(ctx)
	if err != nil {
		return monitor.Snapshot{}, err
	}
	snap := monitor.Snapshot{Total: len(records)}
	for _, p := range records {
		if p.Missing() {
			snap.Nulls++
		}
		snap.Series = append(snap.Series, p.Price)
	}
	return snap, nil
}
