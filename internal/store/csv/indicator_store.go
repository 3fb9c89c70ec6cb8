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

var indicatorHeader = []string{
	"date", "open", "high", "low", "close", "adj_close", "volume", "code",
	"year", "month", "day", "year_month",
	"display_name", "country", "latitude", "longitude", "region", "currency_pair",
	"fetched_at",
}

// IndicatorStore persists indicator records in one CSV snapshot.
type IndicatorStore struct {
	path   string
	logger *zap.Logger
}

// NewIndicatorStore builds a CSV-backed indicator store at path.
func NewIndicatorStore(path string, logger *zap.Logger) *IndicatorStore {
	return &IndicatorStore{path: path, logger: logger}
}

// Load reads the snapshot, returning an empty result when it does not exist
// yet.
func (s *IndicatorStore) Load(_ context.Context) ([]record.Indicator, error) {
	rows, err := readSnapshot(s.path, len(indicatorHeader))
	if err != nil {
		return nil, err
	}
	out := make([]record.Indicator, 0, len(rows))
	for _, row := range rows {
		lat, _ := strconv.ParseFloat(row[14], 64)
		lon, _ := strconv.ParseFloat(row[15], 64)
		out = append(out, record.Indicator{
			Date:      row[0],
			Open:      parseFloatPtr(row[1]),
			High:      parseFloatPtr(row[2]),
			Low:       parseFloatPtr(row[3]),
			Close:     parseFloatPtr(row[4]),
			AdjClose:  parseFloatPtr(row[5]),
			Volume:    parseFloatPtr(row[6]),
			Code:      row[7],
			Year:      parseIntPtr(row[8]),
			Month:     parseIntPtr(row[9]),
			Day:       parseIntPtr(row[10]),
			YearMonth: parseStrPtr(row[11]),
			Location: record.Location{
				DisplayName:  row[12],
				Country:      row[13],
				Latitude:     lat,
				Longitude:    lon,
				Region:       row[16],
				CurrencyPair: row[17],
			},
			FetchedAt: row[18],
		})
	}
	return out, nil
}

// Save writes the records in the requested mode.
func (s *IndicatorStore) Save(_ context.Context, records []record.Indicator, mode store.Mode) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Date,
			formatFloat(r.Open),
			formatFloat(r.High),
			formatFloat(r.Low),
			formatFloat(r.Close),
			formatFloat(r.AdjClose),
			formatFloat(r.Volume),
			r.Code,
			formatInt(r.Year),
			formatInt(r.Month),
			formatInt(r.Day),
			derefStr(r.YearMonth),
			r.Location.DisplayName,
			r.Location.Country,
			strconv.FormatFloat(r.Location.Latitude, 'f', -1, 64),
			strconv.FormatFloat(r.Location.Longitude, 'f', -1, 64),
			r.Location.Region,
			r.Location.CurrencyPair,
			r.FetchedAt,
		})
	}
	if err := writeSnapshot(s.path, indicatorHeader, rows, mode); err != nil {
		return fmt.Errorf("save indicator snapshot: %w", err)
	}
	s.logger.Info("indicator snapshot saved",
		zap.String("path", s.path),
		zap.Int("records", len(records)),
		zap.String("mode", mode.String()),
	)
	return nil
}

// Check verifies the snapshot file is present.
func (s *IndicatorStore) Check(_ context.Context) error {
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("indicator snapshot %s: %w", s.path, err)
	}
	return nil
}

// Snapshot computes the monitor's view: totals, rows missing date or close,
// and the close series in stored order.
func (s *IndicatorStore) Snapshot(ctx context.Context) (monitor.Snapshot, error) {
	records, err := s.Load(ctx)
	if err != nil {
		return monitor.Snapshot{}, err
	}
	snap := monitor.Snapshot{Total: len(records)}
	for _, r := range records {
		if r.Missing() {
			snap.Nulls++
		}
		snap.Series = append(snap.Series, r.Close)
	}
	return snap, nil
}
