// Package postgres provides a Postgres-backed indicator store for
// deployments that want the snapshot in a relational table instead of a
// flat file. The schema mirrors the CSV column set:
//
//	CREATE TABLE indicators (
//	    id            BIGSERIAL PRIMARY KEY,
//	    date          TEXT,
//	    open          DOUBLE PRECISION,
//	    high          DOUBLE PRECISION,
//	    low           DOUBLE PRECISION,
//	    close         DOUBLE PRECISION,
//	    adj_close     DOUBLE PRECISION,
//	    volume        DOUBLE PRECISION,
//	    code          TEXT NOT NULL,
//	    year          INT,
//	    month         INT,
//	    day           INT,
//	    year_month    TEXT,
//	    display_name  TEXT NOT NULL,
//	    country       TEXT NOT NULL,
//	    latitude      DOUBLE PRECISION NOT NULL,
//	    longitude     DOUBLE PRECISION NOT NULL,
//	    region        TEXT NOT NULL,
//	    currency_pair TEXT NOT NULL,
//	    fetched_at    TEXT NOT NULL
//	);
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vigiadata/vigia/internal/monitor"
	"github.com/vigiadata/vigia/internal/record"
	"github.com/vigiadata/vigia/internal/store"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool behind the indicator store.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// IndicatorStore persists indicator records in a Postgres table.
type IndicatorStore struct {
	pool  pool
	table string
}

// NewIndicatorStore connects a pool using the provided config.
func NewIndicatorStore(ctx context.Context, cfg Config) (*IndicatorStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.postgres.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "indicators"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &IndicatorStore{pool: p, table: table}, nil
}

// NewIndicatorStoreWithPool constructs a store from an existing pool,
// primarily for testing.
func NewIndicatorStoreWithPool(p pool, table string) (*IndicatorStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "indicators"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &IndicatorStore{pool: p, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *IndicatorStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const indicatorColumns = `date, open, high, low, close, adj_close, volume, code,
year, month, day, year_month,
display_name, country, latitude, longitude, region, currency_pair, fetched_at`

// Save inserts the records. Overwrite mode clears the table first so the
// snapshot is replaced wholesale; append mode preserves existing rows.
func (s *IndicatorStore) Save(ctx context.Context, records []record.Indicator, mode store.Mode) error {
	if mode == store.Overwrite {
		if _, err := s.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
			return fmt.Errorf("clear indicator table: %w", err)
		}
	}
	query := fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		s.table, indicatorColumns)

	for _, r := range records {
		date := nullableStr(r.Date)
		args := []any{
			date, r.Open, r.High, r.Low, r.Close, r.AdjClose, r.Volume, r.Code,
			r.Year, r.Month, r.Day, r.YearMonth,
			r.Location.DisplayName, r.Location.Country,
			r.Location.Latitude, r.Location.Longitude,
			r.Location.Region, r.Location.CurrencyPair,
			r.FetchedAt,
		}
		if _, err := s.pool.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert indicator row: %w", err)
		}
	}
	return nil
}

// Load reads the snapshot in insertion order.
func (s *IndicatorStore) Load(ctx context.Context) ([]record.Indicator, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", indicatorColumns, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query indicators: %w", err)
	}
	defer rows.Close()

	var out []record.Indicator
	for rows.Next() {
		var (
			r    record.Indicator
			date *string
		)
		err := rows.Scan(
			&date, &r.Open, &r.High, &r.Low, &r.Close, &r.AdjClose, &r.Volume, &r.Code,
			&r.Year, &r.Month, &r.Day, &r.YearMonth,
			&r.Location.DisplayName, &r.Location.Country,
			&r.Location.Latitude, &r.Location.Longitude,
			&r.Location.Region, &r.Location.CurrencyPair,
			&r.FetchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan indicator row: %w", err)
		}
		if date != nil {
			r.Date = *date
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indicators: %w", err)
	}
	return out, nil
}

// Check verifies the database is reachable.
func (s *IndicatorStore) Check(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("indicator table unreachable: %w", err)
	}
	return nil
}

// Snapshot computes the monitor's view from the stored rows.
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

func nullableStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
