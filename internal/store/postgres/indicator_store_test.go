package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigiadata/vigia/internal/record"
	"github.com/vigiadata/vigia/internal/store"
)

func sampleIndicator() record.Indicator {
	return record.Indicator{
		Date:      "2025-05-07",
		Open:      record.Float(4380.1),
		Close:     record.Float(4399.5),
		Code:      "DOLA-USD",
		Year:      record.Int(2025),
		Month:     record.Int(5),
		Day:       record.Int(7),
		YearMonth: record.Str("2025-05"),
		Location:  record.LocationFor("DOLA-USD"),
		FetchedAt: "2025-05-07",
	}
}

func insertArgs(r record.Indicator) []any {
	return []any{
		record.Str(r.Date), r.Open, r.High, r.Low, r.Close, r.AdjClose, r.Volume, r.Code,
		r.Year, r.Month, r.Day, r.YearMonth,
		r.Location.DisplayName, r.Location.Country,
		r.Location.Latitude, r.Location.Longitude,
		r.Location.Region, r.Location.CurrencyPair,
		r.FetchedAt,
	}
}

func TestNewIndicatorStoreWithPoolValidation(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewIndicatorStoreWithPool(nil, "indicators")
	require.Error(t, err)

	_, err = NewIndicatorStoreWithPool(mock, "indicators; DROP TABLE x")
	require.Error(t, err)

	s, err := NewIndicatorStoreWithPool(mock, "")
	require.NoError(t, err)
	assert.Equal(t, "indicators", s.table)
}

func TestIndicatorStoreSaveOverwrite(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewIndicatorStoreWithPool(mock, "indicators")
	require.NoError(t, err)

	r := sampleIndicator()
	mock.ExpectExec("DELETE FROM indicators").
		WillReturnResult(pgxmock.NewResult("DELETE", 5))
	mock.ExpectExec("INSERT INTO indicators").
		WithArgs(insertArgs(r)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Save(context.Background(), []record.Indicator{r}, store.Overwrite))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIndicatorStoreSaveAppend(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewIndicatorStoreWithPool(mock, "indicators")
	require.NoError(t, err)

	r := sampleIndicator()
	// No DELETE in append mode.
	mock.ExpectExec("INSERT INTO indicators").
		WithArgs(insertArgs(r)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Save(context.Background(), []record.Indicator{r}, store.Append))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIndicatorStoreSaveInsertError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewIndicatorStoreWithPool(mock, "indicators")
	require.NoError(t, err)

	r := sampleIndicator()
	mock.ExpectExec("INSERT INTO indicators").
		WithArgs(insertArgs(r)...).
		WillReturnError(errors.New("connection reset"))

	err = s.Save(context.Background(), []record.Indicator{r}, store.Append)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert indicator row")
}

func TestIndicatorStoreLoad(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewIndicatorStoreWithPool(mock, "indicators")
	require.NoError(t, err)

	r := sampleIndicator()
	rows := pgxmock.NewRows([]string{
		"date", "open", "high", "low", "close", "adj_close", "volume", "code",
		"year", "month", "day", "year_month",
		"display_name", "country", "latitude", "longitude", "region", "currency_pair", "fetched_at",
	}).AddRow(insertArgs(r)...)
	mock.ExpectQuery("SELECT (.+) FROM indicators ORDER BY id").WillReturnRows(rows)

	loaded, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, r, loaded[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIndicatorStoreCheck(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewIndicatorStoreWithPool(mock, "indicators")
	require.NoError(t, err)

	mock.ExpectExec("SELECT 1").WillReturnResult(pgxmock.NewResult("SELECT", 1))
	require.NoError(t, s.Check(context.Background()))

	mock.ExpectExec("SELECT 1").WillReturnError(errors.New("no route to host"))
	err = s.Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestIndicatorStoreSnapshot(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewIndicatorStoreWithPool(mock, "indicators")
	require.NoError(t, err)

	complete := sampleIndicator()
	missing := record.Indicator{
		Code:      "DOLA-USD",
		Location:  record.LocationFor("DOLA-USD"),
		FetchedAt: "2025-05-07",
	}
	rows := pgxmock.NewRows([]string{
		"date", "open", "high", "low", "close", "adj_close", "volume", "code",
		"year", "month", "day", "year_month",
		"display_name", "country", "latitude", "longitude", "region", "currency_pair", "fetched_at",
	}).
		AddRow(insertArgs(complete)...).
		AddRow(insertArgs(missing)...)
	mock.ExpectQuery("SELECT (.+) FROM indicators ORDER BY id").WillReturnRows(rows)

	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, 1, snap.Nulls)
	require.Len(t, snap.Series, 2)
	require.NotNil(t, snap.Series[0])
	assert.Equal(t, 4399.5, *snap.Series[0])
	assert.Nil(t, snap.Series[1])
}
