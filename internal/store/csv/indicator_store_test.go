package csv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vigiadata/vigia/internal/record"
	"github.com/vigiadata/vigia/internal/store"
)

func sampleIndicators() []record.Indicator {
	return []record.Indicator{
		{
			Date:      "2025-05-07",
			Open:      record.Float(4380.1),
			High:      record.Float(4410),
			Low:       record.Float(4350.25),
			Close:     record.Float(4399.5),
			AdjClose:  record.Float(4399.5),
			Code:      "DOLA-USD",
			Year:      record.Int(2025),
			Month:     record.Int(5),
			Day:       record.Int(7),
			YearMonth: record.Str("2025-05"),
			Location:  record.LocationFor("DOLA-USD"),
			FetchedAt: "2025-05-07",
		},
		{
			// Row with an unparseable source date: no date, no derived fields.
			Close:     record.Float(4350),
			Code:      "DOLA-USD",
			Location:  record.LocationFor("DOLA-USD"),
			FetchedAt: "2025-05-07",
		},
	}
}

func TestIndicatorStoreLoadAbsent(t *testing.T) {
	t.Parallel()

	s := NewIndicatorStore(filepath.Join(t.TempDir(), "indicators.csv"), zap.NewNop())
	records, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestIndicatorStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "indicators.csv")
	s := NewIndicatorStore(path, zap.NewNop())
	ctx := context.Background()

	original := sampleIndicators()
	require.NoError(t, s.Save(ctx, original, store.Overwrite))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)

	before, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, loaded, store.Overwrite))
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestIndicatorStoreAppendAccumulates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "indicators.csv")
	s := NewIndicatorStore(path, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleIndicators(), store.Append))
	require.NoError(t, s.Save(ctx, sampleIndicators()[:1], store.Append))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 3)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(content), "date,open,high,"))
}

func TestIndicatorStoreSnapshot(t *testing.T) {
	t.Parallel()

	s := NewIndicatorStore(filepath.Join(t.TempDir(), "indicators.csv"), zap.NewNop())
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleIndicators(), store.Overwrite))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, 1, snap.Nulls)
	require.Len(t, snap.Series, 2)
	require.NotNil(t, snap.Series[0])
	assert.Equal(t, 4399.5, *snap.Series[0])
	require.NotNil(t, snap.Series[1])
	assert.Equal(t, 4350.0, *snap.Series[1])
}

func TestIndicatorStoreCheck(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "indicators.csv")
	s := NewIndicatorStore(path, zap.NewNop())
	ctx := context.Background()

	require.Error(t, s.Check(ctx))
	require.NoError(t, s.Save(ctx, nil, store.Overwrite))
	require.NoError(t, s.Check(ctx))
}
