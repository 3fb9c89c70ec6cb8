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

func sampleProducts() []record.Product {
	return []record.Product{
		{
			Brand:        record.Str("ASUS"),
			Title:        record.Str("Portátil Asus Vivobook"),
			PrevPrice:    record.Float(2999900),
			Price:        record.Float(2499900),
			DiscountPct:  record.Float(16),
			Installments: record.Str("36 cuotas de $104.025"),
			Rating:       record.Float(4.7),
			Reviews:      record.Int(512),
			URL:          record.Str("https://listado.example.com/item/MCO-1"),
			Promoted:     false,
			Query:        "portatil asus",
			FetchedAt:    "2025-05-07",
		},
		{
			Title:     record.Str("Mouse inalámbrico"),
			Price:     record.Float(45900),
			Promoted:  true,
			Query:     "mouse",
			FetchedAt: "2025-05-07",
		},
		{
			// Incomplete row: no title, no price.
			Query:     "mouse",
			FetchedAt: "2025-05-07",
		},
	}
}

func TestProductStoreLoadAbsent(t *testing.T) {
	t.Parallel()

	s := NewProductStore(filepath.Join(t.TempDir(), "products.csv"), zap.NewNop())
	records, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestProductStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "products.csv")
	s := NewProductStore(path, zap.NewNop())
	ctx := context.Background()

	original := sampleProducts()
	require.NoError(t, s.Save(ctx, original, store.Overwrite))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)

	// Saving a loaded snapshot reproduces the file byte for byte.
	before, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, loaded, store.Overwrite))
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestProductStoreAppend(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "products.csv")
	s := NewProductStore(path, zap.NewNop())
	ctx := context.Background()

	base := sampleProducts()[:2]
	require.NoError(t, s.Save(ctx, base, store.Overwrite))
	require.NoError(t, s.Save(ctx, sampleProducts()[2:], store.Append))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleProducts(), loaded)

	// Appending never repeats the header.
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(content), "brand,title,"))
}

func TestProductStoreAppendToAbsentFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "products.csv")
	s := NewProductStore(path, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleProducts()[:1], store.Append))
	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "brand,title,"))
}

func TestProductStoreOverwriteReplaces(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "products.csv")
	s := NewProductStore(path, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleProducts(), store.Overwrite))
	require.NoError(t, s.Save(ctx, sampleProducts()[:1], store.Overwrite))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestProductStoreCheck(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "products.csv")
	s := NewProductStore(path, zap.NewNop())
	ctx := context.Background()

	require.Error(t, s.Check(ctx))
	require.NoError(t, s.Save(ctx, nil, store.Overwrite))
	require.NoError(t, s.Check(ctx))
}

func TestProductStoreSnapshot(t *testing.T) {
	t.Parallel()

	s := NewProductStore(filepath.Join(t.TempDir(), "products.csv"), zap.NewNop())
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleProducts(), store.Overwrite))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, 1, snap.Nulls)
	require.Len(t, snap.Series, 3)
	require.NotNil(t, snap.Series[0])
	assert.Equal(t, 2499900.0, *snap.Series[0])
	assert.Nil(t, snap.Series[2])
}
