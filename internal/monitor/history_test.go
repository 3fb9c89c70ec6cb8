package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryLogMissingFile(t *testing.T) {
	t.Parallel()

	h := NewHistoryLog(filepath.Join(t.TempDir(), "history.json"), 30)
	assert.Empty(t, h.Entries())
}

func TestHistoryLogCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	h := NewHistoryLog(path, 30)
	assert.Empty(t, h.Entries())

	// A corrupt log self-heals on the next append.
	require.NoError(t, h.Append(HistoryEntry{Timestamp: "2025-05-07 12:00:00", TotalRecords: 10}))
	entries := h.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 10, entries[0].TotalRecords)
}

func TestHistoryLogAppendOrder(t *testing.T) {
	t.Parallel()

	h := NewHistoryLog(filepath.Join(t.TempDir(), "history.json"), 30)
	for i := 0; i < 3; i++ {
		require.NoError(t, h.Append(HistoryEntry{
			Timestamp:    fmt.Sprintf("2025-05-0%d 12:00:00", i+1),
			TotalRecords: i,
		}))
	}

	entries := h.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, 0, entries[0].TotalRecords)
	assert.Equal(t, 2, entries[2].TotalRecords)
}

func TestHistoryLogEvictsOldest(t *testing.T) {
	t.Parallel()

	h := NewHistoryLog(filepath.Join(t.TempDir(), "history.json"), 30)
	for i := 0; i < 35; i++ {
		require.NoError(t, h.Append(HistoryEntry{
			Timestamp:    "2025-05-07 12:00:00",
			TotalRecords: i,
		}))
	}

	entries := h.Entries()
	require.Len(t, entries, 30)
	assert.Equal(t, 5, entries[0].TotalRecords)
	assert.Equal(t, 34, entries[29].TotalRecords)
}

func TestHistoryLogDefaultLimit(t *testing.T) {
	t.Parallel()

	h := NewHistoryLog(filepath.Join(t.TempDir(), "history.json"), 0)
	assert.Equal(t, 30, h.limit)
}

func TestHistoryLogDocumentShape(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	h := NewHistoryLog(path, 30)
	require.NoError(t, h.Append(HistoryEntry{Timestamp: "2025-05-07 12:00:00"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"records"`)
	// Absent trend fields are omitted, not serialized as null.
	assert.NotContains(t, string(data), `"trend"`)
	assert.NotContains(t, string(data), `"last_value"`)
}
