package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// HistoryEntry is one monitoring run's output. Trend fields are present only
// when trend analysis ran.
type HistoryEntry struct {
	Timestamp    string   `json:"timestamp"`
	TotalRecords int      `json:"total_records"`
	NullRecords  int      `json:"null_records"`
	Trend        string   `json:"trend,omitempty"`
	LastValue    *float64 `json:"last_value,omitempty"`
	MovingAvg    *float64 `json:"moving_avg,omitempty"`
}

type historyDocument struct {
	Records []HistoryEntry `json:"records"`
}

// HistoryLog is a bounded ring of monitoring summaries persisted as a JSON
// document with a single top-level "records" list, most recent last. The
// monitor is its only writer.
type HistoryLog struct {
	path  string
	limit int
}

// NewHistoryLog opens a history log at path, retaining at most limit
// entries (oldest evicted first).
func NewHistoryLog(path string, limit int) *HistoryLog {
	if limit <= 0 {
		limit = 30
	}
	return &HistoryLog{path: path, limit: limit}
}

// Entries returns the retained entries, oldest first. A missing or corrupt
// file reads as empty.
func (h *HistoryLog) Entries() []HistoryEntry {
	data, err := os.ReadFile(h.path)
	if err != nil {
		return nil
	}
	var doc historyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	return doc.Records
}

// Append adds one entry, evicting the oldest beyond the limit. The document
// is written through a temp file and rename so a failed write never leaves a
// truncated log behind.
func (h *HistoryLog) Append(entry HistoryEntry) error {
	doc := historyDocument{Records: h.Entries()}
	doc.Records = append(doc.Records, entry)
	if len(doc.Records) > h.limit {
		doc.Records = doc.Records[len(doc.Records)-h.limit:]
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history log: %w", err)
	}

	dir := filepath.Dir(h.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		return fmt.Errorf("create history temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write history log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close history temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), h.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace history log: %w", err)
	}
	return nil
}
