// Package csv implements the stores on top of flat CSV snapshots, one file
// per domain with a fixed named column schema. Writes go through a temp file
// and rename so an interrupted run never leaves a truncated snapshot; an
// absent file loads as an empty, correctly typed result.
package csv

import (
	stdcsv "encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vigiadata/vigia/internal/record"
	"github.com/vigiadata/vigia/internal/store"
)

// writeSnapshot persists header+rows at path. In append mode the existing
// file content is carried over verbatim and the header is not repeated.
func writeSnapshot(path string, header []string, rows [][]string, mode store.Mode) error {
	var existing []byte
	if mode == store.Append {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			existing = b
		case !os.IsNotExist(err):
			return fmt.Errorf("read existing snapshot: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	if len(existing) > 0 {
		if _, err := tmp.Write(existing); err != nil {
			cleanup()
			return fmt.Errorf("copy existing snapshot: %w", err)
		}
		if existing[len(existing)-1] != '\n' {
			if _, err := tmp.Write([]byte("\n")); err != nil {
				cleanup()
				return fmt.Errorf("copy existing snapshot: %w", err)
			}
		}
	}

	w := stdcsv.NewWriter(tmp)
	if len(existing) == 0 {
		if err := w.Write(header); err != nil {
			cleanup()
			return fmt.Errorf("write snapshot header: %w", err)
		}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			cleanup()
			return fmt.Errorf("write snapshot row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		cleanup()
		return fmt.Errorf("flush snapshot: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// readSnapshot loads the rows below the header. An absent file reads as
// empty; that is the idempotent-load contract, not an error.
func readSnapshot(path string, wantColumns int) ([][]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	r := stdcsv.NewReader(f)
	r.FieldsPerRecord = wantColumns
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	if len(all) <= 1 {
		return nil, nil
	}
	return all[1:], nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func derefStr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func parseFloatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseIntPtr(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func parseStrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return record.Str(s)
}
