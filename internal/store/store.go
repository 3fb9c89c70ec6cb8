// Package store defines durable persistence for canonical records. The
// store is the single source of truth: the pipeline writes it, the monitor
// and any dashboard read it.
package store

import (
	"context"

	"github.com/vigiadata/vigia/internal/record"
)

// Mode selects how Save treats previously persisted rows.
type Mode int

// Save modes.
const (
	// Overwrite replaces the snapshot wholesale.
	Overwrite Mode = iota
	// Append preserves previously persisted rows and adds the new ones.
	Append
)

func (m Mode) String() string {
	if m == Append {
		return "append"
	}
	return "overwrite"
}

// ProductStore persists canonical product records. Load returns an empty
// (typed) result when no snapshot exists yet.
type ProductStore interface {
	Load(ctx context.Context) ([]record.Product, error)
	Save(ctx context.Context, records []record.Product, mode Mode) error
}

// IndicatorStore persists canonical indicator records.
type IndicatorStore interface {
	Load(ctx context.Context) ([]record.Indicator, error)
	Save(ctx context.Context, records []record.Indicator, mode Mode) error
}
