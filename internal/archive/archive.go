// Package archive persists raw fetched page bodies so a harvest can be
// replayed or audited after the fact. Archiving is best-effort: the pipeline
// logs failures and keeps going.
package archive

import "context"

// Provider saves one raw artifact under an object name.
type Provider interface {
	Save(ctx context.Context, objectName string, data []byte) error
}

// NoOp discards every artifact. Used when archiving is switched off.
type NoOp struct{}

// Save does nothing and always succeeds.
func (NoOp) Save(_ context.Context, _ string, _ []byte) error { return nil }
