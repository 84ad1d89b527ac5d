// Package modelstore loads canonical metabolic models from blob storage
// and caches the decoded form. Canonical models are read-only; callers
// that mutate must work on a Copy.
package modelstore

import (
	"context"

	"fluxcore/pkg/metnet"
)

// Wrapper pairs a decoded model with the platform metadata stored
// alongside it.
type Wrapper struct {
	Model           *metnet.Model
	OrganismID      string
	BiomassReaction string
}

// Copy returns a wrapper holding a deep copy of the model, safe for
// mutation by the caller.
func (w *Wrapper) Copy() *Wrapper {
	return &Wrapper{
		Model:           w.Model.Copy(),
		OrganismID:      w.OrganismID,
		BiomassReaction: w.BiomassReaction,
	}
}

// Store resolves model identifiers to canonical wrappers.
type Store interface {
	// Get returns the canonical wrapper for the model id. The returned
	// wrapper is shared; mutate via Copy only.
	Get(ctx context.Context, id string) (*Wrapper, error)
	// Preload warms the store so first-request latency stays flat.
	Preload(ctx context.Context) error
}
