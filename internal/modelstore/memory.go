package modelstore

import (
	"context"
	"sync"

	"fluxcore/pkg/metnet"
)

// Memory is an in-process model store for tests and the CLI.
type Memory struct {
	mu       sync.RWMutex
	wrappers map[string]*Wrapper
}

// NewMemory returns an empty in-memory model store.
func NewMemory() *Memory { return &Memory{wrappers: make(map[string]*Wrapper)} }

var _ Store = (*Memory)(nil)

// Put registers a wrapper under the model id.
func (s *Memory) Put(id string, w *Wrapper) {
	s.mu.Lock()
	s.wrappers[id] = w
	s.mu.Unlock()
}

// Get returns the canonical wrapper for the model id.
func (s *Memory) Get(_ context.Context, id string) (*Wrapper, error) {
	s.mu.RLock()
	w, ok := s.wrappers[id]
	s.mu.RUnlock()
	if !ok {
		return nil, metnet.NotFoundError{Kind: metnet.KindModel, ID: id}
	}
	return w, nil
}

// Preload is a no-op for the memory store.
func (s *Memory) Preload(context.Context) error { return nil }
