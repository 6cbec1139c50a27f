// Package store provides SnapshotStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/ziyobook/pos-ledger/ledger"
	"github.com/ziyobook/pos-ledger/pos"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	snapshot pos.Snapshot
	saved    bool
	saves    int

	subs ledger.Subscribers
}

func NewMemory() *Memory {
	return &Memory{snapshot: pos.EmptySnapshot()}
}

// NewMemoryWith returns a store pre-loaded with s, as if it had been saved.
func NewMemoryWith(s pos.Snapshot) *Memory {
	return &Memory{snapshot: s.Clone(), saved: true}
}

// Load returns a copy of the stored snapshot.
func (m *Memory) Load(_ context.Context) (pos.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.Clone(), nil
}

// Save overwrites the stored snapshot and notifies subscribers after the
// store's lock is released.
func (m *Memory) Save(_ context.Context, s pos.Snapshot) error {
	m.mu.Lock()
	m.snapshot = s.Clone()
	m.saved = true
	m.saves++
	m.mu.Unlock()

	m.subs.Notify(s)
	return nil
}

func (m *Memory) Subscribe(fn func(pos.Snapshot)) func() {
	return m.subs.Add(fn)
}

// Saved reports whether anything has been stored yet.
func (m *Memory) Saved() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saved
}

// SaveCount returns how many times Save has been called.
func (m *Memory) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
