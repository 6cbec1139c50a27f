/*
store.go - Persistence interface for the canonical snapshot

PURPOSE:
  The engine is pure; something has to keep the result. A SnapshotStore
  loads and saves the whole {products, partners, employees, transactions}
  snapshot and pushes updates made by other writers.

OVERWRITE CONTRACT:
  - Save() replaces the stored snapshot wholesale. Saving the same snapshot
    twice is harmless.
  - Load() of a store that has never been written returns an empty snapshot.
  - Absent optional values (no barcode, no partner, no profit) are stored as
    absent, never as an explicit null-ish placeholder.

LAST WRITER WINS:
  There is no versioning. Two sessions writing the same store race, and the
  later Save silently replaces the earlier one, including its stock and
  balance effects. Book serializes writes within one process only.

IMPLEMENTATIONS:
  - ledger/store/memory.go: In-memory for testing
  - store/sqlite/sqlite.go: SQLite

SEE ALSO:
  - book.go: Owner of the canonical snapshot
*/
package ledger

import (
	"context"
	"sync"

	"github.com/ziyobook/pos-ledger/pos"
)

// SnapshotStore persists the canonical snapshot.
type SnapshotStore interface {
	// Load returns the stored snapshot, or an empty one if nothing is stored.
	Load(ctx context.Context) (pos.Snapshot, error)

	// Save overwrites the stored snapshot.
	Save(ctx context.Context, s pos.Snapshot) error

	// Subscribe registers fn to receive every snapshot saved through the
	// store. The returned function unregisters it.
	Subscribe(fn func(pos.Snapshot)) (unsubscribe func())
}

// =============================================================================
// SUBSCRIBERS - Fan-out shared by store implementations
// =============================================================================

// Subscribers is a set of snapshot callbacks. The zero value is ready to use.
type Subscribers struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(pos.Snapshot)
}

// Add registers fn and returns its unsubscribe function. Calling the
// unsubscribe function more than once is harmless.
func (s *Subscribers) Add(fn func(pos.Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(pos.Snapshot))
	}
	id := s.nextID
	s.nextID++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

// Len returns the number of registered callbacks.
func (s *Subscribers) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}

// Notify calls every registered callback with its own copy of snap.
// Callbacks run on the caller's goroutine, outside the set's lock, so a
// callback may subscribe or unsubscribe.
func (s *Subscribers) Notify(snap pos.Snapshot) {
	s.mu.Lock()
	fns := make([]func(pos.Snapshot), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap.Clone())
	}
}
