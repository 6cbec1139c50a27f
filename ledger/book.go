package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ziyobook/pos-ledger/pos"
)

// =============================================================================
// BOOK - Serialized owner of the canonical snapshot
// =============================================================================

// Book owns the shop's current snapshot. It runs ledger operations one at a
// time against the latest local snapshot, publishes the result locally and
// then saves it to the store.
//
// Snapshots pushed by the store (other sessions writing the same store)
// replace the local snapshot wholesale. Nothing is merged: an operation
// computed from a snapshot that is replaced before its save completes will
// overwrite the pushed one.
type Book struct {
	engine *Engine
	store  SnapshotStore
	logger *slog.Logger

	opMu sync.Mutex // serializes operations

	mu          sync.RWMutex // guards current
	current     pos.Snapshot
	unsubscribe func()
}

func NewBook(engine *Engine, store SnapshotStore, logger *slog.Logger) *Book {
	if logger == nil {
		logger = slog.Default()
	}
	return &Book{
		engine:  engine,
		store:   store,
		logger:  logger,
		current: pos.EmptySnapshot(),
	}
}

// Open loads the stored snapshot and starts following external updates.
func (b *Book) Open(ctx context.Context) error {
	snap, err := b.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	b.set(snap)

	b.mu.Lock()
	if b.unsubscribe == nil {
		b.unsubscribe = b.store.Subscribe(b.onExternal)
	}
	b.mu.Unlock()

	b.logger.Info("book opened",
		"products", len(snap.Products),
		"partners", len(snap.Partners),
		"transactions", len(snap.Transactions))
	return nil
}

// Close stops following external updates.
func (b *Book) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

// Snapshot returns a copy of the current state.
func (b *Book) Snapshot() pos.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current.Clone()
}

func (b *Book) onExternal(s pos.Snapshot) {
	b.set(s)
}

func (b *Book) set(s pos.Snapshot) {
	b.mu.Lock()
	b.current = s.Clone()
	b.mu.Unlock()
}

// =============================================================================
// LEDGER OPERATIONS
// =============================================================================

func (b *Book) Create(ctx context.Context, tx pos.Transaction) (pos.Snapshot, error) {
	return b.commit(ctx, "create", func(s pos.Snapshot) (pos.Snapshot, error) {
		return b.engine.Create(tx, s)
	})
}

// Edit replaces the active transaction with next.ID by next.
func (b *Book) Edit(ctx context.Context, next pos.Transaction) (pos.Snapshot, error) {
	return b.commit(ctx, "edit", func(s pos.Snapshot) (pos.Snapshot, error) {
		i, ok := s.FindTransaction(next.ID)
		if !ok {
			return s, fmt.Errorf("edit %s: %w", next.ID, pos.ErrTransactionNotFound)
		}
		return b.engine.Edit(s.Transactions[i], next, s)
	})
}

func (b *Book) Delete(ctx context.Context, id pos.TransactionID) (pos.Snapshot, error) {
	return b.commit(ctx, "delete", func(s pos.Snapshot) (pos.Snapshot, error) {
		return b.engine.Delete(id, s)
	})
}

// PayDebt records a debt payment for an existing partner.
func (b *Book) PayDebt(ctx context.Context, in PayDebtInput) (pos.Transaction, error) {
	var tx pos.Transaction
	_, err := b.commit(ctx, "pay_debt", func(s pos.Snapshot) (pos.Snapshot, error) {
		if _, ok := s.Partner(in.PartnerID); !ok {
			return s, fmt.Errorf("pay debt %s: %w", in.PartnerID, pos.ErrPartnerNotFound)
		}
		out, created, err := b.engine.PayDebt(in, s)
		tx = created
		return out, err
	})
	if err != nil {
		return pos.Transaction{}, err
	}
	return tx, nil
}

// =============================================================================
// CATALOG OPERATIONS
// =============================================================================

func (b *Book) PutProduct(ctx context.Context, p pos.Product) (pos.Snapshot, error) {
	return b.commit(ctx, "put_product", func(s pos.Snapshot) (pos.Snapshot, error) {
		return s.PutProduct(p), nil
	})
}

func (b *Book) RemoveProduct(ctx context.Context, id pos.ProductID) (pos.Snapshot, error) {
	return b.commit(ctx, "remove_product", func(s pos.Snapshot) (pos.Snapshot, error) {
		return s.RemoveProduct(id)
	})
}

func (b *Book) PutPartner(ctx context.Context, p pos.Partner) (pos.Snapshot, error) {
	return b.commit(ctx, "put_partner", func(s pos.Snapshot) (pos.Snapshot, error) {
		return s.PutPartner(p), nil
	})
}

func (b *Book) RemovePartner(ctx context.Context, id pos.PartnerID) (pos.Snapshot, error) {
	return b.commit(ctx, "remove_partner", func(s pos.Snapshot) (pos.Snapshot, error) {
		return s.RemovePartner(id)
	})
}

func (b *Book) PutEmployee(ctx context.Context, e pos.Employee) (pos.Snapshot, error) {
	return b.commit(ctx, "put_employee", func(s pos.Snapshot) (pos.Snapshot, error) {
		return s.PutEmployee(e), nil
	})
}

func (b *Book) RemoveEmployee(ctx context.Context, id pos.EmployeeID) (pos.Snapshot, error) {
	return b.commit(ctx, "remove_employee", func(s pos.Snapshot) (pos.Snapshot, error) {
		return s.RemoveEmployee(id)
	})
}

// Replace swaps in an entirely new snapshot (demo scenarios, restores).
func (b *Book) Replace(ctx context.Context, s pos.Snapshot) error {
	_, err := b.commit(ctx, "replace", func(pos.Snapshot) (pos.Snapshot, error) {
		return s.Clone(), nil
	})
	return err
}

// commit runs fn against the current snapshot while holding the operation
// lock. On success the local snapshot advances before the save is attempted,
// so a failed save leaves local state ahead of the store; the save error is
// returned as-is.
func (b *Book) commit(ctx context.Context, op string, fn func(pos.Snapshot) (pos.Snapshot, error)) (pos.Snapshot, error) {
	b.opMu.Lock()
	defer b.opMu.Unlock()

	next, err := fn(b.Snapshot())
	if err != nil {
		return pos.Snapshot{}, err
	}
	b.set(next)

	if err := b.store.Save(ctx, next); err != nil {
		b.logger.Error("snapshot save failed", "op", op, "error", err)
		return next.Clone(), err
	}
	b.logger.Debug("ledger operation committed", "op", op, "transactions", len(next.Transactions))
	return next.Clone(), nil
}
