package ledger

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ziyobook/pos-ledger/pos"
)

// =============================================================================
// ENGINE - Create / Delete / Edit against a snapshot
// =============================================================================

// Options tunes engine policy.
type Options struct {
	// AllowNegativeStock lets sales (and reversals of purchases) drive stock
	// below zero. When false such operations fail with InsufficientStockError.
	AllowNegativeStock bool
}

// Engine is a pure snapshot transformer. Every operation takes the current
// snapshot by value and returns the next one; on error the input is returned
// unchanged. The engine never generates ids or reads the clock.
//
// Missing products or partners are skipped (logged at debug level), never
// reported: deleted catalog entries are normal in a long-lived store.
//
// Engine holds no mutable state and is safe for concurrent use, but callers
// that share one canonical snapshot must serialize operations (see Book).
type Engine struct {
	Options Options
	Logger  *slog.Logger
}

func NewEngine(opts Options, logger *slog.Logger) *Engine {
	return &Engine{Options: opts, Logger: logger}
}

// Create applies tx's effects and prepends it to the ledger.
// The caller is responsible for a consistent TotalAmount and Profit.
func (e *Engine) Create(tx pos.Transaction, s pos.Snapshot) (pos.Snapshot, error) {
	if err := tx.Validate(); err != nil {
		return s, err
	}
	if _, exists := s.FindTransaction(tx.ID); exists {
		return s, fmt.Errorf("create %s: %w", tx.ID, pos.ErrDuplicateTransaction)
	}
	eff, err := EffectOf(tx)
	if err != nil {
		return s, err
	}

	out := s.Clone()
	e.apply(&out, tx.ID, eff)
	e.trackPurchaseCost(&out, tx, nil)
	out.Transactions = append([]pos.Transaction{tx.Clone()}, out.Transactions...)

	if err := e.checkStock(s, out); err != nil {
		return s, err
	}
	return out, nil
}

// Delete reverts the effects of the transaction with the given id and removes
// it from the ledger. Deleting an id that is not in the ledger is a no-op.
func (e *Engine) Delete(id pos.TransactionID, s pos.Snapshot) (pos.Snapshot, error) {
	if id == "" {
		return s, &pos.StructuralError{Field: "id", Reason: "required"}
	}
	i, ok := s.FindTransaction(id)
	if !ok {
		return s, nil
	}
	rev, err := ReversalOf(s.Transactions[i])
	if err != nil {
		return s, err
	}

	out := s.Clone()
	e.apply(&out, id, rev)
	out.Transactions = append(out.Transactions[:i], out.Transactions[i+1:]...)

	if err := e.checkStock(s, out); err != nil {
		return s, err
	}
	return out, nil
}

// Edit replaces the active transaction old.ID with next.
//
// The stored version of the transaction is reverted first and next is then
// applied against the reverted state, so an item present in both nets out:
// editing a sale from 3 to 5 units moves stock by +3 then -5.
//
// For SALE and PURCHASE, next's TotalAmount and Profit are recomputed from
// its items' snapshot prices; whatever the caller supplied is overwritten.
// Other types keep the caller's TotalAmount.
func (e *Engine) Edit(old, next pos.Transaction, s pos.Snapshot) (pos.Snapshot, error) {
	if old.ID == "" {
		return s, &pos.StructuralError{Field: "id", Reason: "required"}
	}
	if next.ID != old.ID {
		return s, &pos.StructuralError{TransactionID: next.ID, Field: "id", Reason: "must match the edited transaction " + string(old.ID)}
	}
	i, ok := s.FindTransaction(old.ID)
	if !ok {
		return s, fmt.Errorf("edit %s: %w", old.ID, pos.ErrTransactionNotFound)
	}

	next = e.Recompute(next)
	if err := next.Validate(); err != nil {
		return s, err
	}
	rev, err := ReversalOf(s.Transactions[i])
	if err != nil {
		return s, err
	}
	eff, err := EffectOf(next)
	if err != nil {
		return s, err
	}

	out := s.Clone()
	e.apply(&out, old.ID, rev)
	e.apply(&out, next.ID, eff)
	e.trackPurchaseCost(&out, next, s.Transactions[:i])
	out.Transactions[i] = next.Clone()

	if err := e.checkStock(s, out); err != nil {
		return s, err
	}
	return out, nil
}

// Recompute derives TotalAmount and Profit from item snapshot prices for
// item-bearing transactions. Other transactions are returned as-is.
func (e *Engine) Recompute(tx pos.Transaction) pos.Transaction {
	if !tx.Type.HasItems() {
		return tx
	}
	return tx.Recalculate()
}

// =============================================================================
// PAY DEBT
// =============================================================================

// PayDebtInput describes a partner settling debt. ID and Date are assigned by
// the caller.
type PayDebtInput struct {
	ID        pos.TransactionID
	Date      time.Time
	PartnerID pos.PartnerID
	Amount    decimal.Decimal
	Note      string
}

// PayDebt records a DEBT_PAYMENT through Create. Only non-positive amounts are
// rejected; paying more than is owed simply drives the balance past zero.
func (e *Engine) PayDebt(in PayDebtInput, s pos.Snapshot) (pos.Snapshot, pos.Transaction, error) {
	if err := pos.RequirePositive("amount", in.Amount); err != nil {
		return s, pos.Transaction{}, err
	}
	tx := pos.NewDebtPayment(in.ID, in.Date, in.PartnerID, in.Amount, in.Note)
	out, err := e.Create(tx, s)
	if err != nil {
		return s, pos.Transaction{}, err
	}
	return out, tx, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

// apply mutates out, which must be a snapshot the caller owns.
func (e *Engine) apply(out *pos.Snapshot, txID pos.TransactionID, eff Effect) {
	if len(eff.Stock) > 0 {
		products := out.ProductIndex()
		for _, d := range eff.Stock {
			i, ok := products[d.ProductID]
			if !ok {
				e.logger().Debug("skipping stock effect for missing product",
					"tx_id", txID, "product_id", d.ProductID, "qty", d.Qty)
				continue
			}
			out.Products[i].Stock += d.Qty
		}
	}

	if eff.Balance != nil {
		partners := out.PartnerIndex()
		i, ok := partners[eff.Balance.PartnerID]
		if !ok {
			e.logger().Debug("skipping balance effect for missing partner",
				"tx_id", txID, "partner_id", eff.Balance.PartnerID, "amount", eff.Balance.Amount.String())
			return
		}
		out.Partners[i].Balance = out.Partners[i].Balance.Add(eff.Balance.Amount)
	}
}

// trackPurchaseCost moves each purchased product's live cost to the price
// paid on this purchase, unless a purchase in newer already set it. Newer
// holds the transactions ahead of tx in the ledger. Historical line items
// are never rewritten and the update is not undone when the purchase is
// deleted.
func (e *Engine) trackPurchaseCost(out *pos.Snapshot, tx pos.Transaction, newer []pos.Transaction) {
	if tx.Type != pos.TxPurchase {
		return
	}
	superseded := map[pos.ProductID]bool{}
	for _, n := range newer {
		if n.Type != pos.TxPurchase {
			continue
		}
		for _, item := range n.Items {
			superseded[item.ProductID] = true
		}
	}
	products := out.ProductIndex()
	for _, item := range tx.Items {
		if superseded[item.ProductID] {
			continue
		}
		if i, ok := products[item.ProductID]; ok {
			out.Products[i].PriceBuy = item.PriceBuy
		}
	}
}

// checkStock rejects the transition before -> after if negative stock is
// forbidden and some product went below zero by this operation.
func (e *Engine) checkStock(before, after pos.Snapshot) error {
	if e.Options.AllowNegativeStock {
		return nil
	}
	prev := before.ProductIndex()
	for _, p := range after.Products {
		if p.Stock >= 0 {
			continue
		}
		i, ok := prev[p.ID]
		if !ok || p.Stock < before.Products[i].Stock {
			was := 0
			if ok {
				was = before.Products[i].Stock
			}
			return &pos.InsufficientStockError{ProductID: p.ID, Before: was, After: p.Stock}
		}
	}
	return nil
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
