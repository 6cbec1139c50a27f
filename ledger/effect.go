/*
Package ledger applies, reverses and re-applies transaction side effects.

PURPOSE:
  A transaction is either ACTIVE (its effects are applied and it is in the
  ledger) or ABSENT. This package moves transactions between those states
  against a pos.Snapshot so that aggregate state always equals the baseline
  plus the effects of the currently active transactions:

    stock(p)   = baseline(p) + sum(PURCHASE qty) - sum(SALE qty)
    balance(c) = baseline(c) + sum(DEBT sales) - sum(DEBT purchases)
                             - sum(DEBT_PAYMENT)

KEY CONCEPTS IN THIS FILE (effect.go):
  - Effect:   The stock and balance delta a transaction implies
  - EffectOf: Pure function computing the apply-direction effect
  - Invert:   Algebraic inverse used for delete and edit

EFFECT TABLE:
  SALE          stock -= qty        balance += total  (DEBT + partner only)
  PURCHASE      stock += qty        balance -= total  (DEBT + partner only)
  DEBT_PAYMENT  -                   balance -= total
  EXPENSE       -                   -
  SALARY        -                   -

SEE ALSO:
  - engine.go: Create / Delete / Edit / PayDebt
  - book.go: Serialized owner of the canonical snapshot
  - store.go: Snapshot persistence interface
*/
package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/ziyobook/pos-ledger/pos"
)

// =============================================================================
// EFFECT - Stock and balance delta of one transaction
// =============================================================================

// StockDelta changes one product's stock by Qty (signed).
type StockDelta struct {
	ProductID pos.ProductID
	Qty       int
}

// BalanceDelta changes one partner's balance by Amount (signed).
type BalanceDelta struct {
	PartnerID pos.PartnerID
	Amount    decimal.Decimal
}

// Effect is the full delta of a transaction. Stock deltas keep item order;
// repeated products are additive.
type Effect struct {
	Stock   []StockDelta
	Balance *BalanceDelta
}

// IsZero reports whether applying e changes nothing.
func (e Effect) IsZero() bool {
	return len(e.Stock) == 0 && e.Balance == nil
}

// Invert returns the effect that exactly cancels e.
func (e Effect) Invert() Effect {
	out := Effect{}
	if len(e.Stock) > 0 {
		out.Stock = make([]StockDelta, len(e.Stock))
		for i, d := range e.Stock {
			out.Stock[i] = StockDelta{ProductID: d.ProductID, Qty: -d.Qty}
		}
	}
	if e.Balance != nil {
		out.Balance = &BalanceDelta{PartnerID: e.Balance.PartnerID, Amount: e.Balance.Amount.Neg()}
	}
	return out
}

// NetStock folds the stock deltas into one delta per product.
func (e Effect) NetStock() map[pos.ProductID]int {
	net := make(map[pos.ProductID]int, len(e.Stock))
	for _, d := range e.Stock {
		net[d.ProductID] += d.Qty
	}
	return net
}

// =============================================================================
// EFFECT CALCULATOR
// =============================================================================

// EffectOf computes the effect of applying tx. It only fails for an
// unrecognized transaction type.
func EffectOf(tx pos.Transaction) (Effect, error) {
	switch tx.Type {
	case pos.TxSale:
		eff := Effect{Stock: itemDeltas(tx.Items, -1)}
		if tx.OnDebt() {
			eff.Balance = &BalanceDelta{PartnerID: tx.PartnerID, Amount: tx.TotalAmount}
		}
		return eff, nil

	case pos.TxPurchase:
		eff := Effect{Stock: itemDeltas(tx.Items, +1)}
		if tx.OnDebt() {
			eff.Balance = &BalanceDelta{PartnerID: tx.PartnerID, Amount: tx.TotalAmount.Neg()}
		}
		return eff, nil

	case pos.TxDebtPayment:
		eff := Effect{}
		if tx.PartnerID != "" {
			eff.Balance = &BalanceDelta{PartnerID: tx.PartnerID, Amount: tx.TotalAmount.Neg()}
		}
		return eff, nil

	case pos.TxExpense, pos.TxSalary:
		return Effect{}, nil
	}

	return Effect{}, &pos.StructuralError{
		TransactionID: tx.ID,
		Field:         "type",
		Reason:        "unknown transaction type " + string(tx.Type),
	}
}

// ReversalOf computes the effect that undoes tx.
func ReversalOf(tx pos.Transaction) (Effect, error) {
	eff, err := EffectOf(tx)
	if err != nil {
		return Effect{}, err
	}
	return eff.Invert(), nil
}

func itemDeltas(items []pos.LineItem, sign int) []StockDelta {
	if len(items) == 0 {
		return nil
	}
	out := make([]StockDelta, len(items))
	for i, item := range items {
		out[i] = StockDelta{ProductID: item.ProductID, Qty: sign * item.Qty}
	}
	return out
}
