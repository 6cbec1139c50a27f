/*
Package pos defines the domain model of the bookstore point-of-sale system.

PURPOSE:
  Products, partners (customers and suppliers), employees and the unified
  transaction ledger. The ledger package applies and reverses transaction
  effects against these types; this package only describes them.

KEY CONCEPTS IN THIS FILE (types.go):
  - Product:     Stock-keeping item with cost, sell price and reorder threshold
  - Partner:     Customer or supplier with a signed running balance
  - Employee:    Staff member; referenced by SALARY transactions only
  - Transaction: Ledger entry, tagged by Type (see transaction.go)

BALANCE CONVENTION:
  CUSTOMER balance > 0  -> the customer owes the store
  SUPPLIER balance < 0  -> the store owes the supplier

DESIGN PRINCIPLES:
  1. Precision: Money uses decimal.Decimal, never float64
  2. Snapshots: Line items copy product prices at transaction time
  3. Immutability: Transactions are replaced wholesale, never patched

SEE ALSO:
  - transaction.go: Transaction variants and structural validation
  - snapshot.go: Snapshot container and catalog helpers
  - errors.go: Error taxonomy
*/
package pos

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ProductID string
type PartnerID string
type EmployeeID string
type TransactionID string

// =============================================================================
// PRODUCT
// =============================================================================

type Product struct {
	ID        ProductID       `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	PriceBuy  decimal.Decimal `json:"priceBuy"`
	PriceSell decimal.Decimal `json:"priceSell"`
	Stock     int             `json:"stock"`
	MinStock  int             `json:"minStock"`
	Barcode   string          `json:"barcode,omitempty"`
	ImageURL  string          `json:"imageUrl,omitempty"`
}

// NeedsReorder reports whether stock has fallen to the reorder threshold.
func (p Product) NeedsReorder() bool {
	return p.Stock <= p.MinStock
}

// Margin is the per-unit markup at current prices.
func (p Product) Margin() decimal.Decimal {
	return p.PriceSell.Sub(p.PriceBuy)
}

// =============================================================================
// PARTNER
// =============================================================================

type PartnerType string

const (
	PartnerCustomer PartnerType = "CUSTOMER"
	PartnerSupplier PartnerType = "SUPPLIER"
)

func (t PartnerType) Valid() bool {
	return t == PartnerCustomer || t == PartnerSupplier
}

type Partner struct {
	ID      PartnerID       `json:"id"`
	Name    string          `json:"name"`
	Phone   string          `json:"phone"`
	Type    PartnerType     `json:"type"`
	Balance decimal.Decimal `json:"balance"`
}

// Debt returns the outstanding amount under the partner's balance convention:
// what a customer owes the store, or what the store owes a supplier.
// Zero when nothing is outstanding.
func (p Partner) Debt() decimal.Decimal {
	switch p.Type {
	case PartnerCustomer:
		if p.Balance.IsPositive() {
			return p.Balance
		}
	case PartnerSupplier:
		if p.Balance.IsNegative() {
			return p.Balance.Neg()
		}
	}
	return decimal.Zero
}

// HasDebt reports whether anything is outstanding.
func (p Partner) HasDebt() bool {
	return p.Debt().IsPositive()
}

// =============================================================================
// EMPLOYEE
// =============================================================================

type Employee struct {
	ID     EmployeeID      `json:"id"`
	Name   string          `json:"name"`
	Role   string          `json:"role"`
	Phone  string          `json:"phone"`
	Salary decimal.Decimal `json:"salary"`
}
