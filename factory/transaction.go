/*
Package factory converts JSON transaction payloads into pos.Transaction values.

PURPOSE:
  Clients post loosely-typed JSON where which fields matter depends on
  "type". The factory dispatches on the type, builds the matching variant
  through the pos constructors (which drop fields the variant doesn't carry),
  and validates the result. Everything it returns passes
  pos.Transaction.Validate.

JSON SCHEMA:
  {
    "id": "optional, generated if absent",
    "date": "2025-03-01T10:15:00Z (optional, now if absent)",
    "type": "SALE | PURCHASE | EXPENSE | SALARY | DEBT_PAYMENT",
    "items": [{"productId": "1", "qty": 2, "priceSell": 45000, "priceBuy": 30000}],
    "paymentMethod": "CASH | CARD | DEBT",
    "partnerId": "p1",
    "employeeId": "e1",
    "totalAmount": 90000,
    "note": "..."
  }

TOTALS:
  SALE and PURCHASE totals are computed from the items unless the payload
  carries an explicit totalAmount, which is then kept as given (the ledger
  engine carries caller totals on create and only recomputes on edit).

ID GENERATOR AND CLOCK:
  The ledger engine never invents ids or reads the clock. The factory does,
  through its IDs and Now hooks (uuid and wall clock by default), so tests
  can pin both.

SEE ALSO:
  - pos/transaction.go: Variant constructors and structural validation
  - api/handlers.go: Uses the factory for POST/PUT /api/transactions
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ziyobook/pos-ledger/pos"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// TransactionJSON is the wire representation of a transaction.
type TransactionJSON struct {
	ID            string           `json:"id,omitempty"`
	Date          *time.Time       `json:"date,omitempty"`
	Type          string           `json:"type" validate:"required"`
	Items         []ItemJSON       `json:"items,omitempty" validate:"dive"`
	PaymentMethod string           `json:"paymentMethod,omitempty" validate:"omitempty,oneof=CASH CARD DEBT"`
	PartnerID     string           `json:"partnerId,omitempty"`
	EmployeeID    string           `json:"employeeId,omitempty"`
	TotalAmount   *decimal.Decimal `json:"totalAmount,omitempty"`
	Profit        *decimal.Decimal `json:"profit,omitempty"`
	Note          string           `json:"note,omitempty" validate:"max=500"`
}

// ItemJSON is one line item. Missing name or prices are filled from the
// catalog by ParseWithCatalog.
type ItemJSON struct {
	ProductID string           `json:"productId" validate:"required"`
	Name      string           `json:"name,omitempty"`
	Qty       int              `json:"qty" validate:"gt=0"`
	PriceBuy  *decimal.Decimal `json:"priceBuy,omitempty"`
	PriceSell *decimal.Decimal `json:"priceSell,omitempty"`
}

// =============================================================================
// TRANSACTION FACTORY
// =============================================================================

// TransactionFactory converts JSON payloads to transactions.
type TransactionFactory struct {
	IDs func() string
	Now func() time.Time

	validate *validator.Validate
}

// NewTransactionFactory creates a factory with uuid ids and the wall clock.
func NewTransactionFactory() *TransactionFactory {
	return &TransactionFactory{
		IDs:      uuid.NewString,
		Now:      time.Now,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Parse decodes and builds a transaction without catalog lookups.
func (f *TransactionFactory) Parse(data []byte) (pos.Transaction, error) {
	return f.ParseWithCatalog(data, pos.Snapshot{})
}

// ParseWithCatalog decodes a payload and fills missing item names and prices
// from the products in catalog, snapshotting them into the line items.
func (f *TransactionFactory) ParseWithCatalog(data []byte, catalog pos.Snapshot) (pos.Transaction, error) {
	var tj TransactionJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return pos.Transaction{}, &pos.StructuralError{Field: "body", Reason: "invalid JSON: " + err.Error()}
	}
	return f.Build(tj, catalog)
}

// Build converts a decoded payload into a validated transaction.
func (f *TransactionFactory) Build(tj TransactionJSON, catalog pos.Snapshot) (pos.Transaction, error) {
	if err := f.validate.Struct(tj); err != nil {
		return pos.Transaction{}, toStructural(tj.ID, err)
	}

	id := pos.TransactionID(tj.ID)
	if id == "" {
		id = pos.TransactionID(f.IDs())
	}
	date := f.Now().UTC()
	if tj.Date != nil {
		date = tj.Date.UTC()
	}

	var tx pos.Transaction
	switch pos.TransactionType(tj.Type) {
	case pos.TxSale:
		tx = pos.NewSale(id, date, buildItems(tj.Items, catalog), pos.PaymentMethod(tj.PaymentMethod), pos.PartnerID(tj.PartnerID))
		tx = overrideTotals(tx, tj)
	case pos.TxPurchase:
		tx = pos.NewPurchase(id, date, buildItems(tj.Items, catalog), pos.PaymentMethod(tj.PaymentMethod), pos.PartnerID(tj.PartnerID))
		tx = overrideTotals(tx, tj)
	case pos.TxExpense:
		tx = pos.NewExpense(id, date, amountOf(tj), tj.Note)
	case pos.TxSalary:
		tx = pos.NewSalary(id, date, pos.EmployeeID(tj.EmployeeID), amountOf(tj), tj.Note)
	case pos.TxDebtPayment:
		if err := pos.RequirePositive("totalAmount", amountOf(tj)); err != nil {
			return pos.Transaction{}, err
		}
		tx = pos.NewDebtPayment(id, date, pos.PartnerID(tj.PartnerID), amountOf(tj), tj.Note)
	default:
		return pos.Transaction{}, &pos.StructuralError{TransactionID: id, Field: "type", Reason: "unknown transaction type " + tj.Type}
	}

	if tx.Type.HasItems() && tj.Note != "" {
		tx.Note = tj.Note
	}
	if err := tx.Validate(); err != nil {
		return pos.Transaction{}, err
	}
	return tx, nil
}

func buildItems(items []ItemJSON, catalog pos.Snapshot) []pos.LineItem {
	out := make([]pos.LineItem, 0, len(items))
	for _, ij := range items {
		item := pos.LineItem{ProductID: pos.ProductID(ij.ProductID), Name: ij.Name, Qty: ij.Qty}
		if p, ok := catalog.Product(item.ProductID); ok {
			item = pos.NewLineItem(p, ij.Qty)
			if ij.Name != "" {
				item.Name = ij.Name
			}
		}
		if ij.PriceBuy != nil {
			item.PriceBuy = *ij.PriceBuy
		}
		if ij.PriceSell != nil {
			item.PriceSell = *ij.PriceSell
		}
		out = append(out, item)
	}
	return out
}

// WithCapturedPrices returns a copy of catalog in which every product on
// items carries the name and prices captured on those items. Products no
// longer in the catalog are added back. Editing a transaction builds
// against this catalog so unchanged lines keep their recorded prices.
func WithCapturedPrices(catalog pos.Snapshot, items []pos.LineItem) pos.Snapshot {
	out := pos.Snapshot{Products: append([]pos.Product{}, catalog.Products...)}
	index := out.ProductIndex()
	seen := map[pos.ProductID]bool{}
	for _, item := range items {
		if seen[item.ProductID] {
			continue
		}
		seen[item.ProductID] = true

		i, ok := index[item.ProductID]
		if !ok {
			out.Products = append(out.Products, pos.Product{ID: item.ProductID})
			i = len(out.Products) - 1
		}
		out.Products[i].Name = item.Name
		out.Products[i].PriceBuy = item.PriceBuy
		out.Products[i].PriceSell = item.PriceSell
	}
	return out
}

func overrideTotals(tx pos.Transaction, tj TransactionJSON) pos.Transaction {
	if tj.TotalAmount != nil {
		tx.TotalAmount = *tj.TotalAmount
	}
	if tj.Profit != nil && tx.Type == pos.TxSale {
		p := *tj.Profit
		tx.Profit = &p
	}
	return tx
}

func amountOf(tj TransactionJSON) decimal.Decimal {
	if tj.TotalAmount == nil {
		return decimal.Zero
	}
	return *tj.TotalAmount
}

// toStructural reports the first validator failure as a StructuralError.
func toStructural(id string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &pos.StructuralError{
			TransactionID: pos.TransactionID(id),
			Field:         fe.Namespace(),
			Reason:        fmt.Sprintf("failed on '%s'", fe.Tag()),
		}
	}
	return &pos.StructuralError{TransactionID: pos.TransactionID(id), Field: "body", Reason: err.Error()}
}
