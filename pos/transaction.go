package pos

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TRANSACTION - Unified ledger entry
// =============================================================================

type TransactionType string

const (
	TxSale        TransactionType = "SALE"         // Goods leave stock, optionally on customer credit
	TxPurchase    TransactionType = "PURCHASE"     // Goods enter stock, optionally on supplier credit
	TxExpense     TransactionType = "EXPENSE"      // Operating cost, no stock or partner effect
	TxSalary      TransactionType = "SALARY"       // Salary payout to an employee
	TxDebtPayment TransactionType = "DEBT_PAYMENT" // Partner settles accrued debt
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TxSale, TxPurchase, TxExpense, TxSalary, TxDebtPayment:
		return true
	}
	return false
}

// HasItems reports whether transactions of this type carry line items.
func (t TransactionType) HasItems() bool {
	return t == TxSale || t == TxPurchase
}

type PaymentMethod string

const (
	PayCash PaymentMethod = "CASH"
	PayCard PaymentMethod = "CARD"
	PayDebt PaymentMethod = "DEBT"
)

func (m PaymentMethod) Valid() bool {
	return m == PayCash || m == PayCard || m == PayDebt
}

// LineItem is a product snapshot taken when the transaction was recorded.
// Prices here never follow later changes to the live Product.
type LineItem struct {
	ProductID ProductID       `json:"productId"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	PriceBuy  decimal.Decimal `json:"priceBuy"`
	PriceSell decimal.Decimal `json:"priceSell"`
}

// NewLineItem snapshots p's current name and prices for qty units.
func NewLineItem(p Product, qty int) LineItem {
	return LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Qty:       qty,
		PriceBuy:  p.PriceBuy,
		PriceSell: p.PriceSell,
	}
}

func (i LineItem) quantity() decimal.Decimal {
	return decimal.NewFromInt(int64(i.Qty))
}

// SellTotal is qty * priceSell.
func (i LineItem) SellTotal() decimal.Decimal {
	return i.PriceSell.Mul(i.quantity())
}

// CostTotal is qty * priceBuy.
func (i LineItem) CostTotal() decimal.Decimal {
	return i.PriceBuy.Mul(i.quantity())
}

// Transaction is a ledger entry. Which optional fields are meaningful depends
// on Type; use the New* constructors to build well-formed variants and
// Validate to check one received from outside.
type Transaction struct {
	ID            TransactionID    `json:"id"`
	Date          time.Time        `json:"date"`
	Type          TransactionType  `json:"type"`
	TotalAmount   decimal.Decimal  `json:"totalAmount"`
	Items         []LineItem       `json:"items,omitempty"`
	PartnerID     PartnerID        `json:"partnerId,omitempty"`
	EmployeeID    EmployeeID       `json:"employeeId,omitempty"`
	PaymentMethod PaymentMethod    `json:"paymentMethod,omitempty"`
	Note          string           `json:"note,omitempty"`
	Profit        *decimal.Decimal `json:"profit,omitempty"`
}

// OnDebt reports whether the transaction settles through a partner balance.
func (tx Transaction) OnDebt() bool {
	return tx.PaymentMethod == PayDebt && tx.PartnerID != ""
}

// Clone returns a copy that shares no mutable state with tx.
func (tx Transaction) Clone() Transaction {
	out := tx
	if tx.Items != nil {
		out.Items = append([]LineItem(nil), tx.Items...)
	}
	if tx.Profit != nil {
		p := *tx.Profit
		out.Profit = &p
	}
	return out
}

// Recalculate returns a copy whose TotalAmount and Profit are derived from
// the line items' snapshot prices. SALE totals use sell prices and carry a
// profit; PURCHASE totals use cost prices. Other types are returned unchanged.
func (tx Transaction) Recalculate() Transaction {
	out := tx.Clone()
	switch tx.Type {
	case TxSale:
		total, profit := decimal.Zero, decimal.Zero
		for _, item := range tx.Items {
			total = total.Add(item.SellTotal())
			profit = profit.Add(item.SellTotal().Sub(item.CostTotal()))
		}
		out.TotalAmount = total
		out.Profit = &profit
	case TxPurchase:
		total := decimal.Zero
		for _, item := range tx.Items {
			total = total.Add(item.CostTotal())
		}
		out.TotalAmount = total
		out.Profit = nil
	}
	return out
}

// =============================================================================
// VARIANT CONSTRUCTORS
// =============================================================================

// NewSale builds a SALE. partnerID may be empty for walk-in customers.
func NewSale(id TransactionID, date time.Time, items []LineItem, method PaymentMethod, partnerID PartnerID) Transaction {
	return Transaction{
		ID:            id,
		Date:          date,
		Type:          TxSale,
		Items:         append([]LineItem(nil), items...),
		PaymentMethod: method,
		PartnerID:     partnerID,
	}.Recalculate()
}

// NewPurchase builds a PURCHASE from a supplier.
func NewPurchase(id TransactionID, date time.Time, items []LineItem, method PaymentMethod, partnerID PartnerID) Transaction {
	return Transaction{
		ID:            id,
		Date:          date,
		Type:          TxPurchase,
		Items:         append([]LineItem(nil), items...),
		PaymentMethod: method,
		PartnerID:     partnerID,
	}.Recalculate()
}

func NewExpense(id TransactionID, date time.Time, amount decimal.Decimal, note string) Transaction {
	return Transaction{ID: id, Date: date, Type: TxExpense, TotalAmount: amount, Note: note}
}

func NewSalary(id TransactionID, date time.Time, employeeID EmployeeID, amount decimal.Decimal, note string) Transaction {
	return Transaction{ID: id, Date: date, Type: TxSalary, EmployeeID: employeeID, TotalAmount: amount, Note: note}
}

func NewDebtPayment(id TransactionID, date time.Time, partnerID PartnerID, amount decimal.Decimal, note string) Transaction {
	return Transaction{ID: id, Date: date, Type: TxDebtPayment, PartnerID: partnerID, TotalAmount: amount, Note: note}
}

// =============================================================================
// STRUCTURAL VALIDATION
// =============================================================================

// Validate checks that tx has the shape its Type requires.
// It returns a *StructuralError describing the first violation found.
func (tx Transaction) Validate() error {
	if tx.ID == "" {
		return structural(tx, "id", "required")
	}
	if !tx.Type.Valid() {
		return structural(tx, "type", "unknown transaction type "+string(tx.Type))
	}
	if tx.TotalAmount.IsNegative() {
		return structural(tx, "totalAmount", "must not be negative")
	}

	switch tx.Type {
	case TxSale, TxPurchase:
		if len(tx.Items) == 0 {
			return structural(tx, "items", "at least one item required")
		}
		for _, item := range tx.Items {
			if item.ProductID == "" {
				return structural(tx, "items.productId", "required")
			}
			if item.Qty <= 0 {
				return structural(tx, "items.qty", "must be positive")
			}
		}
		if !tx.PaymentMethod.Valid() {
			return structural(tx, "paymentMethod", "must be CASH, CARD or DEBT")
		}
		if tx.EmployeeID != "" {
			return structural(tx, "employeeId", "not allowed")
		}
	case TxExpense:
		if tx.Note == "" {
			return structural(tx, "note", "required")
		}
		if len(tx.Items) > 0 {
			return structural(tx, "items", "not allowed")
		}
		if tx.PartnerID != "" {
			return structural(tx, "partnerId", "not allowed")
		}
		if tx.EmployeeID != "" {
			return structural(tx, "employeeId", "not allowed")
		}
	case TxSalary:
		if tx.EmployeeID == "" {
			return structural(tx, "employeeId", "required")
		}
		if len(tx.Items) > 0 {
			return structural(tx, "items", "not allowed")
		}
		if tx.PartnerID != "" {
			return structural(tx, "partnerId", "not allowed")
		}
	case TxDebtPayment:
		if tx.PartnerID == "" {
			return structural(tx, "partnerId", "required")
		}
		if len(tx.Items) > 0 {
			return structural(tx, "items", "not allowed")
		}
		if tx.EmployeeID != "" {
			return structural(tx, "employeeId", "not allowed")
		}
	}
	return nil
}

func structural(tx Transaction, field, reason string) *StructuralError {
	return &StructuralError{TransactionID: tx.ID, Field: field, Reason: reason}
}
