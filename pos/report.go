package pos

import "github.com/shopspring/decimal"

// Summary aggregates the dashboard figures over the active ledger.
type Summary struct {
	Revenue      decimal.Decimal `json:"revenue"`
	Profit       decimal.Decimal `json:"profit"`
	Purchases    decimal.Decimal `json:"purchases"`
	Expenses     decimal.Decimal `json:"expenses"`
	Salaries     decimal.Decimal `json:"salaries"`
	DebtPayments decimal.Decimal `json:"debtPayments"`

	// Receivable is what customers owe the store; Payable what the store owes suppliers.
	Receivable decimal.Decimal `json:"receivable"`
	Payable    decimal.Decimal `json:"payable"`

	Transactions  int `json:"transactions"`
	LowStockCount int `json:"lowStockCount"`
}

// NetIncome is profit on sales minus operating costs.
func (s Summary) NetIncome() decimal.Decimal {
	return s.Profit.Sub(s.Expenses).Sub(s.Salaries)
}

// Summarize computes a Summary from s.
func Summarize(s Snapshot) Summary {
	sum := Summary{
		Revenue:      decimal.Zero,
		Profit:       decimal.Zero,
		Purchases:    decimal.Zero,
		Expenses:     decimal.Zero,
		Salaries:     decimal.Zero,
		DebtPayments: decimal.Zero,
		Receivable:   decimal.Zero,
		Payable:      decimal.Zero,
		Transactions: len(s.Transactions),
	}

	for _, tx := range s.Transactions {
		switch tx.Type {
		case TxSale:
			sum.Revenue = sum.Revenue.Add(tx.TotalAmount)
			if tx.Profit != nil {
				sum.Profit = sum.Profit.Add(*tx.Profit)
			}
		case TxPurchase:
			sum.Purchases = sum.Purchases.Add(tx.TotalAmount)
		case TxExpense:
			sum.Expenses = sum.Expenses.Add(tx.TotalAmount)
		case TxSalary:
			sum.Salaries = sum.Salaries.Add(tx.TotalAmount)
		case TxDebtPayment:
			sum.DebtPayments = sum.DebtPayments.Add(tx.TotalAmount)
		}
	}

	for _, p := range s.Partners {
		switch p.Type {
		case PartnerCustomer:
			sum.Receivable = sum.Receivable.Add(p.Debt())
		case PartnerSupplier:
			sum.Payable = sum.Payable.Add(p.Debt())
		}
	}

	sum.LowStockCount = len(s.LowStock())
	return sum
}
