package ledger_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziyobook/pos-ledger/ledger"
	"github.com/ziyobook/pos-ledger/pos"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var day = time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

func money(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func newEngine() *ledger.Engine {
	return ledger.NewEngine(ledger.Options{AllowNegativeStock: true}, nil)
}

func strictEngine() *ledger.Engine {
	return ledger.NewEngine(ledger.Options{AllowNegativeStock: false}, nil)
}

// baseline is a small store: two books, a customer, a supplier, one cashier.
func baseline() pos.Snapshot {
	s := pos.EmptySnapshot()
	s.Products = []pos.Product{
		{ID: "1", Name: "O'tkan kunlar", Category: "Fiction", PriceBuy: money(30000), PriceSell: money(45000), Stock: 12, MinStock: 3},
		{ID: "2", Name: "Atlas", Category: "Reference", PriceBuy: money(95000), PriceSell: money(130000), Stock: 10, MinStock: 2},
	}
	s.Partners = []pos.Partner{
		{ID: "p1", Name: "Aziza", Type: pos.PartnerCustomer, Balance: decimal.Zero},
		{ID: "p2", Name: "School No. 12", Type: pos.PartnerCustomer, Balance: decimal.Zero},
		{ID: "s1", Name: "Sharq", Type: pos.PartnerSupplier, Balance: decimal.Zero},
	}
	s.Employees = []pos.Employee{
		{ID: "e1", Name: "Dilshod", Role: "Cashier", Salary: money(3500000)},
	}
	return s
}

func line(id pos.ProductID, qty int, buy, sell int64) pos.LineItem {
	return pos.LineItem{ProductID: id, Name: "item " + string(id), Qty: qty, PriceBuy: money(buy), PriceSell: money(sell)}
}

func stockOf(t *testing.T, s pos.Snapshot, id pos.ProductID) int {
	t.Helper()
	p, ok := s.Product(id)
	require.True(t, ok, "product %s missing", id)
	return p.Stock
}

func balanceOf(t *testing.T, s pos.Snapshot, id pos.PartnerID) decimal.Decimal {
	t.Helper()
	p, ok := s.Partner(id)
	require.True(t, ok, "partner %s missing", id)
	return p.Balance
}

func assertMoney(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(money(want)), append([]any{"want %d, got %s", want, got.String()}, msgAndArgs...)...)
}

func txIDs(s pos.Snapshot) []pos.TransactionID {
	ids := make([]pos.TransactionID, len(s.Transactions))
	for i, tx := range s.Transactions {
		ids[i] = tx.ID
	}
	return ids
}

// assertSameState compares what the ledger invariants cover: stock, product
// cost, partner balances and the ledger order.
func assertSameState(t *testing.T, want, got pos.Snapshot) {
	t.Helper()
	require.Len(t, got.Products, len(want.Products))
	for i := range want.Products {
		assert.Equal(t, want.Products[i].ID, got.Products[i].ID)
		assert.Equal(t, want.Products[i].Stock, got.Products[i].Stock, "stock of %s", want.Products[i].ID)
		assert.True(t, want.Products[i].PriceBuy.Equal(got.Products[i].PriceBuy), "cost of %s", want.Products[i].ID)
	}
	require.Len(t, got.Partners, len(want.Partners))
	for i := range want.Partners {
		assert.Equal(t, want.Partners[i].ID, got.Partners[i].ID)
		assert.True(t, want.Partners[i].Balance.Equal(got.Partners[i].Balance),
			"balance of %s: want %s, got %s", want.Partners[i].ID, want.Partners[i].Balance, got.Partners[i].Balance)
	}
	assert.Equal(t, txIDs(want), txIDs(got))
}
