package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziyobook/pos-ledger/ledger"
	"github.com/ziyobook/pos-ledger/pos"
	"github.com/ziyobook/pos-ledger/store/sqlite"
)

var day = time.Date(2025, time.March, 1, 10, 30, 15, 123456789, time.UTC)

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err, "Failed to create store")
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSnapshot() pos.Snapshot {
	s := pos.EmptySnapshot()
	s.Products = []pos.Product{
		{ID: "2", Name: "Atlas", Category: "Reference", PriceBuy: money(95000), PriceSell: money(130000), Stock: 10, MinStock: 2, Barcode: "9780000000002"},
		{ID: "1", Name: "O'tkan kunlar", Category: "Fiction", PriceBuy: decimal.RequireFromString("30000.50"), PriceSell: money(45000), Stock: -1, MinStock: 3, ImageURL: "/img/1.jpg"},
	}
	s.Partners = []pos.Partner{
		{ID: "p1", Name: "Aziza", Phone: "+998901112233", Type: pos.PartnerCustomer, Balance: money(90000)},
		{ID: "s1", Name: "Sharq", Type: pos.PartnerSupplier, Balance: money(-190000)},
	}
	s.Employees = []pos.Employee{
		{ID: "e1", Name: "Dilshod", Role: "Cashier", Phone: "+998935556677", Salary: money(3500000)},
	}
	items := []pos.LineItem{{ProductID: "1", Name: "O'tkan kunlar", Qty: 2, PriceBuy: money(30000), PriceSell: money(45000)}}
	s.Transactions = []pos.Transaction{
		pos.NewDebtPayment("t4", day.Add(3*time.Hour), "p1", money(10000), "partial"),
		pos.NewSalary("t3", day.Add(2*time.Hour), "e1", money(3500000), ""),
		pos.NewExpense("t2", day.Add(time.Hour), money(150000), "Electricity"),
		pos.NewSale("t1", day, items, pos.PayDebt, "p1"),
	}
	return s
}

func TestStore_EmptyDatabase(t *testing.T) {
	store := newStore(t)

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap.Products)
	assert.NotNil(t, snap.Transactions)
	assert.Empty(t, snap.Products)
	assert.Empty(t, snap.Transactions)
}

func TestStore_SaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	want := sampleSnapshot()

	require.NoError(t, store.Save(ctx, want))
	got, err := store.Load(ctx)
	require.NoError(t, err)

	// Products keep order, decimals and optional fields.
	require.Len(t, got.Products, 2)
	assert.Equal(t, pos.ProductID("2"), got.Products[0].ID)
	assert.Equal(t, "9780000000002", got.Products[0].Barcode)
	assert.Empty(t, got.Products[0].ImageURL)
	assert.True(t, got.Products[1].PriceBuy.Equal(decimal.RequireFromString("30000.50")))
	assert.Equal(t, -1, got.Products[1].Stock)
	assert.Equal(t, "/img/1.jpg", got.Products[1].ImageURL)

	require.Len(t, got.Partners, 2)
	assert.Equal(t, pos.PartnerSupplier, got.Partners[1].Type)
	assert.True(t, got.Partners[1].Balance.Equal(money(-190000)))

	require.Len(t, got.Employees, 1)
	assert.True(t, got.Employees[0].Salary.Equal(money(3500000)))

	// Ledger stays newest first.
	ids := make([]pos.TransactionID, len(got.Transactions))
	for i, tx := range got.Transactions {
		ids[i] = tx.ID
	}
	assert.Equal(t, []pos.TransactionID{"t4", "t3", "t2", "t1"}, ids)
}

func TestStore_TransactionFields(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Save(ctx, sampleSnapshot()))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	byID := map[pos.TransactionID]pos.Transaction{}
	for _, tx := range got.Transactions {
		byID[tx.ID] = tx
	}

	sale := byID["t1"]
	assert.Equal(t, pos.TxSale, sale.Type)
	assert.True(t, sale.Date.Equal(day), "date %s", sale.Date)
	assert.Equal(t, pos.PayDebt, sale.PaymentMethod)
	assert.Equal(t, pos.PartnerID("p1"), sale.PartnerID)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, 2, sale.Items[0].Qty)
	assert.True(t, sale.Items[0].PriceSell.Equal(money(45000)))
	assert.True(t, sale.TotalAmount.Equal(money(90000)))
	require.NotNil(t, sale.Profit)
	assert.True(t, sale.Profit.Equal(money(30000)))

	// Absent optionals come back as zero values.
	expense := byID["t2"]
	assert.Nil(t, expense.Items)
	assert.Nil(t, expense.Profit)
	assert.Empty(t, expense.PartnerID)
	assert.Empty(t, expense.EmployeeID)
	assert.Empty(t, expense.PaymentMethod)
	assert.Equal(t, "Electricity", expense.Note)

	salary := byID["t3"]
	assert.Equal(t, pos.EmployeeID("e1"), salary.EmployeeID)
	assert.Empty(t, salary.Note)
}

func TestStore_Save_Overwrites(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Save(ctx, sampleSnapshot()))

	smaller := pos.EmptySnapshot()
	smaller.Products = []pos.Product{{ID: "9", Name: "Pen", PriceBuy: money(1000), PriceSell: money(2000), Stock: 5}}
	require.NoError(t, store.Save(ctx, smaller))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Products, 1)
	assert.Equal(t, pos.ProductID("9"), got.Products[0].ID)
	assert.Empty(t, got.Partners)
	assert.Empty(t, got.Transactions)
}

func TestStore_FailedSave_KeepsPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Save(ctx, sampleSnapshot()))

	notified := false
	store.Subscribe(func(pos.Snapshot) { notified = true })

	bad := sampleSnapshot()
	bad.Products = append(bad.Products, bad.Products[0]) // duplicate primary key
	assert.Error(t, store.Save(ctx, bad))
	assert.False(t, notified)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Products, 2)
	assert.Len(t, got.Transactions, 4)
}

func TestStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	var seen []int
	off := store.Subscribe(func(s pos.Snapshot) { seen = append(seen, len(s.Transactions)) })

	require.NoError(t, store.Save(ctx, sampleSnapshot()))
	off()
	require.NoError(t, store.Save(ctx, pos.EmptySnapshot()))

	assert.Equal(t, []int{4}, seen)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Save(ctx, sampleSnapshot()))

	require.NoError(t, store.Reset(ctx))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Products)
	assert.Empty(t, got.Transactions)
}

func TestStore_BackingABook(t *testing.T) {
	// GIVEN: A book persisted to SQLite
	// WHEN: A sale is recorded and then deleted
	// THEN: A fresh book opened on the same store sees each state

	ctx := context.Background()
	store := newStore(t)
	base := sampleSnapshot()
	base.Transactions = []pos.Transaction{}
	require.NoError(t, store.Save(ctx, base))

	engine := ledger.NewEngine(ledger.Options{AllowNegativeStock: true}, nil)
	book := ledger.NewBook(engine, store, nil)
	require.NoError(t, book.Open(ctx))
	defer book.Close()

	sale := pos.NewSale("t1", day, []pos.LineItem{{ProductID: "2", Qty: 3, PriceBuy: money(95000), PriceSell: money(130000)}}, pos.PayDebt, "p1")
	_, err := book.Create(ctx, sale)
	require.NoError(t, err)

	reopened := ledger.NewBook(engine, store, nil)
	require.NoError(t, reopened.Open(ctx))
	defer reopened.Close()
	snap := reopened.Snapshot()
	p, _ := snap.Product("2")
	assert.Equal(t, 7, p.Stock)
	c, _ := snap.Partner("p1")
	assert.True(t, c.Balance.Equal(money(480000)))

	_, err = book.Delete(ctx, "t1")
	require.NoError(t, err)
	snap = reopened.Snapshot()
	p, _ = snap.Product("2")
	assert.Equal(t, 10, p.Stock)
	c, _ = snap.Partner("p1")
	assert.True(t, c.Balance.Equal(money(90000)))
}
