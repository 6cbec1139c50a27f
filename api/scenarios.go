/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built bookstore states. Each scenario starts from an empty
	snapshot, adds catalog entries, then records transactions through the
	ledger engine so stock and balances are consistent with the ledger.

AVAILABLE SCENARIOS:

	empty:       Nothing at all
	bookstore:   Catalog, two customers, a supplier, staff, a day of trading
	debt-book:   Customers and a supplier with open credit

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "bookstore"}

NOTE:

	Loading a scenario replaces the whole snapshot. Only use in
	development/demo environments.

SEE ALSO:
  - handlers.go: Other endpoints
  - ledger/engine.go: Used to record scenario transactions
*/
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ziyobook/pos-ledger/ledger"
	"github.com/ziyobook/pos-ledger/pos"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "empty",
		Name:        "Empty Store",
		Description: "No products, partners, staff or transactions",
	},
	{
		ID:          "bookstore",
		Name:        "Bookstore",
		Description: "Catalog, customers, a supplier, staff and a day of cash and card trading",
	},
	{
		ID:          "debt-book",
		Name:        "Debt Book",
		Description: "Sales and purchases on credit with a partial customer payment",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario replaces the snapshot with a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	snap, err := BuildScenario(req.ScenarioID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown scenario", err)
		return
	}
	if err := h.Book.Replace(r.Context(), snap); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// BuildScenario returns the snapshot for a scenario id.
func BuildScenario(id string) (pos.Snapshot, error) {
	switch id {
	case "empty":
		return pos.EmptySnapshot(), nil
	case "bookstore":
		return buildBookstore()
	case "debt-book":
		return buildDebtBook()
	}
	return pos.Snapshot{}, fmt.Errorf("unknown scenario %q", id)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

var scenarioDay = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func catalog() pos.Snapshot {
	s := pos.EmptySnapshot()
	s.Products = []pos.Product{
		{ID: "1", Name: "O'tkan kunlar", Category: "Fiction", PriceBuy: money(30000), PriceSell: money(45000), Stock: 12, MinStock: 3, Barcode: "9789943000011"},
		{ID: "2", Name: "Go Programming Language", Category: "Computers", PriceBuy: money(180000), PriceSell: money(240000), Stock: 4, MinStock: 2},
		{ID: "3", Name: "Notebook A5", Category: "Stationery", PriceBuy: money(8000), PriceSell: money(12000), Stock: 40, MinStock: 10},
		{ID: "4", Name: "Atlas of the World", Category: "Reference", PriceBuy: money(95000), PriceSell: money(130000), Stock: 2, MinStock: 2},
	}
	s.Partners = []pos.Partner{
		{ID: "p1", Name: "Aziza Karimova", Phone: "+998901112233", Type: pos.PartnerCustomer, Balance: decimal.Zero},
		{ID: "p2", Name: "School No. 12", Phone: "+998712223344", Type: pos.PartnerCustomer, Balance: decimal.Zero},
		{ID: "s1", Name: "Sharq Publishing", Phone: "+998712334455", Type: pos.PartnerSupplier, Balance: decimal.Zero},
	}
	s.Employees = []pos.Employee{
		{ID: "e1", Name: "Dilshod", Role: "Cashier", Phone: "+998935556677", Salary: money(3500000)},
		{ID: "e2", Name: "Malika", Role: "Manager", Phone: "+998936667788", Salary: money(5000000)},
	}
	return s
}

func item(s pos.Snapshot, id pos.ProductID, qty int) pos.LineItem {
	p, _ := s.Product(id)
	return pos.NewLineItem(p, qty)
}

func record(engine *ledger.Engine, s pos.Snapshot, txs ...pos.Transaction) (pos.Snapshot, error) {
	var err error
	for _, tx := range txs {
		if s, err = engine.Create(tx, s); err != nil {
			return pos.Snapshot{}, fmt.Errorf("scenario transaction %s: %w", tx.ID, err)
		}
	}
	return s, nil
}

func buildBookstore() (pos.Snapshot, error) {
	engine := ledger.NewEngine(ledger.Options{AllowNegativeStock: false}, nil)
	s := catalog()
	at := func(h int) time.Time { return scenarioDay.Add(time.Duration(h) * time.Hour) }

	return record(engine, s,
		pos.NewPurchase("demo-purchase-1", at(0), []pos.LineItem{item(s, "2", 3), item(s, "4", 2)}, pos.PayCash, "s1"),
		pos.NewSale("demo-sale-1", at(1), []pos.LineItem{item(s, "1", 2)}, pos.PayCash, ""),
		pos.NewSale("demo-sale-2", at(2), []pos.LineItem{item(s, "2", 1), item(s, "3", 5)}, pos.PayCard, ""),
		pos.NewExpense("demo-expense-1", at(3), money(150000), "Electricity"),
		pos.NewSalary("demo-salary-1", at(8), "e1", money(3500000), "March salary"),
	)
}

func buildDebtBook() (pos.Snapshot, error) {
	engine := ledger.NewEngine(ledger.Options{AllowNegativeStock: false}, nil)
	s := catalog()
	at := func(h int) time.Time { return scenarioDay.Add(time.Duration(h) * time.Hour) }

	s, err := record(engine, s,
		pos.NewPurchase("demo-purchase-1", at(0), []pos.LineItem{item(s, "1", 20)}, pos.PayDebt, "s1"),
		pos.NewSale("demo-sale-1", at(1), []pos.LineItem{item(s, "1", 2)}, pos.PayDebt, "p1"),
		pos.NewSale("demo-sale-2", at(2), []pos.LineItem{item(s, "3", 30)}, pos.PayDebt, "p2"),
	)
	if err != nil {
		return pos.Snapshot{}, err
	}

	s, _, err = engine.PayDebt(ledger.PayDebtInput{
		ID:        "demo-payment-1",
		Date:      at(5),
		PartnerID: "p1",
		Amount:    money(50000),
		Note:      "Partial payment",
	}, s)
	return s, err
}
