/*
monitor.go - Periodic stock and debt check

PURPOSE:
  Periodically inspects the current snapshot for products at or below their
  reorder level and for outstanding partner debt, and keeps a short history
  of check runs for the dashboard.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Reads the Book snapshot only; never records transactions
  - Logs products that newly dropped to the reorder level since the last run
  - Keeps the most recent runs in memory, newest first

CONFIGURATION:
  - CheckInterval: How often to check (POS_STOCK_CHECK_INTERVAL, default 1h)
  - Enabled: Whether the monitor runs in the background (interval > 0)

USAGE:
  monitor := NewStockMonitor(book, logger)
  monitor.Start()
  // ... later
  monitor.Stop()

SEE ALSO:
  - handlers.go: ListStockChecks / RunStockCheck endpoints
  - pos/report.go: Summarize
*/
package api

import (
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ziyobook/pos-ledger/ledger"
	"github.com/ziyobook/pos-ledger/pos"
)

// maxStockChecks bounds the in-memory run history.
const maxStockChecks = 50

// StockCheck is the result of one monitor run.
type StockCheck struct {
	ID          string          `json:"id"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt time.Time       `json:"completedAt"`
	LowStock    []pos.ProductID `json:"lowStock"`
	NewlyLow    []pos.ProductID `json:"newlyLow"`
	Receivable  decimal.Decimal `json:"receivable"`
	Payable     decimal.Decimal `json:"payable"`
}

// StockMonitor runs StockChecks on a ticker.
type StockMonitor struct {
	Book          *ledger.Book
	Logger        *slog.Logger
	CheckInterval time.Duration
	Enabled       bool
	Now           func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	runsMu  sync.Mutex
	runs    []StockCheck
	lastLow map[pos.ProductID]bool
}

// NewStockMonitor creates a monitor checking once an hour.
func NewStockMonitor(book *ledger.Book, logger *slog.Logger) *StockMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &StockMonitor{
		Book:          book,
		Logger:        logger,
		CheckInterval: time.Hour,
		Enabled:       true,
		Now:           time.Now,
		lastLow:       map[pos.ProductID]bool{},
	}
}

// Start begins the background checks.
func (m *StockMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.Enabled || m.CheckInterval <= 0 {
		m.Logger.Info("stock monitor disabled")
		return
	}
	if m.ticker != nil {
		return
	}

	m.ticker = time.NewTicker(m.CheckInterval)
	m.stop = make(chan struct{})
	m.wg.Add(1)
	go m.run(m.ticker, m.stop)

	m.Logger.Info("stock monitor started", "interval", m.CheckInterval)
}

// Stop stops the background checks and waits for a running check to finish.
func (m *StockMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ticker == nil {
		return
	}
	m.ticker.Stop()
	close(m.stop)
	m.wg.Wait()
	m.ticker = nil
	m.Logger.Info("stock monitor stopped")
}

func (m *StockMonitor) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer m.wg.Done()

	// Run immediately on start
	m.RunNow()

	for {
		select {
		case <-ticker.C:
			m.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow performs a check immediately and records it.
func (m *StockMonitor) RunNow() StockCheck {
	started := m.Now().UTC()
	snap := m.Book.Snapshot()
	sum := pos.Summarize(snap)

	check := StockCheck{
		ID:         uuid.NewString(),
		StartedAt:  started,
		LowStock:   []pos.ProductID{},
		NewlyLow:   []pos.ProductID{},
		Receivable: sum.Receivable,
		Payable:    sum.Payable,
	}

	m.runsMu.Lock()
	defer m.runsMu.Unlock()

	low := map[pos.ProductID]bool{}
	for _, p := range snap.LowStock() {
		low[p.ID] = true
		check.LowStock = append(check.LowStock, p.ID)
		if !m.lastLow[p.ID] {
			check.NewlyLow = append(check.NewlyLow, p.ID)
			m.Logger.Warn("product at reorder level",
				"product_id", p.ID, "name", p.Name, "stock", p.Stock, "min_stock", p.MinStock)
		}
	}
	sort.Slice(check.LowStock, func(i, j int) bool { return check.LowStock[i] < check.LowStock[j] })
	sort.Slice(check.NewlyLow, func(i, j int) bool { return check.NewlyLow[i] < check.NewlyLow[j] })
	m.lastLow = low
	check.CompletedAt = m.Now().UTC()

	m.runs = append([]StockCheck{check}, m.runs...)
	if len(m.runs) > maxStockChecks {
		m.runs = m.runs[:maxStockChecks]
	}

	m.Logger.Debug("stock check completed",
		"low_stock", len(check.LowStock),
		"newly_low", len(check.NewlyLow),
		"receivable", check.Receivable.String(),
		"payable", check.Payable.String())
	return check
}

// Runs returns the recorded checks, newest first.
func (m *StockMonitor) Runs() []StockCheck {
	m.runsMu.Lock()
	defer m.runsMu.Unlock()
	return append([]StockCheck{}, m.runs...)
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListStockChecks returns recent monitor runs.
func (h *Handler) ListStockChecks(w http.ResponseWriter, r *http.Request) {
	if h.Monitor == nil {
		writeError(w, http.StatusServiceUnavailable, "Stock monitor not configured", nil)
		return
	}
	writeJSON(w, http.StatusOK, h.Monitor.Runs())
}

// RunStockCheck triggers an immediate check.
func (h *Handler) RunStockCheck(w http.ResponseWriter, r *http.Request) {
	if h.Monitor == nil {
		writeError(w, http.StatusServiceUnavailable, "Stock monitor not configured", nil)
		return
	}
	writeJSON(w, http.StatusOK, h.Monitor.RunNow())
}
