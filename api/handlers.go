/*
handlers.go - HTTP API handlers for the point-of-sale ledger

PURPOSE:
  Exposes the Book (canonical snapshot + ledger engine) via REST. Handles
  HTTP request/response, JSON serialization, and delegates to the Book.

ENDPOINTS:
  Snapshot:
    GET    /api/snapshot                    Whole current state

  Catalog:
    GET    /api/products                    List products
    GET    /api/products/low-stock          Products at or below reorder level
    PUT    /api/products/{id}               Create or replace a product
    DELETE /api/products/{id}               Remove a product
    GET    /api/partners                    List partners
    PUT    /api/partners/{id}               Create or replace a partner
    DELETE /api/partners/{id}               Remove a partner
    POST   /api/partners/{id}/payments      Record a debt payment
    GET    /api/employees                   List employees
    PUT    /api/employees/{id}              Create or replace an employee
    DELETE /api/employees/{id}              Remove an employee

  Ledger:
    GET    /api/transactions                List transactions (?type=SALE)
    POST   /api/transactions                Create transaction
    PUT    /api/transactions/{id}           Edit transaction
    DELETE /api/transactions/{id}           Delete transaction

  Reports:
    GET    /api/reports/summary             Dashboard figures
    GET    /api/reports/stock-checks        Recent stock monitor runs
    POST   /api/reports/stock-checks/run    Run a stock check now

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed transaction, validation rejection, insufficient stock
  - 404: Transaction, product, partner or employee not found
  - 409: Duplicate transaction id
  - 500: Store failures
  - 503: Stock monitor not configured

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - monitor.go: Periodic stock check
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/ziyobook/pos-ledger/factory"
	"github.com/ziyobook/pos-ledger/ledger"
	"github.com/ziyobook/pos-ledger/pos"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Book    *ledger.Book
	Factory *factory.TransactionFactory
	Monitor *StockMonitor // optional
	Logger  *slog.Logger

	validate *validator.Validate

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over the given book.
func NewHandler(book *ledger.Book, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Book:     book,
		Factory:  factory.NewTransactionFactory(),
		Logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// =============================================================================
// SNAPSHOT & REPORTS
// =============================================================================

// GetSnapshot returns the whole current state.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Book.Snapshot())
}

// GetSummary returns dashboard figures.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sum := pos.Summarize(h.Book.Snapshot())
	writeJSON(w, http.StatusOK, SummaryResponse{Summary: sum, NetIncome: sum.NetIncome()})
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Book.Snapshot().Products)
}

// ListLowStock returns products that need reordering.
func (h *Handler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Book.Snapshot().LowStock())
}

// PutProduct creates or replaces a product.
func (h *Handler) PutProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	p := req.toProduct(pos.ProductID(chi.URLParam(r, "id")))
	if _, err := h.Book.PutProduct(r.Context(), p); err != nil {
		h.writeDomainError(w, "Failed to save product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := pos.ProductID(chi.URLParam(r, "id"))
	if _, err := h.Book.RemoveProduct(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to remove product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PARTNER HANDLERS
// =============================================================================

func (h *Handler) ListPartners(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Book.Snapshot().Partners)
}

// PutPartner creates or replaces a partner. An existing partner keeps its
// ledger balance.
func (h *Handler) PutPartner(w http.ResponseWriter, r *http.Request) {
	var req PartnerRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	id := pos.PartnerID(chi.URLParam(r, "id"))
	snap, err := h.Book.PutPartner(r.Context(), req.toPartner(id))
	if err != nil {
		h.writeDomainError(w, "Failed to save partner", err)
		return
	}
	p, _ := snap.Partner(id)
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeletePartner(w http.ResponseWriter, r *http.Request) {
	id := pos.PartnerID(chi.URLParam(r, "id"))
	if _, err := h.Book.RemovePartner(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to remove partner", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PayDebt records a DEBT_PAYMENT for the partner.
func (h *Handler) PayDebt(w http.ResponseWriter, r *http.Request) {
	var req PayDebtRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	in := ledger.PayDebtInput{
		ID:        pos.TransactionID(h.Factory.IDs()),
		Date:      h.Factory.Now().UTC(),
		PartnerID: pos.PartnerID(chi.URLParam(r, "id")),
		Amount:    req.Amount,
		Note:      req.Note,
	}
	if req.Date != nil {
		in.Date = req.Date.UTC()
	}

	tx, err := h.Book.PayDebt(r.Context(), in)
	if err != nil {
		h.writeDomainError(w, "Failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Book.Snapshot().Employees)
}

func (h *Handler) PutEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	e := req.toEmployee(pos.EmployeeID(chi.URLParam(r, "id")))
	if _, err := h.Book.PutEmployee(r.Context(), e); err != nil {
		h.writeDomainError(w, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := pos.EmployeeID(chi.URLParam(r, "id"))
	if _, err := h.Book.RemoveEmployee(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to remove employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// ListTransactions returns the ledger newest first, optionally filtered by type.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs := h.Book.Snapshot().Transactions
	if t := r.URL.Query().Get("type"); t != "" {
		filtered := []pos.Transaction{}
		for _, tx := range txs {
			if string(tx.Type) == t {
				filtered = append(filtered, tx)
			}
		}
		txs = filtered
	}
	writeJSON(w, http.StatusOK, txs)
}

// CreateTransaction records a new transaction and applies its effects.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tj factory.TransactionJSON
	if err := json.NewDecoder(r.Body).Decode(&tj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tx, err := h.Factory.Build(tj, h.Book.Snapshot())
	if err != nil {
		h.writeDomainError(w, "Invalid transaction", err)
		return
	}
	if _, err := h.Book.Create(r.Context(), tx); err != nil {
		h.writeDomainError(w, "Failed to create transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// EditTransaction replaces a transaction, reverting its old effects and
// applying the new ones. The date is kept unless the body supplies one.
func (h *Handler) EditTransaction(w http.ResponseWriter, r *http.Request) {
	id := pos.TransactionID(chi.URLParam(r, "id"))

	var tj factory.TransactionJSON
	if err := json.NewDecoder(r.Body).Decode(&tj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	snap := h.Book.Snapshot()
	i, ok := snap.FindTransaction(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Transaction not found", nil)
		return
	}
	tj.ID = string(id)
	if tj.Date == nil {
		d := snap.Transactions[i].Date
		tj.Date = &d
	}

	// Lines already on the transaction keep their captured prices.
	tx, err := h.Factory.Build(tj, factory.WithCapturedPrices(snap, snap.Transactions[i].Items))
	if err != nil {
		h.writeDomainError(w, "Invalid transaction", err)
		return
	}
	next, err := h.Book.Edit(r.Context(), tx)
	if err != nil {
		h.writeDomainError(w, "Failed to edit transaction", err)
		return
	}
	if j, ok := next.FindTransaction(id); ok {
		writeJSON(w, http.StatusOK, next.Transactions[j])
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// DeleteTransaction reverts a transaction's effects and removes it.
// Deleting an unknown id succeeds without changes.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := pos.TransactionID(chi.URLParam(r, "id"))
	if _, err := h.Book.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to delete transaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			err = fmt.Errorf("field '%s' failed on '%s'", fe.Field(), fe.Tag())
		}
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// writeDomainError maps the pos error taxonomy to HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, pos.ErrDuplicateTransaction):
		writeError(w, http.StatusConflict, message, err)
	case pos.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case pos.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Logger.Error(message, "error", err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
