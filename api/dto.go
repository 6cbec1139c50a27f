/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Request bodies for the catalog and payment endpoints, plus response
  wrappers. Ledger entities themselves (products, partners, transactions)
  are returned in their pos JSON form, which is also what the snapshot
  store persists.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO / *Response: Response types returned to clients

VALIDATION:
  Request structs carry go-playground/validator tags and are checked in
  decodeAndValidate before reaching the Book. Transaction payloads are
  validated by factory.TransactionFactory instead.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/transaction.go: Transaction payload schema
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/ziyobook/pos-ledger/pos"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ProductRequest creates or replaces a product.
type ProductRequest struct {
	Name      string          `json:"name" validate:"required,max=200"`
	Category  string          `json:"category" validate:"max=100"`
	PriceBuy  decimal.Decimal `json:"priceBuy"`
	PriceSell decimal.Decimal `json:"priceSell"`
	Stock     int             `json:"stock"`
	MinStock  int             `json:"minStock" validate:"gte=0"`
	Barcode   string          `json:"barcode,omitempty" validate:"omitempty,max=64"`
	ImageURL  string          `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

func (r ProductRequest) toProduct(id pos.ProductID) pos.Product {
	return pos.Product{
		ID:        id,
		Name:      r.Name,
		Category:  r.Category,
		PriceBuy:  r.PriceBuy,
		PriceSell: r.PriceSell,
		Stock:     r.Stock,
		MinStock:  r.MinStock,
		Barcode:   r.Barcode,
		ImageURL:  r.ImageURL,
	}
}

// PartnerRequest creates or replaces a partner. OpeningBalance only applies
// when the partner is new; afterwards the balance moves through the ledger.
type PartnerRequest struct {
	Name           string          `json:"name" validate:"required,max=200"`
	Phone          string          `json:"phone" validate:"max=32"`
	Type           pos.PartnerType `json:"type" validate:"required,oneof=CUSTOMER SUPPLIER"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
}

func (r PartnerRequest) toPartner(id pos.PartnerID) pos.Partner {
	return pos.Partner{
		ID:      id,
		Name:    r.Name,
		Phone:   r.Phone,
		Type:    r.Type,
		Balance: r.OpeningBalance,
	}
}

// EmployeeRequest creates or replaces an employee.
type EmployeeRequest struct {
	Name   string          `json:"name" validate:"required,max=200"`
	Role   string          `json:"role" validate:"max=100"`
	Phone  string          `json:"phone" validate:"max=32"`
	Salary decimal.Decimal `json:"salary"`
}

func (r EmployeeRequest) toEmployee(id pos.EmployeeID) pos.Employee {
	return pos.Employee{ID: id, Name: r.Name, Role: r.Role, Phone: r.Phone, Salary: r.Salary}
}

// PayDebtRequest records a debt payment. Amount must be positive; paying
// more than is owed is allowed.
type PayDebtRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note" validate:"max=500"`
	Date   *time.Time      `json:"date,omitempty"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// SummaryResponse wraps pos.Summary with derived figures.
type SummaryResponse struct {
	pos.Summary
	NetIncome decimal.Decimal `json:"netIncome"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
