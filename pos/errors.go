/*
errors.go - Centralized error types for the point-of-sale domain

ERROR CATEGORIES:
  1. Structural errors - malformed transactions (unknown type, missing id).
     Fatal for the operation, surfaced to the caller.
  2. Validation rejections - well-formed input refused by a business rule
     (non-positive debt payment, stock would go negative when forbidden).
  3. Lookup errors - the caller asked for something that isn't there.

  Missing products or partners referenced by a transaction are NOT errors:
  the ledger engine skips that part of the effect (see ledger/engine.go).

USAGE:
    if errors.Is(err, pos.ErrStructural) {
        // reject request, do not retry
    }

SEE ALSO:
  - transaction.go: Validate produces StructuralError
  - ledger/engine.go: Produces ValidationError and InsufficientStockError
*/
package pos

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrStructural marks a transaction whose shape is invalid for its type.
	ErrStructural = errors.New("malformed transaction")

	// ErrNonPositiveAmount is returned when a payment amount is zero or negative.
	ErrNonPositiveAmount = errors.New("amount must be positive")

	// ErrInsufficientStock is returned when stock would go negative and the
	// engine is configured to forbid it.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrTransactionNotFound is returned when editing a transaction that is
	// not in the ledger.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrDuplicateTransaction is returned when creating a transaction whose
	// id is already in the ledger.
	ErrDuplicateTransaction = errors.New("duplicate transaction id")

	ErrProductNotFound  = errors.New("product not found")
	ErrPartnerNotFound  = errors.New("partner not found")
	ErrEmployeeNotFound = errors.New("employee not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// StructuralError describes why a transaction is malformed.
type StructuralError struct {
	TransactionID TransactionID
	Field         string
	Reason        string
}

func (e *StructuralError) Error() string {
	if e.TransactionID == "" {
		return fmt.Sprintf("malformed transaction: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed transaction %s: %s: %s", e.TransactionID, e.Field, e.Reason)
}

func (e *StructuralError) Unwrap() error {
	return ErrStructural
}

// ValidationError is a business-rule rejection. The snapshot is left untouched.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// InsufficientStockError reports the product that would go negative.
type InsufficientStockError struct {
	ProductID ProductID
	Before    int
	After     int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: %d -> %d", e.ProductID, e.Before, e.After)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrStructural) ||
		errors.Is(err, ErrNonPositiveAmount) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrDuplicateTransaction)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrPartnerNotFound) ||
		errors.Is(err, ErrEmployeeNotFound)
}

// RequirePositive returns a ValidationError unless amount > 0.
func RequirePositive(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &ValidationError{Field: field, Err: ErrNonPositiveAmount}
	}
	return nil
}
