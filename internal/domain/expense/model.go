// Package expense implements cash outflows. Expenses reduce register cash
// but never touch counterparty balances.
package expense

import (
	"context"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/entity"
	"celltrade/internal/core/id"
	"celltrade/internal/core/types"
)

// Expense is a single outgoing cash movement (rent, supplies, utilities).
type Expense struct {
	entity.Document

	// Amount is always a positive magnitude
	Amount types.MinorUnits `db:"amount" json:"amount"`

	Category string `db:"category" json:"category,omitempty"`

	Method types.PaymentMethod `db:"method" json:"method"`

	// SessionID links a cash-method expense to the session that was open
	// when it was recorded
	SessionID *id.ID `db:"session_id" json:"sessionId,omitempty"`
}

// New creates an expense with generated ID and current date.
func New(amount types.MinorUnits, method types.PaymentMethod, category string) *Expense {
	return &Expense{
		Document: entity.NewDocument(),
		Amount:   amount,
		Method:   method,
		Category: category,
	}
}

// Validate implements entity.Validatable.
func (e *Expense) Validate(ctx context.Context) error {
	if err := e.Document.Validate(ctx); err != nil {
		return err
	}
	if !e.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount")
	}
	if !e.Method.IsValid() {
		return apperror.NewValidation("unknown payment method").
			WithDetail("field", "method").
			WithDetail("value", string(e.Method))
	}
	return nil
}
