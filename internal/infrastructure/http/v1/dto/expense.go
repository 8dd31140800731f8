package dto

import (
	"time"

	"celltrade/internal/core/types"
	"celltrade/internal/domain/expense"
)

// CreateExpenseRequest records an outgoing cash movement.
type CreateExpenseRequest struct {
	Amount   types.MinorUnits `json:"amount" binding:"required,min=1"`
	Method   string           `json:"method" binding:"required,oneof=cash card transfer"`
	Category string           `json:"category"`
	Date     *time.Time       `json:"date"`
	Comment  string           `json:"comment"`
}

// ToEntity builds a new expense from the request.
func (r CreateExpenseRequest) ToEntity() *expense.Expense {
	e := expense.New(r.Amount, types.PaymentMethod(r.Method), r.Category)
	if r.Date != nil {
		e.Date = *r.Date
	}
	e.Comment = r.Comment
	return e
}

// UpdateExpenseRequest edits an expense's amount, category, or comment.
// Method and session attribution are fixed at record time.
type UpdateExpenseRequest struct {
	Amount   types.MinorUnits `json:"amount" binding:"required,min=1"`
	Category string           `json:"category"`
	Comment  string           `json:"comment"`
}
