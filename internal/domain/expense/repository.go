package expense

import (
	"context"

	"celltrade/internal/core/id"
	"celltrade/internal/domain"
)

// ListFilter narrows expense listings.
type ListFilter struct {
	domain.ListFilter

	Category  string
	SessionID *id.ID
}

// Repository defines expense persistence.
type Repository interface {
	Create(ctx context.Context, e *Expense) error
	GetByID(ctx context.Context, expenseID id.ID) (*Expense, error)
	Update(ctx context.Context, e *Expense) error
	Delete(ctx context.Context, expenseID id.ID) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Expense], error)
}
