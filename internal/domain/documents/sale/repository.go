package sale

import (
	"context"
	"time"

	"celltrade/internal/core/id"
	"celltrade/internal/domain"
)

// ListFilter narrows sale listings.
type ListFilter struct {
	domain.ListFilter

	CustomerID *id.ID
	SessionID  *id.ID
	From       *time.Time
	To         *time.Time
}

// Repository defines sale persistence. Lines are always replaced as a
// whole set, re-derived from the final item list.
type Repository interface {
	Create(ctx context.Context, s *Sale) error
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)
	GetForUpdate(ctx context.Context, saleID id.ID) (*Sale, error)
	Update(ctx context.Context, s *Sale) error
	Delete(ctx context.Context, saleID id.ID) error

	// ListLines returns the current line set of a sale.
	ListLines(ctx context.Context, saleID id.ID) ([]Line, error)

	// ReplaceLines deletes the old line set and inserts the new one.
	ReplaceLines(ctx context.Context, saleID id.ID, lines []Line) error

	// ListUnpaidByCustomer returns sales with a positive unpaid residual,
	// ascending by date, for statement building.
	ListUnpaidByCustomer(ctx context.Context, customerID id.ID) ([]*Sale, error)

	// DetachCounterparty nulls the customer reference on this customer's
	// sales. Used by the counterparty hard-delete cascade; returns the
	// number of detached rows.
	DetachCounterparty(ctx context.Context, customerID id.ID) (int64, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error)
}
