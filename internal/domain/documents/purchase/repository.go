package purchase

import (
	"context"
	"time"

	"celltrade/internal/core/id"
	"celltrade/internal/domain"
)

// ListFilter narrows invoice listings.
type ListFilter struct {
	domain.ListFilter

	SupplierID *id.ID
	From       *time.Time
	To         *time.Time
}

// Repository defines purchase invoice persistence.
type Repository interface {
	Create(ctx context.Context, p *Invoice) error
	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)
	GetForUpdate(ctx context.Context, invoiceID id.ID) (*Invoice, error)
	Update(ctx context.Context, p *Invoice) error
	Delete(ctx context.Context, invoiceID id.ID) error

	// ListLines returns the current line set of an invoice.
	ListLines(ctx context.Context, invoiceID id.ID) ([]Line, error)

	// ReplaceLines deletes the old line set and inserts the new one.
	ReplaceLines(ctx context.Context, invoiceID id.ID, lines []Line) error

	// ListUnpaidBySupplier returns invoices with a positive unpaid
	// residual, ascending by date, for statement building.
	ListUnpaidBySupplier(ctx context.Context, supplierID id.ID) ([]*Invoice, error)

	// DetachCounterparty nulls the supplier reference on this supplier's
	// invoices. Used by the counterparty hard-delete cascade; returns the
	// number of detached rows.
	DetachCounterparty(ctx context.Context, supplierID id.ID) (int64, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error)
}
