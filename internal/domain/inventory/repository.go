package inventory

import (
	"context"

	"celltrade/internal/core/id"
	"celltrade/internal/domain"
)

// Repository defines operations for serialized inventory items.
type Repository interface {
	// Create inserts a new item. Returns DuplicateIMEI if the IMEI exists.
	Create(ctx context.Context, item *Item) error

	// GetByID retrieves an item by ID.
	GetByID(ctx context.Context, itemID id.ID) (*Item, error)

	// GetByIMEI retrieves an item by IMEI.
	GetByIMEI(ctx context.Context, imei string) (*Item, error)

	// GetForUpdate retrieves an item with a row lock. Orchestrations lock
	// every referenced item before validating its status.
	GetForUpdate(ctx context.Context, itemID id.ID) (*Item, error)

	// Update persists the full item state (with optimistic locking).
	Update(ctx context.Context, item *Item) error

	// Delete removes an item row. Only the owning purchase invoice deletes
	// items, and only while they are not sold.
	Delete(ctx context.Context, itemID id.ID) error

	// ExistsIMEI checks whether any item carries the IMEI.
	ExistsIMEI(ctx context.Context, imei string) (bool, error)

	// ListByPurchase returns the items created by a purchase invoice.
	ListByPurchase(ctx context.Context, purchaseID id.ID) ([]*Item, error)

	// ListBySale returns the items currently attached to a sale.
	ListBySale(ctx context.Context, saleID id.ID) ([]*Item, error)

	// List retrieves items with filtering.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Item], error)
}

// ListFilter for filtering inventory items.
type ListFilter struct {
	domain.ListFilter

	ProductID  *id.ID
	SupplierID *id.ID
	Status     *Status
}
