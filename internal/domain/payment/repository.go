package payment

import (
	"context"
	"time"

	"celltrade/internal/core/id"
	"celltrade/internal/domain"
	"celltrade/internal/domain/ledger"
)

// ListFilter narrows payment listings.
type ListFilter struct {
	domain.ListFilter

	EntityID  *id.ID
	Type      ledger.TransactionType
	SessionID *id.ID
	From      *time.Time
	To        *time.Time
}

// Repository defines payment persistence.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, paymentID id.ID) (*Payment, error)
	GetForUpdate(ctx context.Context, paymentID id.ID) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
	Delete(ctx context.Context, paymentID id.ID) error

	// DeleteByEntity removes every payment of a counterparty. Used by the
	// counterparty hard-delete cascade.
	DeleteByEntity(ctx context.Context, entityID id.ID) error

	// ListByEntity returns a counterparty's payments in ascending date
	// order for statement building.
	ListByEntity(ctx context.Context, entityID id.ID) ([]*Payment, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Payment], error)
}
