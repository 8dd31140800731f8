package counterparty

import (
	"context"

	"celltrade/internal/core/id"
	"celltrade/internal/core/types"
	"celltrade/internal/domain"
)

// Repository defines operations for the counterparty catalog.
type Repository interface {
	domain.CatalogRepository[*Counterparty]

	// GetForUpdate retrieves a counterparty with a row lock. Orchestrations
	// lock the counterparty before reading its balance for a guard check.
	GetForUpdate(ctx context.Context, id id.ID) (*Counterparty, error)

	// AdjustBalance applies a signed delta to the cached balance.
	AdjustBalance(ctx context.Context, id id.ID, delta types.MinorUnits) error

	// AdjustBalanceClamped applies a signed delta but floors the result at
	// zero (purchase-invoice reversal semantics).
	AdjustBalanceClamped(ctx context.Context, id id.ID, delta types.MinorUnits) error
}
