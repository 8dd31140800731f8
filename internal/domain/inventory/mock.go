package inventory

import (
	"context"
	"sync"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/id"
	"celltrade/internal/domain"
)

// MemRepository is an in-memory Repository used in service tests.
type MemRepository struct {
	mu   sync.Mutex
	byID map[id.ID]*Item
}

var _ Repository = (*MemRepository)(nil)

// NewMemRepository creates an empty in-memory repository.
func NewMemRepository() *MemRepository {
	return &MemRepository{byID: make(map[id.ID]*Item)}
}

func (r *MemRepository) Create(_ context.Context, item *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.IMEI == item.IMEI {
			return apperror.NewDuplicateIMEI(item.IMEI)
		}
	}
	r.byID[item.ID] = item
	return nil
}

func (r *MemRepository) GetByID(_ context.Context, itemID id.ID) (*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.byID[itemID]
	if !ok {
		return nil, apperror.NewNotFound("inventory item", itemID.String())
	}
	return item, nil
}

func (r *MemRepository) GetByIMEI(_ context.Context, imei string) (*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.byID {
		if item.IMEI == imei {
			return item, nil
		}
	}
	return nil, apperror.NewNotFound("inventory item", imei)
}

func (r *MemRepository) GetForUpdate(ctx context.Context, itemID id.ID) (*Item, error) {
	return r.GetByID(ctx, itemID)
}

func (r *MemRepository) Update(_ context.Context, item *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[item.ID]; !ok {
		return apperror.NewNotFound("inventory item", item.ID.String())
	}
	r.byID[item.ID] = item
	return nil
}

func (r *MemRepository) Delete(_ context.Context, itemID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[itemID]; !ok {
		return apperror.NewNotFound("inventory item", itemID.String())
	}
	delete(r.byID, itemID)
	return nil
}

func (r *MemRepository) ExistsIMEI(_ context.Context, imei string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.byID {
		if item.IMEI == imei {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemRepository) ListByPurchase(_ context.Context, purchaseID id.ID) ([]*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Item
	for _, item := range r.byID {
		if item.PurchaseID == purchaseID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *MemRepository) ListBySale(_ context.Context, saleID id.ID) ([]*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Item
	for _, item := range r.byID {
		if item.SaleID != nil && *item.SaleID == saleID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *MemRepository) List(_ context.Context, filter ListFilter) (domain.ListResult[*Item], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*Item
	for _, item := range r.byID {
		if item.Archived && !filter.IncludeArchived {
			continue
		}
		if filter.ProductID != nil && item.ProductID != *filter.ProductID {
			continue
		}
		if filter.SupplierID != nil && item.SupplierID != *filter.SupplierID {
			continue
		}
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		items = append(items, item)
	}
	return domain.ListResult[*Item]{Items: items, TotalCount: int64(len(items))}, nil
}
