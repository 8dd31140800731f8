package counterparty

import (
	"context"
	"sort"
	"strings"
	"sync"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/id"
	"celltrade/internal/core/types"
	"celltrade/internal/domain"
)

// MemRepository is an in-memory Repository used in service tests.
type MemRepository struct {
	mu      sync.Mutex
	byID    map[id.ID]*Counterparty
	deleted []id.ID
}

var _ Repository = (*MemRepository)(nil)

// NewMemRepository creates an empty in-memory repository.
func NewMemRepository() *MemRepository {
	return &MemRepository{byID: make(map[id.ID]*Counterparty)}
}

// Deleted returns the IDs removed via HardDelete, in order.
func (r *MemRepository) Deleted() []id.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]id.ID(nil), r.deleted...)
}

func (r *MemRepository) Create(_ context.Context, c *Counterparty) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID] = c
	return nil
}

func (r *MemRepository) GetByID(_ context.Context, entityID id.ID) (*Counterparty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[entityID]
	if !ok {
		return nil, apperror.NewNotFound("counterparty", entityID.String())
	}
	return c, nil
}

func (r *MemRepository) GetByCode(_ context.Context, code string) (*Counterparty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, apperror.NewNotFound("counterparty", code)
}

func (r *MemRepository) GetForUpdate(ctx context.Context, entityID id.ID) (*Counterparty, error) {
	return r.GetByID(ctx, entityID)
}

func (r *MemRepository) Update(_ context.Context, c *Counterparty) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID]; !ok {
		return apperror.NewNotFound("counterparty", c.ID.String())
	}
	r.byID[c.ID] = c
	return nil
}

func (r *MemRepository) SetArchived(_ context.Context, entityID id.ID, archived bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[entityID]
	if !ok {
		return apperror.NewNotFound("counterparty", entityID.String())
	}
	c.Archived = archived
	return nil
}

func (r *MemRepository) HardDelete(_ context.Context, entityID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[entityID]; !ok {
		return apperror.NewNotFound("counterparty", entityID.String())
	}
	delete(r.byID, entityID)
	r.deleted = append(r.deleted, entityID)
	return nil
}

func (r *MemRepository) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*Counterparty], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []*Counterparty
	for _, c := range r.byID {
		if c.Archived && !filter.IncludeArchived {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Search)) {
			continue
		}
		items = append(items, c)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Code < items[j].Code })

	total := int64(len(items))
	if filter.Offset > 0 {
		if filter.Offset >= len(items) {
			items = nil
		} else {
			items = items[filter.Offset:]
		}
	}
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	return domain.ListResult[*Counterparty]{Items: items, TotalCount: total}, nil
}

func (r *MemRepository) Exists(_ context.Context, entityID id.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byID[entityID]
	return ok, nil
}

func (r *MemRepository) AdjustBalance(_ context.Context, entityID id.ID, delta types.MinorUnits) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[entityID]
	if !ok {
		return apperror.NewNotFound("counterparty", entityID.String())
	}
	c.Balance += delta
	return nil
}

func (r *MemRepository) AdjustBalanceClamped(_ context.Context, entityID id.ID, delta types.MinorUnits) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[entityID]
	if !ok {
		return apperror.NewNotFound("counterparty", entityID.String())
	}
	c.Balance = (c.Balance + delta).ClampNonNegative()
	return nil
}
