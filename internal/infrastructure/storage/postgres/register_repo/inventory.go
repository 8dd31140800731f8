// Package register_repo provides PostgreSQL implementations for stock-level
// state: serialized inventory items and cash register sessions.
package register_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/id"
	"celltrade/internal/domain"
	"celltrade/internal/domain/inventory"
	"celltrade/internal/infrastructure/storage/postgres"
)

const itemsTable = "inv_items"

// Compile-time check.
var _ inventory.Repository = (*InventoryRepo)(nil)

// InventoryRepo implements inventory.Repository.
type InventoryRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

// NewInventoryRepo creates a new inventory repository.
func NewInventoryRepo(txManager *postgres.TxManager) *InventoryRepo {
	return &InventoryRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[inventory.Item](),
	}
}

func (r *InventoryRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *InventoryRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *InventoryRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(itemsTable)
}

// Create inserts a new item. A unique violation on the IMEI column maps to
// the duplicate-IMEI domain error.
func (r *InventoryRepo) Create(ctx context.Context, item *inventory.Item) error {
	data := postgres.StructToMap(item)

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder().
		Insert(itemsTable).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicateIMEI(item.IMEI).WithCause(err)
		}
		return fmt.Errorf("insert item: %w", err)
	}

	return nil
}

// GetByID retrieves an item by ID.
func (r *InventoryRepo) GetByID(ctx context.Context, itemID id.ID) (*inventory.Item, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": itemID}), itemID.String())
}

// GetByIMEI retrieves an item by IMEI.
func (r *InventoryRepo) GetByIMEI(ctx context.Context, imei string) (*inventory.Item, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"imei": imei}), imei)
}

// GetForUpdate retrieves an item with a row lock.
func (r *InventoryRepo) GetForUpdate(ctx context.Context, itemID id.ID) (*inventory.Item, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": itemID}).
		Suffix("FOR UPDATE")
	return r.getOne(ctx, q, itemID.String())
}

func (r *InventoryRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*inventory.Item, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	item := &inventory.Item{}
	if err := pgxscan.Get(ctx, r.querier(ctx), item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(itemsTable, key)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}

	return item, nil
}

// Update persists the full item state with optimistic locking. Status and
// sale linkage always travel together, so partial updates are not offered.
func (r *InventoryRepo) Update(ctx context.Context, item *inventory.Item) error {
	data := postgres.StructToMap(item)

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if col == "id" || col == "created_at" || col == "created_by" {
			continue
		}
		if col == "version" || col == "updated_at" {
			continue
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder().
		Update(itemsTable).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": item.ID}).
		Where(squirrel.Eq{"version": item.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(itemsTable, item.ID)
	}

	return nil
}

// Delete removes an item row. Sold items are guarded at the service level.
func (r *InventoryRepo) Delete(ctx context.Context, itemID id.ID) error {
	q := r.builder().
		Delete(itemsTable).
		Where(squirrel.Eq{"id": itemID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(itemsTable, itemID.String())
	}

	return nil
}

// ExistsIMEI checks whether any item carries the IMEI, archived included.
func (r *InventoryRepo) ExistsIMEI(ctx context.Context, imei string) (bool, error) {
	q := r.builder().
		Select("1").
		From(itemsTable).
		Where(squirrel.Eq{"imei": imei}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists imei: %w", err)
	}

	return true, nil
}

// ListByPurchase returns the items created by a purchase invoice.
func (r *InventoryRepo) ListByPurchase(ctx context.Context, purchaseID id.ID) ([]*inventory.Item, error) {
	return r.selectMany(ctx, r.baseSelect().
		Where(squirrel.Eq{"purchase_id": purchaseID}).
		OrderBy("imei"))
}

// ListBySale returns the items currently attached to a sale.
func (r *InventoryRepo) ListBySale(ctx context.Context, saleID id.ID) ([]*inventory.Item, error) {
	return r.selectMany(ctx, r.baseSelect().
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("imei"))
}

func (r *InventoryRepo) selectMany(ctx context.Context, q squirrel.SelectBuilder) ([]*inventory.Item, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*inventory.Item
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}

	return items, nil
}

// List retrieves items with filtering.
func (r *InventoryRepo) List(ctx context.Context, filter inventory.ListFilter) (domain.ListResult[*inventory.Item], error) {
	result := domain.ListResult[*inventory.Item]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if !filter.IncludeArchived {
		q = q.Where(squirrel.Eq{"archived": false})
	}

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"imei": "%" + filter.Search + "%"})
	}

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	countQ := r.builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list items: %w", err)
	}

	return result, nil
}
