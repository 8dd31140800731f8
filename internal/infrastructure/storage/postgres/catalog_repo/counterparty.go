package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/id"
	"celltrade/internal/core/types"
	"celltrade/internal/domain/catalogs/counterparty"
	"celltrade/internal/infrastructure/storage/postgres"
)

const counterpartyTable = "cat_counterparties"

// Compile-time check.
var _ counterparty.Repository = (*CounterpartyRepo)(nil)

// CounterpartyRepo implements counterparty.Repository.
type CounterpartyRepo struct {
	*BaseCatalogRepo[*counterparty.Counterparty]
}

// NewCounterpartyRepo creates a new counterparty repository.
func NewCounterpartyRepo(txManager *postgres.TxManager) *CounterpartyRepo {
	return &CounterpartyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*counterparty.Counterparty](
			txManager,
			counterpartyTable,
			postgres.ExtractDBColumns[counterparty.Counterparty](),
			[]string{"name", "code", "phone"},
			func() *counterparty.Counterparty { return &counterparty.Counterparty{} },
		),
	}
}

// AdjustBalance applies a signed delta to the cached balance.
func (r *CounterpartyRepo) AdjustBalance(ctx context.Context, entityID id.ID, delta types.MinorUnits) error {
	q := r.Builder().
		Update(counterpartyTable).
		Set("balance", squirrel.Expr("balance + ?", int64(delta))).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build adjust balance: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(counterpartyTable, entityID.String())
	}

	return nil
}

// AdjustBalanceClamped applies a signed delta but floors the result at zero.
// Purchase reversal uses this: the supplier balance never goes negative even
// when payments already covered part of the deleted invoice.
func (r *CounterpartyRepo) AdjustBalanceClamped(ctx context.Context, entityID id.ID, delta types.MinorUnits) error {
	q := r.Builder().
		Update(counterpartyTable).
		Set("balance", squirrel.Expr("GREATEST(balance + ?, 0)", int64(delta))).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build adjust balance clamped: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("adjust balance clamped: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(counterpartyTable, entityID.String())
	}

	return nil
}
