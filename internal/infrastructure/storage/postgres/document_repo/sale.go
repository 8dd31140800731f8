package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"celltrade/internal/core/id"
	"celltrade/internal/domain"
	"celltrade/internal/domain/documents/sale"
	"celltrade/internal/infrastructure/storage/postgres"
)

const (
	salesTable     = "doc_sales"
	saleLinesTable = "doc_sale_lines"
)

// Compile-time check.
var _ sale.Repository = (*SaleRepo)(nil)

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	*BaseDocumentRepo[*sale.Sale]
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*sale.Sale](
			txManager,
			salesTable,
			postgres.ExtractDBColumns[sale.Sale](),
			func() *sale.Sale { return &sale.Sale{} },
		),
	}
}

// ListLines retrieves lines for a sale.
func (r *SaleRepo) ListLines(ctx context.Context, saleID id.ID) ([]sale.Line, error) {
	q := r.Builder().
		Select("id", "sale_id", "item_id", "imei", "unit_price", "cost_basis", "profit").
		From(saleLinesTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("imei")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []sale.Line
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}

	return lines, nil
}

// ReplaceLines saves the line set (delete existing + insert new).
func (r *SaleRepo) ReplaceLines(ctx context.Context, saleID id.ID, lines []sale.Line) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + saleLinesTable + " WHERE sale_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, saleID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(saleLinesTable).
		Columns("id", "sale_id", "item_id", "imei", "unit_price", "cost_basis", "profit")

	for _, line := range lines {
		q = q.Values(
			line.ID, saleID, line.ItemID, line.IMEI,
			line.UnitPrice, line.CostBasis, line.Profit,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

// ListUnpaidByCustomer returns sales with a positive unpaid residual,
// oldest first, for statement building.
func (r *SaleRepo) ListUnpaidByCustomer(ctx context.Context, customerID id.ID) ([]*sale.Sale, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"customer_id": customerID}).
		Where(squirrel.Expr("total_amount > paid_amount")).
		OrderBy("date ASC", "id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sales []*sale.Sale
	if err := pgxscan.Select(ctx, r.Querier(ctx), &sales, sql, args...); err != nil {
		return nil, fmt.Errorf("list unpaid: %w", err)
	}

	return sales, nil
}

// DetachCounterparty nulls the customer reference on this customer's sales.
// The documents stay in history with their totals intact.
func (r *SaleRepo) DetachCounterparty(ctx context.Context, customerID id.ID) (int64, error) {
	q := r.Builder().
		Update(salesTable).
		Set("customer_id", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"customer_id": customerID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build detach: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("detach customer: %w", err)
	}

	return result.RowsAffected(), nil
}

// List retrieves sales with filtering.
func (r *SaleRepo) List(ctx context.Context, filter sale.ListFilter) (domain.ListResult[*sale.Sale], error) {
	q := r.baseSelect()

	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}

	if filter.SessionID != nil {
		q = q.Where(squirrel.Eq{"session_id": *filter.SessionID})
	}

	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.From})
	}

	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.To})
	}

	return listWith(ctx, r.BaseDocumentRepo, q, filter.ListFilter)
}
