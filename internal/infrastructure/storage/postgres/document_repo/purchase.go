package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"celltrade/internal/core/id"
	"celltrade/internal/domain"
	"celltrade/internal/domain/documents/purchase"
	"celltrade/internal/infrastructure/storage/postgres"
)

const (
	purchasesTable     = "doc_purchase_invoices"
	purchaseLinesTable = "doc_purchase_invoice_lines"
)

// Compile-time check.
var _ purchase.Repository = (*PurchaseRepo)(nil)

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	*BaseDocumentRepo[*purchase.Invoice]
}

// NewPurchaseRepo creates a new purchase invoice repository.
func NewPurchaseRepo(txManager *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*purchase.Invoice](
			txManager,
			purchasesTable,
			postgres.ExtractDBColumns[purchase.Invoice](),
			func() *purchase.Invoice { return &purchase.Invoice{} },
		),
	}
}

// ListLines retrieves lines for an invoice.
func (r *PurchaseRepo) ListLines(ctx context.Context, invoiceID id.ID) ([]purchase.Line, error) {
	q := r.Builder().
		Select("id", "invoice_id", "item_id", "product_id", "imei", "unit_price").
		From(purchaseLinesTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("imei")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []purchase.Line
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}

	return lines, nil
}

// ReplaceLines saves the line set (delete existing + insert new).
func (r *PurchaseRepo) ReplaceLines(ctx context.Context, invoiceID id.ID, lines []purchase.Line) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + purchaseLinesTable + " WHERE invoice_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, invoiceID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(purchaseLinesTable).
		Columns("id", "invoice_id", "item_id", "product_id", "imei", "unit_price")

	for _, line := range lines {
		q = q.Values(
			line.ID, invoiceID, line.ItemID, line.ProductID,
			line.IMEI, line.UnitPrice,
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

// ListUnpaidBySupplier returns invoices with a positive unpaid residual,
// oldest first, for statement building.
func (r *PurchaseRepo) ListUnpaidBySupplier(ctx context.Context, supplierID id.ID) ([]*purchase.Invoice, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"supplier_id": supplierID}).
		Where(squirrel.Expr("total_amount > paid_amount")).
		OrderBy("date ASC", "id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var invoices []*purchase.Invoice
	if err := pgxscan.Select(ctx, r.Querier(ctx), &invoices, sql, args...); err != nil {
		return nil, fmt.Errorf("list unpaid: %w", err)
	}

	return invoices, nil
}

// DetachCounterparty nulls the supplier reference on this supplier's invoices.
func (r *PurchaseRepo) DetachCounterparty(ctx context.Context, supplierID id.ID) (int64, error) {
	q := r.Builder().
		Update(purchasesTable).
		Set("supplier_id", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"supplier_id": supplierID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build detach: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("detach supplier: %w", err)
	}

	return result.RowsAffected(), nil
}

// List retrieves purchase invoices with filtering.
func (r *PurchaseRepo) List(ctx context.Context, filter purchase.ListFilter) (domain.ListResult[*purchase.Invoice], error) {
	q := r.baseSelect()

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}

	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.From})
	}

	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.To})
	}

	return listWith(ctx, r.BaseDocumentRepo, q, filter.ListFilter)
}
