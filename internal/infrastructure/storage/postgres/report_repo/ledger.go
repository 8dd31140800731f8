// Package report_repo provides read-side queries for derived views.
package report_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/id"
	"celltrade/internal/domain/catalogs/counterparty"
	"celltrade/internal/domain/ledger"
	"celltrade/internal/infrastructure/storage/postgres"
)

// Compile-time check.
var _ ledger.Source = (*LedgerSource)(nil)

// LedgerSource feeds the statement builder with unpaid document residuals
// and payment rows, straight from the document tables.
type LedgerSource struct {
	txManager *postgres.TxManager
}

// NewLedgerSource creates a new ledger source.
func NewLedgerSource(txManager *postgres.TxManager) *LedgerSource {
	return &LedgerSource{txManager: txManager}
}

// UnpaidDocuments returns the entity's sales (customer) or purchase invoices
// (supplier) with a positive unpaid residual.
func (s *LedgerSource) UnpaidDocuments(ctx context.Context, entityID id.ID) ([]ledger.DocumentRow, error) {
	querier := s.txManager.GetQuerier(ctx)

	var kind counterparty.Kind
	kindSQL := "SELECT kind FROM cat_counterparties WHERE id = $1"
	if err := querier.QueryRow(ctx, kindSQL, entityID).Scan(&kind); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("cat_counterparties", entityID.String())
		}
		return nil, fmt.Errorf("resolve counterparty kind: %w", err)
	}

	table := "doc_sales"
	entityCol := "customer_id"
	if kind == counterparty.KindSupplier {
		table = "doc_purchase_invoices"
		entityCol = "supplier_id"
	}

	docSQL := fmt.Sprintf(`
		SELECT id, number, date, total_amount - paid_amount AS residual
		FROM %s
		WHERE %s = $1 AND total_amount > paid_amount
		ORDER BY date ASC, id ASC`, table, entityCol)

	var docs []ledger.DocumentRow
	if err := pgxscan.Select(ctx, querier, &docs, docSQL, entityID); err != nil {
		return nil, fmt.Errorf("load unpaid documents: %w", err)
	}

	return docs, nil
}

// Payments returns all payment/refund rows for the entity, ascending by date.
func (s *LedgerSource) Payments(ctx context.Context, entityID id.ID) ([]ledger.PaymentRow, error) {
	querier := s.txManager.GetQuerier(ctx)

	paySQL := `
		SELECT id, number, date, transaction_type AS type, amount
		FROM doc_payments
		WHERE entity_id = $1
		ORDER BY date ASC, id ASC`

	var payments []ledger.PaymentRow
	if err := pgxscan.Select(ctx, querier, &payments, paySQL, entityID); err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}

	return payments, nil
}
