package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"celltrade/internal/core/id"
	"celltrade/internal/domain"
	"celltrade/internal/domain/payment"
	"celltrade/internal/infrastructure/storage/postgres"
)

const paymentsTable = "doc_payments"

// Compile-time check.
var _ payment.Repository = (*PaymentRepo)(nil)

// PaymentRepo implements payment.Repository.
type PaymentRepo struct {
	*BaseDocumentRepo[*payment.Payment]
}

// NewPaymentRepo creates a new payment repository.
func NewPaymentRepo(txManager *postgres.TxManager) *PaymentRepo {
	return &PaymentRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*payment.Payment](
			txManager,
			paymentsTable,
			postgres.ExtractDBColumns[payment.Payment](),
			func() *payment.Payment { return &payment.Payment{} },
		),
	}
}

// DeleteByEntity removes every payment of a counterparty. The hard-delete
// cascade runs this before dropping the counterparty row.
func (r *PaymentRepo) DeleteByEntity(ctx context.Context, entityID id.ID) error {
	q := r.Builder().
		Delete(paymentsTable).
		Where(squirrel.Eq{"entity_id": entityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete by entity: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete payments by entity: %w", err)
	}

	return nil
}

// ListByEntity returns a counterparty's payments in ascending date order.
func (r *PaymentRepo) ListByEntity(ctx context.Context, entityID id.ID) ([]*payment.Payment, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"entity_id": entityID}).
		OrderBy("date ASC", "id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var payments []*payment.Payment
	if err := pgxscan.Select(ctx, r.Querier(ctx), &payments, sql, args...); err != nil {
		return nil, fmt.Errorf("list by entity: %w", err)
	}

	return payments, nil
}

// List retrieves payments with filtering.
func (r *PaymentRepo) List(ctx context.Context, filter payment.ListFilter) (domain.ListResult[*payment.Payment], error) {
	q := r.baseSelect()

	if filter.EntityID != nil {
		q = q.Where(squirrel.Eq{"entity_id": *filter.EntityID})
	}

	if filter.Type != "" {
		q = q.Where(squirrel.Eq{"transaction_type": filter.Type})
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
