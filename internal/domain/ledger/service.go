package ledger

import (
	"context"
	"fmt"

	"celltrade/internal/core/id"
	"celltrade/internal/domain/catalogs/counterparty"
)

// Source supplies the raw rows the statement is derived from.
// Implemented in infrastructure over the sale/purchase/payment tables.
type Source interface {
	// UnpaidDocuments returns the entity's sales (customer) or purchase
	// invoices (supplier) whose totalAmount − paidAmount > 0, with that
	// residual.
	UnpaidDocuments(ctx context.Context, entityID id.ID) ([]DocumentRow, error)

	// Payments returns all payment/refund rows for the entity.
	Payments(ctx context.Context, entityID id.ID) ([]PaymentRow, error)
}

// Service builds ledger statements for counterparties.
type Service struct {
	source  Source
	parties counterparty.Repository
}

// NewService creates a new ledger service.
func NewService(source Source, parties counterparty.Repository) *Service {
	return &Service{
		source:  source,
		parties: parties,
	}
}

// Statement builds the chronological statement for one counterparty.
func (s *Service) Statement(ctx context.Context, entityID id.ID) (Statement, error) {
	cp, err := s.parties.GetByID(ctx, entityID)
	if err != nil {
		return Statement{}, err
	}

	docs, err := s.source.UnpaidDocuments(ctx, entityID)
	if err != nil {
		return Statement{}, fmt.Errorf("load documents: %w", err)
	}

	payments, err := s.source.Payments(ctx, entityID)
	if err != nil {
		return Statement{}, fmt.Errorf("load payments: %w", err)
	}

	st := BuildStatement(cp.Kind, docs, payments)
	st.EntityID = entityID.String()
	return st, nil
}
