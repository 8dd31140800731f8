// Package payment implements counterparty cash movements: payments that
// settle debt and refunds that restore it.
package payment

import (
	"context"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/entity"
	"celltrade/internal/core/id"
	"celltrade/internal/core/types"
	"celltrade/internal/domain/ledger"
)

// Payment is one cash movement tied to a single counterparty. Amount is
// always a positive magnitude; the balance direction is derived from the
// counterparty kind and the transaction type (see ledger.PaymentDelta).
type Payment struct {
	entity.Document

	EntityID id.ID `db:"entity_id" json:"entityId"`

	Type ledger.TransactionType `db:"transaction_type" json:"transactionType"`

	Amount types.MinorUnits `db:"amount" json:"amount"`

	Method types.PaymentMethod `db:"method" json:"method"`

	Reference string `db:"reference" json:"reference,omitempty"`

	Notes string `db:"notes" json:"notes,omitempty"`

	// SessionID links a cash-method payment to the session that was open
	// when it was recorded
	SessionID *id.ID `db:"session_id" json:"sessionId,omitempty"`
}

// New creates a payment with generated ID and current date.
func New(entityID id.ID, txType ledger.TransactionType, amount types.MinorUnits, method types.PaymentMethod) *Payment {
	return &Payment{
		Document: entity.NewDocument(),
		EntityID: entityID,
		Type:     txType,
		Amount:   amount,
		Method:   method,
	}
}

// Validate implements entity.Validatable.
func (p *Payment) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(p.EntityID) {
		return apperror.NewValidation("entity is required").
			WithDetail("field", "entityId")
	}
	if !ledger.IsValidTransactionType(p.Type) {
		return apperror.NewValidation("unknown transaction type").
			WithDetail("field", "transactionType").
			WithDetail("value", string(p.Type))
	}
	if !p.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount")
	}
	if !p.Method.IsValid() {
		return apperror.NewValidation("unknown payment method").
			WithDetail("field", "method").
			WithDetail("value", string(p.Method))
	}
	return nil
}
