package dto

import (
	"time"

	"celltrade/internal/core/id"
	"celltrade/internal/core/types"
	"celltrade/internal/domain/ledger"
	"celltrade/internal/domain/payment"
)

// CreatePaymentRequest records a payment or refund against a counterparty.
// Amount is a positive magnitude; the balance direction follows from the
// counterparty kind and the transaction type.
type CreatePaymentRequest struct {
	EntityID  id.ID            `json:"entityId" binding:"required"`
	Type      string           `json:"transactionType" binding:"required,oneof=payment refund"`
	Amount    types.MinorUnits `json:"amount" binding:"required,min=1"`
	Method    string           `json:"method" binding:"required,oneof=cash card transfer"`
	Date      *time.Time       `json:"date"`
	Reference string           `json:"reference"`
	Notes     string           `json:"notes"`
	Comment   string           `json:"comment"`
}

// ToEntity builds a new payment from the request.
func (r CreatePaymentRequest) ToEntity() *payment.Payment {
	p := payment.New(r.EntityID, ledger.TransactionType(r.Type), r.Amount, types.PaymentMethod(r.Method))
	if r.Date != nil {
		p.Date = *r.Date
	}
	p.Reference = r.Reference
	p.Notes = r.Notes
	p.Comment = r.Comment
	return p
}

// UpdatePaymentRequest edits a payment. The counterparty and transaction
// type are immutable; amount changes re-apply the balance delta.
type UpdatePaymentRequest struct {
	Amount    *types.MinorUnits `json:"amount" binding:"omitempty,min=1"`
	Date      *time.Time        `json:"date"`
	Method    *string           `json:"method" binding:"omitempty,oneof=cash card transfer"`
	Reference *string           `json:"reference"`
	Notes     *string           `json:"notes"`
	Comment   *string           `json:"comment"`
}

// ToInput converts the request to the service input.
func (r UpdatePaymentRequest) ToInput() payment.EditInput {
	in := payment.EditInput{
		Amount:    r.Amount,
		Date:      r.Date,
		Reference: r.Reference,
		Notes:     r.Notes,
		Comment:   r.Comment,
	}
	if r.Method != nil {
		m := types.PaymentMethod(*r.Method)
		in.Method = &m
	}
	return in
}
