// Package purchase implements supplier purchase invoices: the documents
// that create serialized inventory items and carry the payable side of the
// balance ledger.
package purchase

import (
	"context"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/entity"
	"celltrade/internal/core/id"
	"celltrade/internal/core/types"
)

// Invoice is one purchase from a supplier. Unlike sales, a supplier is
// always required at creation: items cannot enter inventory without a
// source. The reference only goes nil when the supplier is hard-deleted
// and historical invoices are detached.
type Invoice struct {
	entity.Document

	SupplierID *id.ID `db:"supplier_id" json:"supplierId,omitempty"`

	// Subtotal is Σ line unit prices
	Subtotal types.MinorUnits `db:"subtotal" json:"subtotal"`

	DiscountAmount types.MinorUnits `db:"discount_amount" json:"discountAmount"`

	// TotalAmount = subtotal − discount
	TotalAmount types.MinorUnits `db:"total_amount" json:"totalAmount"`

	PaidAmount types.MinorUnits `db:"paid_amount" json:"paidAmount"`

	// BalanceImpact = max(0, total − paid): the unpaid portion carried on
	// the supplier balance.
	BalanceImpact types.MinorUnits `db:"balance_impact" json:"balanceImpact"`

	PaymentType types.PaymentType `db:"payment_type" json:"paymentType"`

	// Method is informational on the purchase side: supplier money is not
	// drawer money, so invoices are never attributed to a register session.
	Method types.PaymentMethod `db:"method" json:"method"`
}

// Line is one received item. The unit price is the item's cost basis, so
// no separate snapshot is needed.
type Line struct {
	ID        id.ID `db:"id" json:"id"`
	InvoiceID id.ID `db:"invoice_id" json:"invoiceId"`
	ItemID    id.ID `db:"item_id" json:"itemId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	IMEI string `db:"imei" json:"imei"`

	UnitPrice types.MinorUnits `db:"unit_price" json:"unitPrice"`
}

// Totals is the derived money state of an invoice.
type Totals struct {
	Subtotal      types.MinorUnits
	TotalAmount   types.MinorUnits
	BalanceImpact types.MinorUnits
	PaymentType   types.PaymentType
}

// ComputeTotals derives the money state from line prices.
func ComputeTotals(lines []Line, discount, paid types.MinorUnits) (Totals, error) {
	if discount.IsNegative() {
		return Totals{}, apperror.NewValidation("discount must not be negative").
			WithDetail("field", "discountAmount")
	}
	if paid.IsNegative() {
		return Totals{}, apperror.NewValidation("paid amount must not be negative").
			WithDetail("field", "paidAmount")
	}

	var t Totals
	for _, l := range lines {
		t.Subtotal += l.UnitPrice
	}
	if discount > t.Subtotal {
		return Totals{}, apperror.NewValidation("discount exceeds subtotal").
			WithDetail("field", "discountAmount").
			WithDetail("subtotal", int64(t.Subtotal))
	}
	t.TotalAmount = t.Subtotal - discount
	if paid > t.TotalAmount {
		return Totals{}, apperror.NewValidation("paid amount exceeds total").
			WithDetail("field", "paidAmount").
			WithDetail("total", int64(t.TotalAmount))
	}
	t.BalanceImpact = (t.TotalAmount - paid).ClampNonNegative()
	t.PaymentType = types.DerivePaymentType(paid, t.TotalAmount)
	return t, nil
}

// ApplyTotals writes the derived money state onto the invoice.
func (p *Invoice) ApplyTotals(t Totals, discount, paid types.MinorUnits) {
	p.Subtotal = t.Subtotal
	p.DiscountAmount = discount
	p.TotalAmount = t.TotalAmount
	p.PaidAmount = paid
	p.BalanceImpact = t.BalanceImpact
	p.PaymentType = t.PaymentType
}

// Residual is the portion of this invoice still unpaid, for statements.
func (p *Invoice) Residual() types.MinorUnits {
	return p.BalanceImpact
}

// New creates an invoice with generated ID and current date.
func New(supplierID id.ID, method types.PaymentMethod) *Invoice {
	return &Invoice{
		Document:   entity.NewDocument(),
		SupplierID: &supplierID,
		Method:     method,
	}
}

// Validate implements entity.Validatable.
func (p *Invoice) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}
	if p.SupplierID == nil || id.IsNil(*p.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	if !p.Method.IsValid() {
		return apperror.NewValidation("unknown payment method").
			WithDetail("field", "method").
			WithDetail("value", string(p.Method))
	}
	return nil
}
