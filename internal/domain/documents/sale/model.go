// Package sale implements customer sales of serialized inventory items and
// the orchestration that keeps item status, customer balance, and cash
// register attribution consistent across create, edit, and delete.
package sale

import (
	"context"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/entity"
	"celltrade/internal/core/id"
	"celltrade/internal/core/types"
)

// PaymentType aliases keep call sites in this package short.
const (
	PaymentFull    = types.PaymentFull
	PaymentPartial = types.PaymentPartial
	PaymentCredit  = types.PaymentCredit
)

// Sale is one transaction with a customer. CustomerID is nil for walk-in
// sales, which must then be fully paid.
type Sale struct {
	entity.Document

	CustomerID *id.ID `db:"customer_id" json:"customerId,omitempty"`

	// Subtotal is Σ line unit prices
	Subtotal types.MinorUnits `db:"subtotal" json:"subtotal"`

	DiscountAmount types.MinorUnits `db:"discount_amount" json:"discountAmount"`

	// TotalAmount = subtotal − discount
	TotalAmount types.MinorUnits `db:"total_amount" json:"totalAmount"`

	PaidAmount types.MinorUnits `db:"paid_amount" json:"paidAmount"`

	// BalanceImpact = max(0, total − paid): the unpaid portion carried on
	// the customer balance. Reflected there exactly once at all times.
	BalanceImpact types.MinorUnits `db:"balance_impact" json:"balanceImpact"`

	// Profit is Σ per-line clamped margins
	Profit types.MinorUnits `db:"profit" json:"profit"`

	PaymentType types.PaymentType `db:"payment_type" json:"paymentType"`

	Method types.PaymentMethod `db:"method" json:"method"`

	// SessionID links a sale to the register session open at creation
	SessionID *id.ID `db:"session_id" json:"sessionId,omitempty"`
}

// Line is one sold item within a sale, with margin snapshots taken at the
// time the line was (re)derived.
type Line struct {
	ID     id.ID `db:"id" json:"id"`
	SaleID id.ID `db:"sale_id" json:"saleId"`
	ItemID id.ID `db:"item_id" json:"itemId"`

	IMEI string `db:"imei" json:"imei"`

	UnitPrice types.MinorUnits `db:"unit_price" json:"unitPrice"`

	// CostBasis is the item's purchase price at line creation
	CostBasis types.MinorUnits `db:"cost_basis" json:"costBasis"`

	// Profit = max(0, unitPrice − costBasis)
	Profit types.MinorUnits `db:"profit" json:"profit"`
}

// Totals is the derived money state of a sale, recomputed from the full
// line set on every mutation rather than adjusted incrementally.
type Totals struct {
	Subtotal      types.MinorUnits
	TotalAmount   types.MinorUnits
	Profit        types.MinorUnits
	BalanceImpact types.MinorUnits
	PaymentType   types.PaymentType
}

// ComputeTotals derives the money state from line prices and cost bases.
// Returns a validation error when discount exceeds the subtotal or the paid
// amount exceeds the discounted total.
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
		t.Profit += (l.UnitPrice - l.CostBasis).ClampNonNegative()
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

// ApplyTotals writes the derived money state onto the sale.
func (s *Sale) ApplyTotals(t Totals, discount, paid types.MinorUnits) {
	s.Subtotal = t.Subtotal
	s.DiscountAmount = discount
	s.TotalAmount = t.TotalAmount
	s.PaidAmount = paid
	s.BalanceImpact = t.BalanceImpact
	s.Profit = t.Profit
	s.PaymentType = t.PaymentType
}

// Residual is the portion of this sale still unpaid, for statements.
func (s *Sale) Residual() types.MinorUnits {
	return s.BalanceImpact
}

// New creates a sale with generated ID and current date.
func New(customerID *id.ID, method types.PaymentMethod) *Sale {
	return &Sale{
		Document:   entity.NewDocument(),
		CustomerID: customerID,
		Method:     method,
	}
}

// Validate implements entity.Validatable.
func (s *Sale) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}
	if !s.Method.IsValid() {
		return apperror.NewValidation("unknown payment method").
			WithDetail("field", "method").
			WithDetail("value", string(s.Method))
	}
	return nil
}
