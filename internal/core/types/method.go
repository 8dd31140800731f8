package types

// PaymentMethod identifies how money moved. Only cash-method rows are
// attributed to a cash register session.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodCard     PaymentMethod = "card"
	MethodTransfer PaymentMethod = "transfer"
)

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer:
		return true
	}
	return false
}

// IsCash reports whether m participates in cash register reconciliation.
func (m PaymentMethod) IsCash() bool {
	return m == MethodCash
}

// PaymentType classifies how much of a document's total was paid at
// creation time.
type PaymentType string

const (
	PaymentFull    PaymentType = "full"
	PaymentPartial PaymentType = "partial"
	PaymentCredit  PaymentType = "credit"
)

// DerivePaymentType classifies paid against total. A zero-total document
// counts as fully paid.
func DerivePaymentType(paid, total MinorUnits) PaymentType {
	switch {
	case paid == total:
		return PaymentFull
	case paid.IsZero():
		return PaymentCredit
	default:
		return PaymentPartial
	}
}
