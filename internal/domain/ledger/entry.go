// Package ledger provides the balance-ledger engine: the direction table for
// balance and cash effects, the chronological statement builder, and the
// drift auditor that reconciles cached balances against recomputed ones.
package ledger

import (
	"time"

	"celltrade/internal/core/id"
	"celltrade/internal/core/types"
	"celltrade/internal/domain/catalogs/counterparty"
)

// TransactionType distinguishes ordinary payments from refunds.
type TransactionType string

const (
	TxPayment TransactionType = "payment"
	TxRefund  TransactionType = "refund"
)

// IsValidTransactionType reports whether t is a known transaction type.
func IsValidTransactionType(t TransactionType) bool {
	return t == TxPayment || t == TxRefund
}

// PaymentDelta is the signed effect of a payment row on the counterparty's
// cached balance. The direction is the same for customers and suppliers:
// a payment settles debt (negative), a refund re-raises it (positive).
func PaymentDelta(txType TransactionType, amount types.MinorUnits) types.MinorUnits {
	if txType == TxRefund {
		return amount
	}
	return -amount
}

// CashEffect is the signed effect of a cash-method payment on the register
// drawer. Here the counterparty kind matters: customer payments bring cash
// in, supplier payments take cash out, refunds invert each.
func CashEffect(kind counterparty.Kind, txType TransactionType, amount types.MinorUnits) types.MinorUnits {
	in := kind == counterparty.KindCustomer
	if txType == TxRefund {
		in = !in
	}
	if in {
		return amount
	}
	return -amount
}

// EntryType identifies the source of a statement entry.
type EntryType string

const (
	EntrySale     EntryType = "sale"
	EntryPurchase EntryType = "purchase"
	EntryPayment  EntryType = "payment"
	EntryRefund   EntryType = "refund"
)

// Entry is one line of a ledger statement.
type Entry struct {
	Type       EntryType        `json:"type"`
	DocumentID id.ID            `json:"documentId"`
	Number     string           `json:"number"`
	Date       time.Time        `json:"date"`
	Debit      types.MinorUnits `json:"debit"`
	Credit     types.MinorUnits `json:"credit"`

	// Running is the balance after this entry, accumulated in
	// chronological order.
	Running types.MinorUnits `json:"running"`
}

// DocumentRow is a sale/purchase feeding the statement: only the unpaid
// residual at recording time contributes, dated at the transaction date.
type DocumentRow struct {
	ID       id.ID
	Number   string
	Date     time.Time
	Residual types.MinorUnits
}

// PaymentRow is a payment/refund feeding the statement.
type PaymentRow struct {
	ID     id.ID
	Number string
	Date   time.Time
	Type   TransactionType
	Amount types.MinorUnits
}
