// Package cashregister provides cash register sessions and their
// reconciliation. Exactly one session may be open at a time system-wide.
package cashregister

import (
	"context"
	"time"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/entity"
	"celltrade/internal/core/types"
	"celltrade/internal/domain/catalogs/counterparty"
	"celltrade/internal/domain/ledger"
)

// Status is the session lifecycle state. Open is initial, closed is terminal:
// a closed session is never reopened.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Session is a bounded time window attributing cash-method transactions.
type Session struct {
	entity.Document

	Status Status `db:"status" json:"status"`

	// OpeningBalance is the counted drawer amount at open
	OpeningBalance types.MinorUnits `db:"opening_balance" json:"openingBalance"`

	// ExpectedBalance is computed at close from the attributed cash rows
	ExpectedBalance *types.MinorUnits `db:"expected_balance" json:"expectedBalance,omitempty"`

	// ActualBalance is the operator-counted drawer amount at close
	ActualBalance *types.MinorUnits `db:"actual_balance" json:"actualBalance,omitempty"`

	// Difference = actual − expected
	Difference *types.MinorUnits `db:"difference" json:"difference,omitempty"`

	OpenedAt time.Time  `db:"opened_at" json:"openedAt"`
	OpenedBy string     `db:"opened_by" json:"openedBy,omitempty"`
	ClosedAt *time.Time `db:"closed_at" json:"closedAt,omitempty"`
	ClosedBy *string    `db:"closed_by" json:"closedBy,omitempty"`
}

// NewSession opens a session with the counted opening balance.
func NewSession(openingBalance types.MinorUnits, openedBy string) *Session {
	return &Session{
		Document:       entity.NewDocument(),
		Status:         StatusOpen,
		OpeningBalance: openingBalance,
		OpenedAt:       time.Now().UTC(),
		OpenedBy:       openedBy,
	}
}

// Validate implements entity.Validatable.
func (s *Session) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}
	if s.OpeningBalance.IsNegative() {
		return apperror.NewValidation("opening balance must not be negative").
			WithDetail("field", "openingBalance")
	}
	return nil
}

// IsOpen reports whether the session still accepts cash rows.
func (s *Session) IsOpen() bool {
	return s.Status == StatusOpen
}

// Close records the counted balance and transitions to closed (terminal).
func (s *Session) Close(expected, actual types.MinorUnits, closedBy string, at time.Time) error {
	if !s.IsOpen() {
		return apperror.NewSessionClosed(s.ID.String())
	}

	diff := actual - expected
	s.Status = StatusClosed
	s.ExpectedBalance = &expected
	s.ActualBalance = &actual
	s.Difference = &diff
	s.ClosedAt = &at
	s.ClosedBy = &closedBy
	s.Touch()
	return nil
}

// CashFlow aggregates a session's attributed cash-method rows.
// Sales contribute their paid amount, payments their directional effect,
// expenses always subtract.
type CashFlow struct {
	// SalePaid is Σ paidAmount of cash-method sales
	SalePaid types.MinorUnits

	// Payments are the cash-method payment/refund rows
	Payments []SessionPayment

	// ExpenseTotal is Σ cash-method expense amounts
	ExpenseTotal types.MinorUnits
}

// SessionPayment is one cash-method payment attributed to the session.
type SessionPayment struct {
	Kind   counterparty.Kind
	Type   ledger.TransactionType
	Amount types.MinorUnits
}

// ExpectedBalance folds the cash flow into the drawer amount the operator
// should be able to count.
func (s *Session) ExpectedFromFlow(flow CashFlow) types.MinorUnits {
	expected := s.OpeningBalance + flow.SalePaid - flow.ExpenseTotal
	for _, p := range flow.Payments {
		expected += ledger.CashEffect(p.Kind, p.Type, p.Amount)
	}
	return expected
}
