// Package counterparty provides the customer/supplier catalog.
// Each counterparty carries a cached running balance maintained incrementally
// by the sale/purchase/payment orchestrations.
package counterparty

import (
	"context"
	"regexp"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/entity"
	"celltrade/internal/core/types"
)

var (
	phoneRE = regexp.MustCompile(`^\+?[\d\s()-]{5,20}$`)
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Kind defines which side of the ledger the counterparty sits on.
type Kind string

const (
	// KindCustomer: positive balance means the customer owes the business
	// (receivable).
	KindCustomer Kind = "customer"

	// KindSupplier: positive balance means the business owes the supplier
	// (payable).
	KindSupplier Kind = "supplier"
)

// Counterparty represents a customer or supplier.
type Counterparty struct {
	entity.Catalog

	// Kind is customer or supplier
	Kind Kind `db:"kind" json:"kind"`

	// Balance is the cached running balance in minor units. It is a derived
	// cache kept in sync incrementally by the orchestrator; the ledger
	// statement is the recomputed source of truth for audits.
	Balance types.MinorUnits `db:"balance" json:"balance"`

	// Phone is the primary contact phone
	Phone *string `db:"phone" json:"phone,omitempty"`

	// Email is the primary contact email
	Email *string `db:"email" json:"email,omitempty"`

	// Address is the contact address
	Address *string `db:"address" json:"address,omitempty"`

	// Notes is a free-form comment
	Notes *string `db:"notes" json:"notes,omitempty"`
}

// New creates a new Counterparty with a zero balance.
func New(code, name string, kind Kind) *Counterparty {
	return &Counterparty{
		Catalog: entity.NewCatalog(code, name),
		Kind:    kind,
	}
}

// Validate implements entity.Validatable.
func (c *Counterparty) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidKind(c.Kind) {
		return apperror.NewValidation("invalid counterparty kind").
			WithDetail("field", "kind").
			WithDetail("value", string(c.Kind))
	}

	if c.Phone != nil && *c.Phone != "" && !phoneRE.MatchString(*c.Phone) {
		return apperror.NewValidation("invalid phone format").
			WithDetail("field", "phone")
	}

	if c.Email != nil && *c.Email != "" && !emailRE.MatchString(*c.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	return nil
}

// IsCustomer returns true for customers.
func (c *Counterparty) IsCustomer() bool {
	return c.Kind == KindCustomer
}

// IsSupplier returns true for suppliers.
func (c *Counterparty) IsSupplier() bool {
	return c.Kind == KindSupplier
}

func isValidKind(k Kind) bool {
	return k == KindCustomer || k == KindSupplier
}
