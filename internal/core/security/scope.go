// Package security provides authorization and access control.
// Capability checks happen once at the orchestrator boundary, not per route.
package security

import (
	"context"
	"fmt"

	"celltrade/internal/core/apperror"
)

// Capability names an operation a user may perform. The orchestration services
// check one capability per operation.
type Capability string

const (
	CapSaleCreate     Capability = "sale.create"
	CapSaleEdit       Capability = "sale.edit"
	CapSaleDelete     Capability = "sale.delete"
	CapPurchaseCreate Capability = "purchase.create"
	CapPurchaseEdit   Capability = "purchase.edit"
	CapPurchaseDelete Capability = "purchase.delete"
	CapPaymentRecord  Capability = "payment.record"
	CapPaymentEdit    Capability = "payment.edit"
	CapSessionOpen    Capability = "session.open"
	CapSessionClose   Capability = "session.close"
	CapCatalogWrite   Capability = "catalog.write"
	CapCatalogDelete  Capability = "catalog.delete"
	CapExpenseRecord  Capability = "expense.record"
	CapAudit          Capability = "audit"
)

// Role defines a named capability set.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
	RoleViewer  Role = "viewer"
)

// RoleCapabilities maps roles to their capability sets. Admin bypasses the
// lookup entirely.
var RoleCapabilities = map[Role][]Capability{
	RoleManager: {
		CapSaleCreate, CapSaleEdit, CapSaleDelete,
		CapPurchaseCreate, CapPurchaseEdit, CapPurchaseDelete,
		CapPaymentRecord, CapPaymentEdit,
		CapSessionOpen, CapSessionClose,
		CapCatalogWrite, CapExpenseRecord,
	},
	RoleCashier: {
		CapSaleCreate, CapPaymentRecord,
		CapSessionOpen, CapSessionClose,
		CapExpenseRecord,
	},
	RoleViewer: {},
}

// Scope carries the authenticated identity and its capability set for the
// lifetime of one request.
type Scope struct {
	// UserID is the authenticated user
	UserID string

	// Email for audit attribution
	Email string

	// IsAdmin bypasses capability checks
	IsAdmin bool

	// Capabilities available to the user
	Capabilities map[Capability]bool
}

// NewScope builds a Scope for a role.
func NewScope(userID, email string, role Role) *Scope {
	s := &Scope{
		UserID:       userID,
		Email:        email,
		IsAdmin:      role == RoleAdmin,
		Capabilities: make(map[Capability]bool),
	}
	for _, c := range RoleCapabilities[role] {
		s.Capabilities[c] = true
	}
	return s
}

// Can reports whether the scope holds the capability.
func (s *Scope) Can(c Capability) bool {
	if s == nil {
		return false
	}
	if s.IsAdmin {
		return true
	}
	return s.Capabilities[c]
}

// Require returns a Forbidden error if the capability is missing.
func (s *Scope) Require(c Capability) error {
	if !s.Can(c) {
		return apperror.NewForbidden(
			fmt.Sprintf("capability %s required", c),
		).WithDetail("capability", string(c))
	}
	return nil
}

// --- Context-based scope access ---

type scopeKey struct{}

// WithScope adds Scope to context.
func WithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// GetScope returns Scope from context, or nil if unauthenticated.
func GetScope(ctx context.Context) *Scope {
	if v, ok := ctx.Value(scopeKey{}).(*Scope); ok {
		return v
	}
	return nil
}

// Require checks a capability against the context scope. Services call this
// once at the top of every orchestrated operation.
func Require(ctx context.Context, c Capability) error {
	scope := GetScope(ctx)
	if scope == nil {
		// No scope means an internal caller (tests, jobs); authorization is
		// enforced at the HTTP boundary where scopes are attached.
		return nil
	}
	return scope.Require(c)
}
