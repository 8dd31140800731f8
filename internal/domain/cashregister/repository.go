package cashregister

import (
	"context"

	"celltrade/internal/core/id"
	"celltrade/internal/domain"
)

// Repository defines operations for cash register sessions.
type Repository interface {
	// Create inserts a new session.
	Create(ctx context.Context, s *Session) error

	// GetByID retrieves a session.
	GetByID(ctx context.Context, sessionID id.ID) (*Session, error)

	// GetOpen returns the single open session, or NotFound when none is open.
	GetOpen(ctx context.Context) (*Session, error)

	// GetOpenForUpdate locks the open session row. Open/close use it to keep
	// the at-most-one-open invariant under concurrent requests.
	GetOpenForUpdate(ctx context.Context) (*Session, error)

	// Update persists the session (with optimistic locking).
	Update(ctx context.Context, s *Session) error

	// CashFlow aggregates the cash-method rows attributed to the session.
	CashFlow(ctx context.Context, sessionID id.ID) (CashFlow, error)

	// List retrieves sessions, newest first.
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Session], error)
}
