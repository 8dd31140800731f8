package expense

import (
	"context"
	"fmt"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/id"
	"celltrade/internal/core/security"
	"celltrade/internal/core/tx"
	"celltrade/internal/core/types"
	"celltrade/internal/domain"
	"celltrade/internal/domain/audit"
	"celltrade/internal/domain/cashregister"
	"celltrade/pkg/logger"
	"celltrade/pkg/numerator"
)

// SessionLocator resolves cash register sessions. Cash-method expenses are
// attributed to the open session and frozen once it closes.
type SessionLocator interface {
	GetOpen(ctx context.Context) (*cashregister.Session, error)
	GetByID(ctx context.Context, sessionID id.ID) (*cashregister.Session, error)
}

// Service records and maintains expenses.
type Service struct {
	repo      Repository
	sessions  SessionLocator
	txManager tx.Manager
	numerator numerator.Generator
	auditor   audit.Recorder
}

// NewService creates a new expense service.
func NewService(repo Repository, sessions SessionLocator, txm tx.Manager, gen numerator.Generator, auditor audit.Recorder) *Service {
	return &Service{
		repo:      repo,
		sessions:  sessions,
		txManager: txm,
		numerator: gen,
		auditor:   auditor,
	}
}

// Record persists a new expense. A cash-method expense is attributed to the
// open session when one exists.
func (s *Service) Record(ctx context.Context, exp *Expense) (*Expense, error) {
	if err := security.Require(ctx, security.CapExpenseRecord); err != nil {
		return nil, err
	}
	if err := exp.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if exp.Method.IsCash() {
			open, err := s.sessions.GetOpen(ctx)
			if err != nil && !apperror.IsNotFound(err) {
				return err
			}
			if open != nil {
				exp.SessionID = &open.ID
			}
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("EXP"), nil)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		exp.Number = number

		return s.repo.Create(ctx, exp)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, exp.ID, audit.ActionCreate, map[string]any{
		"amount":   int64(exp.Amount),
		"method":   string(exp.Method),
		"category": exp.Category,
	})

	logger.Info(ctx, "expense recorded",
		"id", exp.ID,
		"number", exp.Number,
		"amount", int64(exp.Amount),
	)
	return exp, nil
}

// Edit updates an expense. Rejected once the attributed session has closed,
// since the closed session's reconciliation already counted this row.
func (s *Service) Edit(ctx context.Context, expenseID id.ID, amount types.MinorUnits, category string, comment string) (*Expense, error) {
	if err := security.Require(ctx, security.CapExpenseRecord); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount")
	}

	var exp *Expense
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		exp, err = s.repo.GetByID(ctx, expenseID)
		if err != nil {
			return err
		}
		if err := s.requireSessionOpen(ctx, exp); err != nil {
			return err
		}

		exp.Amount = amount
		exp.Category = category
		exp.Comment = comment
		return s.repo.Update(ctx, exp)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, exp.ID, audit.ActionUpdate, map[string]any{
		"amount": int64(exp.Amount),
	})
	return exp, nil
}

// Delete removes an expense. Same closed-session guard as Edit.
func (s *Service) Delete(ctx context.Context, expenseID id.ID) error {
	if err := security.Require(ctx, security.CapExpenseRecord); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exp, err := s.repo.GetByID(ctx, expenseID)
		if err != nil {
			return err
		}
		if err := s.requireSessionOpen(ctx, exp); err != nil {
			return err
		}
		return s.repo.Delete(ctx, expenseID)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, expenseID, audit.ActionDelete, nil)
	return nil
}

// GetByID retrieves an expense.
func (s *Service) GetByID(ctx context.Context, expenseID id.ID) (*Expense, error) {
	return s.repo.GetByID(ctx, expenseID)
}

// List retrieves expenses.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Expense], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) requireSessionOpen(ctx context.Context, exp *Expense) error {
	if exp.SessionID == nil {
		return nil
	}
	session, err := s.sessions.GetByID(ctx, *exp.SessionID)
	if err != nil {
		return err
	}
	if !session.IsOpen() {
		return apperror.NewSessionClosed(session.ID.String())
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, expenseID id.ID, action audit.Action, changes any) {
	err := s.auditor.Record(ctx, audit.Entry{
		EntityType: "expense",
		EntityID:   expenseID,
		Action:     action,
		Changes:    changes,
	})
	if err != nil {
		logger.Warn(ctx, "audit record failed", "error", err)
	}
}
