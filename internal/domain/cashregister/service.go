package cashregister

import (
	"context"
	"fmt"
	"time"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/id"
	"celltrade/internal/core/security"
	"celltrade/internal/core/tx"
	"celltrade/internal/core/types"
	"celltrade/internal/domain"
	"celltrade/internal/domain/audit"
	"celltrade/pkg/logger"
	"celltrade/pkg/numerator"
)

// Service provides open/close operations and reconciliation for cash
// register sessions.
type Service struct {
	repo      Repository
	txManager tx.Manager
	numerator numerator.Generator
	auditor   audit.Recorder
}

// NewService creates a new cash register service.
func NewService(repo Repository, txm tx.Manager, gen numerator.Generator, auditor audit.Recorder) *Service {
	return &Service{
		repo:      repo,
		txManager: txm,
		numerator: gen,
		auditor:   auditor,
	}
}

// Open opens a new session. Fails with SessionAlreadyOpen when another
// session is still open; the check-then-insert runs serializably so two
// concurrent opens cannot both succeed.
func (s *Service) Open(ctx context.Context, openingBalance types.MinorUnits, openedBy string) (*Session, error) {
	if err := security.Require(ctx, security.CapSessionOpen); err != nil {
		return nil, err
	}

	session := NewSession(openingBalance, openedBy)
	if err := session.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetOpenForUpdate(ctx)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if existing != nil {
			return apperror.NewSessionAlreadyOpen(existing.ID.String())
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("CR"), nil)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		session.Number = number

		return s.repo.Create(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, session.ID, audit.ActionOpen, map[string]any{
		"opening_balance": int64(openingBalance),
	})

	logger.Info(ctx, "cash register session opened",
		"id", session.ID,
		"number", session.Number,
		"opening_balance", openingBalance.String(),
	)
	return session, nil
}

// Close closes the open session with the operator-counted balance,
// computing expectedBalance and difference. Terminal: no reopening.
func (s *Service) Close(ctx context.Context, sessionID id.ID, actualBalance types.MinorUnits, closedBy string) (*Session, error) {
	if err := security.Require(ctx, security.CapSessionClose); err != nil {
		return nil, err
	}

	if actualBalance.IsNegative() {
		return nil, apperror.NewValidation("actual balance must not be negative").
			WithDetail("field", "actualBalance")
	}

	var session *Session
	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		open, err := s.repo.GetOpenForUpdate(ctx)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNoOpenSession()
			}
			return err
		}
		if open.ID != sessionID {
			return apperror.NewNotFound("cash register session", sessionID.String())
		}

		flow, err := s.repo.CashFlow(ctx, open.ID)
		if err != nil {
			return fmt.Errorf("compute cash flow: %w", err)
		}
		expected := open.ExpectedFromFlow(flow)

		if err := open.Close(expected, actualBalance, closedBy, time.Now().UTC()); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, open); err != nil {
			return err
		}
		session = open
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, session.ID, audit.ActionClose, map[string]any{
		"expected":   int64(*session.ExpectedBalance),
		"actual":     int64(*session.ActualBalance),
		"difference": int64(*session.Difference),
	})

	logger.Info(ctx, "cash register session closed",
		"id", session.ID,
		"number", session.Number,
		"expected", session.ExpectedBalance.String(),
		"actual", session.ActualBalance.String(),
		"difference", session.Difference.String(),
	)
	return session, nil
}

// Current returns the open session, or nil when none is open.
func (s *Service) Current(ctx context.Context) (*Session, error) {
	session, err := s.repo.GetOpen(ctx)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// GetByID retrieves a session.
func (s *Service) GetByID(ctx context.Context, sessionID id.ID) (*Session, error) {
	return s.repo.GetByID(ctx, sessionID)
}

// List retrieves sessions.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Session], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) recordAudit(ctx context.Context, sessionID id.ID, action audit.Action, changes any) {
	err := s.auditor.Record(ctx, audit.Entry{
		EntityType: "cash_register_session",
		EntityID:   sessionID,
		Action:     action,
		Changes:    changes,
	})
	if err != nil {
		logger.Warn(ctx, "audit record failed", "error", err)
	}
}
