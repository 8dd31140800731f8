package payment

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
	"celltrade/internal/domain/cashregister"
	"celltrade/internal/domain/catalogs/counterparty"
	"celltrade/internal/domain/ledger"
	"celltrade/pkg/logger"
	"celltrade/pkg/numerator"
)

// SessionLocator resolves cash register sessions for attribution and the
// closed-session edit guard.
type SessionLocator interface {
	GetOpen(ctx context.Context) (*cashregister.Session, error)
	GetByID(ctx context.Context, sessionID id.ID) (*cashregister.Session, error)
}

// EditInput carries the editable payment fields. Nil means keep current.
type EditInput struct {
	Amount    *types.MinorUnits
	Date      *time.Time
	Method    *types.PaymentMethod
	Reference *string
	Notes     *string
	Comment   *string
}

// Service records payments and refunds and keeps the counterparty's cached
// balance in step with them.
type Service struct {
	repo      Repository
	parties   counterparty.Repository
	sessions  SessionLocator
	txManager tx.Manager
	numerator numerator.Generator
	auditor   audit.Recorder
}

// NewService creates a new payment service.
func NewService(
	repo Repository,
	parties counterparty.Repository,
	sessions SessionLocator,
	txm tx.Manager,
	gen numerator.Generator,
	auditor audit.Recorder,
) *Service {
	return &Service{
		repo:      repo,
		parties:   parties,
		sessions:  sessions,
		txManager: txm,
		numerator: gen,
		auditor:   auditor,
	}
}

// Record persists a payment and applies its signed delta to the
// counterparty balance: payments reduce debt, refunds restore it. The whole
// sequence runs serializably so a concurrent sale edit on the same
// counterparty cannot interleave.
func (s *Service) Record(ctx context.Context, p *Payment) (*Payment, error) {
	if err := security.Require(ctx, security.CapPaymentRecord); err != nil {
		return nil, err
	}
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		entity, err := s.parties.GetForUpdate(ctx, p.EntityID)
		if err != nil {
			return err
		}

		if p.Method.IsCash() {
			open, err := s.sessions.GetOpen(ctx)
			if err != nil && !apperror.IsNotFound(err) {
				return err
			}
			if open != nil {
				p.SessionID = &open.ID
			}
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PAY"), nil)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		p.Number = number

		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		return s.parties.AdjustBalance(ctx, entity.ID, ledger.PaymentDelta(p.Type, p.Amount))
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, p.ID, audit.ActionCreate, map[string]any{
		"entity_id": p.EntityID,
		"type":      string(p.Type),
		"amount":    int64(p.Amount),
	})

	logger.Info(ctx, "payment recorded",
		"id", p.ID,
		"number", p.Number,
		"entity_id", p.EntityID,
		"type", string(p.Type),
		"amount", int64(p.Amount),
	)
	return p, nil
}

// Edit updates a payment. An amount change applies the same directional
// sign to the difference as a fresh payment of that type would carry, so
// the balance ends up exactly where re-recording would have put it. Date,
// method, reference and notes have no balance effect.
func (s *Service) Edit(ctx context.Context, paymentID id.ID, in EditInput) (*Payment, error) {
	if err := security.Require(ctx, security.CapPaymentEdit); err != nil {
		return nil, err
	}
	if in.Amount != nil && !in.Amount.IsPositive() {
		return nil, apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount")
	}

	var p *Payment
	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.GetForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := s.requireSessionOpen(ctx, p.SessionID); err != nil {
			return err
		}

		if in.Amount != nil && *in.Amount != p.Amount {
			amountDiff := *in.Amount - p.Amount
			if err := s.parties.AdjustBalance(ctx, p.EntityID, ledger.PaymentDelta(p.Type, amountDiff)); err != nil {
				return err
			}
			p.Amount = *in.Amount
		}
		if in.Date != nil {
			p.Date = *in.Date
		}
		if in.Method != nil {
			if !in.Method.IsValid() {
				return apperror.NewValidation("unknown payment method").
					WithDetail("field", "method")
			}
			p.Method = *in.Method
		}
		if in.Reference != nil {
			p.Reference = *in.Reference
		}
		if in.Notes != nil {
			p.Notes = *in.Notes
		}
		if in.Comment != nil {
			p.Comment = *in.Comment
		}

		return s.repo.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, p.ID, audit.ActionUpdate, map[string]any{
		"amount": int64(p.Amount),
	})
	return p, nil
}

// Delete removes a payment and reverses its balance effect, restoring the
// counterparty to the pre-payment state.
func (s *Service) Delete(ctx context.Context, paymentID id.ID) error {
	if err := security.Require(ctx, security.CapPaymentEdit); err != nil {
		return err
	}

	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := s.requireSessionOpen(ctx, p.SessionID); err != nil {
			return err
		}

		if err := s.parties.AdjustBalance(ctx, p.EntityID, ledger.PaymentDelta(p.Type, p.Amount).Neg()); err != nil {
			return err
		}
		return s.repo.Delete(ctx, paymentID)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, paymentID, audit.ActionDelete, nil)
	return nil
}

// GetByID retrieves a payment.
func (s *Service) GetByID(ctx context.Context, paymentID id.ID) (*Payment, error) {
	return s.repo.GetByID(ctx, paymentID)
}

// List retrieves payments.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Payment], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) requireSessionOpen(ctx context.Context, sessionID *id.ID) error {
	if sessionID == nil {
		return nil
	}
	session, err := s.sessions.GetByID(ctx, *sessionID)
	if err != nil {
		return err
	}
	if !session.IsOpen() {
		return apperror.NewSessionClosed(session.ID.String())
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, paymentID id.ID, action audit.Action, changes any) {
	err := s.auditor.Record(ctx, audit.Entry{
		EntityType: "payment",
		EntityID:   paymentID,
		Action:     action,
		Changes:    changes,
	})
	if err != nil {
		logger.Warn(ctx, "audit record failed", "error", err)
	}
}
