package counterparty

import (
	"context"
	"fmt"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/id"
	"celltrade/internal/core/security"
	"celltrade/internal/core/tx"
	"celltrade/internal/domain"
	"celltrade/pkg/logger"
	"celltrade/pkg/numerator"
)

// PaymentPurger removes all payment rows belonging to a counterparty.
// Implemented by the payment repository; declared here to avoid a package
// cycle during hard-delete cascades.
type PaymentPurger interface {
	DeleteByEntity(ctx context.Context, entityID id.ID) error
}

// DocumentDetacher severs the counterparty reference on historical documents
// (sales or purchase invoices) without deleting them.
type DocumentDetacher interface {
	DetachCounterparty(ctx context.Context, entityID id.ID) (int64, error)
}

// Service provides business logic for the counterparty catalog, including the
// hard-delete cascade.
type Service struct {
	*domain.CatalogService[*Counterparty]
	repo      Repository
	txManager tx.Manager
	numerator numerator.Generator

	payments  PaymentPurger
	detachers []DocumentDetacher
}

// NewService creates a new counterparty service.
func NewService(
	repo Repository,
	txm tx.Manager,
	gen numerator.Generator,
	payments PaymentPurger,
	detachers ...DocumentDetacher,
) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Counterparty]{
		Repo:       repo,
		TxManager:  txm,
		EntityName: "counterparty",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		txManager:      txm,
		numerator:      gen,
		payments:       payments,
		detachers:      detachers,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

// prepareForCreate generates a catalog code when one is not supplied.
func (s *Service) prepareForCreate(ctx context.Context, c *Counterparty) error {
	if c.Code != "" {
		return nil
	}

	prefix := "C"
	if c.Kind == KindSupplier {
		prefix = "SP"
	}

	code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(prefix), nil)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	c.Code = code
	return nil
}

// HardDelete physically removes a counterparty and cascades:
// all their payments are deleted, and the counterparty reference on their
// sales/purchase invoices is severed (history rows remain).
//
// Historical balance effects on the documents themselves are NOT re-derived.
// The entity whose balance they fed is gone; the drift auditor surfaces the
// resulting statement divergence for the remaining data instead of silently
// rewriting history.
func (s *Service) HardDelete(ctx context.Context, entityID id.ID) error {
	if err := security.Require(ctx, security.CapCatalogDelete); err != nil {
		return err
	}

	cp, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("counterparty", entityID.String())
		}
		return err
	}

	err = s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		if err := s.payments.DeleteByEntity(ctx, entityID); err != nil {
			return fmt.Errorf("delete payments: %w", err)
		}

		var detached int64
		for _, d := range s.detachers {
			n, err := d.DetachCounterparty(ctx, entityID)
			if err != nil {
				return fmt.Errorf("detach documents: %w", err)
			}
			detached += n
		}

		if err := s.repo.HardDelete(ctx, entityID); err != nil {
			return fmt.Errorf("delete counterparty: %w", err)
		}

		logger.Info(ctx, "counterparty hard-deleted",
			"id", entityID,
			"kind", cp.Kind,
			"documents_detached", detached,
		)
		return nil
	})
	return err
}
