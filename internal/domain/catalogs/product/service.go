package product

import (
	"context"
	"fmt"

	"celltrade/internal/core/tx"
	"celltrade/internal/domain"
	"celltrade/pkg/numerator"
)

// Service provides business logic for the product catalog.
type Service struct {
	*domain.CatalogService[*Product]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new product service.
func NewService(repo Repository, txm tx.Manager, gen numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txm,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      gen,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

// prepareForCreate generates a catalog code when one is not supplied.
func (s *Service) prepareForCreate(ctx context.Context, p *Product) error {
	if p.Code != "" {
		return nil
	}

	code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("P"), nil)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	p.Code = code
	return nil
}
