// Package product provides the product catalog (phone models).
// Products are not serialized; physical units live in the inventory package.
package product

import (
	"context"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/entity"
)

// Product represents a catalog entry: one phone model that can be purchased
// and sold. It carries no balance and no IMEI.
type Product struct {
	entity.Catalog

	// Brand is the manufacturer (e.g. "Samsung")
	Brand string `db:"brand" json:"brand"`

	// Category groups products for listings (e.g. "smartphone", "accessory")
	Category string `db:"category" json:"category"`
}

// New creates a new Product.
func New(code, name, brand, category string) *Product {
	return &Product{
		Catalog:  entity.NewCatalog(code, name),
		Brand:    brand,
		Category: category,
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.Brand == "" {
		return apperror.NewValidation("brand is required").
			WithDetail("field", "brand")
	}

	return nil
}
