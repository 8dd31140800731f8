package dto

import (
	"celltrade/internal/domain/catalogs/product"
)

// CreateProductRequest creates a product. Code is generated when omitted.
type CreateProductRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name" binding:"required"`
	Brand    string `json:"brand" binding:"required"`
	Category string `json:"category"`
}

// ToEntity builds a new product from the request.
func (r CreateProductRequest) ToEntity() *product.Product {
	return product.New(r.Code, r.Name, r.Brand, r.Category)
}

// UpdateProductRequest partially updates a product.
type UpdateProductRequest struct {
	Code     *string `json:"code"`
	Name     *string `json:"name"`
	Brand    *string `json:"brand"`
	Category *string `json:"category"`
	Version  int     `json:"version" binding:"required,min=1"`
}

// ApplyTo overlays the request onto an existing product.
func (r UpdateProductRequest) ApplyTo(p *product.Product) {
	if r.Code != nil {
		p.Code = *r.Code
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Brand != nil {
		p.Brand = *r.Brand
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
	p.Version = r.Version
}
