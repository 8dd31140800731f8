package product

import (
	"celltrade/internal/domain"
)

// Repository defines operations for the product catalog.
type Repository interface {
	domain.CatalogRepository[*Product]
}
