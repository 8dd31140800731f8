// Package inventory provides the serialized inventory item and its state
// machine. One Item is one physical phone identified by IMEI.
package inventory

import (
	"context"
	"time"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/entity"
	"celltrade/internal/core/id"
	"celltrade/internal/core/types"
)

// Status is the lifecycle state of an item.
// Archival is an orthogonal soft-delete bit on the base entity, only ever
// applied while the item is not sold.
type Status string

const (
	StatusAvailable Status = "available"
	StatusSold      Status = "sold"
)

// Item represents one physical serialized unit.
//
// Invariant: Status == StatusSold exactly when SaleID is non-nil. Every
// transition below preserves it; repositories persist items whole so the two
// fields can never diverge.
type Item struct {
	entity.BaseDocument

	// ProductID references the catalog entry
	ProductID id.ID `db:"product_id" json:"productId"`

	// IMEI is globally unique and immutable once set
	IMEI string `db:"imei" json:"imei"`

	// Status is available or sold
	Status Status `db:"status" json:"status"`

	// PurchasePrice is the cost basis, immutable after creation
	PurchasePrice types.MinorUnits `db:"purchase_price" json:"purchasePrice"`

	// SalePrice is set when the item is sold
	SalePrice *types.MinorUnits `db:"sale_price" json:"salePrice,omitempty"`

	// PurchaseID links to the purchase invoice that created the item
	PurchaseID id.ID `db:"purchase_id" json:"purchaseId"`

	// SaleID links to the sale that consumed the item (nil while available)
	SaleID *id.ID `db:"sale_id" json:"saleId,omitempty"`

	// SupplierID is the supplier the item was purchased from
	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	// CustomerID is the customer the item was sold to (nil while available)
	CustomerID *id.ID `db:"customer_id" json:"customerId,omitempty"`

	// SoldAt is the sale timestamp (nil while available)
	SoldAt *time.Time `db:"sold_at" json:"soldAt,omitempty"`
}

// New creates an available item from a purchase invoice line.
func New(productID id.ID, imei string, purchasePrice types.MinorUnits, purchaseID, supplierID id.ID) *Item {
	return &Item{
		BaseDocument:  entity.NewBaseDocument(),
		ProductID:     productID,
		IMEI:          imei,
		Status:        StatusAvailable,
		PurchasePrice: purchasePrice,
		PurchaseID:    purchaseID,
		SupplierID:    supplierID,
	}
}

// Validate implements entity.Validatable.
func (i *Item) Validate(ctx context.Context) error {
	if i.IMEI == "" {
		return apperror.NewValidation("imei is required").
			WithDetail("field", "imei")
	}
	if id.IsNil(i.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if i.PurchasePrice.IsNegative() {
		return apperror.NewValidation("purchase price must not be negative").
			WithDetail("field", "purchasePrice")
	}

	// Status/linkage agreement
	if i.Status == StatusSold && i.SaleID == nil {
		return apperror.NewValidation("sold item has no sale reference").
			WithDetail("imei", i.IMEI)
	}
	if i.Status == StatusAvailable && i.SaleID != nil {
		return apperror.NewValidation("available item has a dangling sale reference").
			WithDetail("imei", i.IMEI)
	}

	return nil
}

// IsAvailable reports whether the item can be sold or archived.
func (i *Item) IsAvailable() bool {
	return i.Status == StatusAvailable && !i.Archived
}

// Sell transitions available → sold, attaching the sale linkage.
// Fails with ItemNotAvailable (naming the IMEI) if the item is sold or archived.
func (i *Item) Sell(saleID id.ID, customerID *id.ID, salePrice types.MinorUnits, soldAt time.Time) error {
	if !i.IsAvailable() {
		return apperror.NewItemNotAvailable(i.IMEI)
	}

	i.Status = StatusSold
	i.SaleID = &saleID
	i.CustomerID = customerID
	i.SalePrice = &salePrice
	i.SoldAt = &soldAt
	i.Touch()
	return nil
}

// Release transitions sold → available, clearing every sale linkage field.
// Used when the owning sale is deleted or the item removed from an edit.
func (i *Item) Release() error {
	if i.Status != StatusSold {
		return apperror.NewValidation("item is not sold").
			WithDetail("imei", i.IMEI)
	}

	i.Status = StatusAvailable
	i.SaleID = nil
	i.CustomerID = nil
	i.SalePrice = nil
	i.SoldAt = nil
	i.Touch()
	return nil
}

// MarkArchived applies the soft-delete overlay. Only permitted while the item
// is not sold; fails with ItemSold naming the IMEI.
func (i *Item) MarkArchived() error {
	if i.Status == StatusSold {
		return apperror.NewItemSold(i.IMEI)
	}

	i.Archive()
	i.Touch()
	return nil
}

// Profit is the clamped margin for a given unit price. Loss-making lines
// record zero profit, never negative.
func (i *Item) Profit(unitPrice types.MinorUnits) types.MinorUnits {
	return (unitPrice - i.PurchasePrice).ClampNonNegative()
}
