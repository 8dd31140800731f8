package dto

import (
	"time"

	"celltrade/internal/core/id"
	"celltrade/internal/core/types"
	"celltrade/internal/domain/documents/purchase"
)

// PurchaseLineRequest describes one item to receive into inventory.
type PurchaseLineRequest struct {
	ProductID id.ID            `json:"productId" binding:"required"`
	IMEI      string           `json:"imei" binding:"required"`
	UnitPrice types.MinorUnits `json:"unitPrice" binding:"min=0"`
}

// CreatePurchaseRequest creates a purchase invoice. A supplier is always
// required: items cannot enter inventory without a source.
type CreatePurchaseRequest struct {
	SupplierID     id.ID                 `json:"supplierId" binding:"required"`
	Date           *time.Time            `json:"date"`
	DiscountAmount types.MinorUnits      `json:"discountAmount"`
	PaidAmount     types.MinorUnits      `json:"paidAmount"`
	Method         string                `json:"method" binding:"required,oneof=cash card transfer"`
	Comment        string                `json:"comment"`
	Lines          []PurchaseLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts the request to the service input.
func (r CreatePurchaseRequest) ToInput() purchase.CreateInput {
	in := purchase.CreateInput{
		SupplierID:     r.SupplierID,
		Date:           r.Date,
		DiscountAmount: r.DiscountAmount,
		PaidAmount:     r.PaidAmount,
		Method:         types.PaymentMethod(r.Method),
		Comment:        r.Comment,
		Lines:          make([]purchase.LineInput, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		in.Lines = append(in.Lines, purchase.LineInput{
			ProductID: l.ProductID,
			IMEI:      l.IMEI,
			UnitPrice: l.UnitPrice,
		})
	}
	return in
}

// PurchaseEditLineRequest is one line of the replacement set. ItemID keeps
// an existing inventory item; omitting it creates a new one.
type PurchaseEditLineRequest struct {
	ItemID    *id.ID           `json:"itemId"`
	ProductID id.ID            `json:"productId" binding:"required"`
	IMEI      string           `json:"imei" binding:"required"`
	UnitPrice types.MinorUnits `json:"unitPrice" binding:"min=0"`
}

// UpdatePurchaseRequest replaces the full state of an invoice.
type UpdatePurchaseRequest struct {
	SupplierID     id.ID                     `json:"supplierId" binding:"required"`
	Date           *time.Time                `json:"date"`
	DiscountAmount types.MinorUnits          `json:"discountAmount"`
	PaidAmount     types.MinorUnits          `json:"paidAmount"`
	Method         *string                   `json:"method" binding:"omitempty,oneof=cash card transfer"`
	Comment        *string                   `json:"comment"`
	Lines          []PurchaseEditLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts the request to the service input.
func (r UpdatePurchaseRequest) ToInput() purchase.EditInput {
	in := purchase.EditInput{
		SupplierID:     r.SupplierID,
		Date:           r.Date,
		DiscountAmount: r.DiscountAmount,
		PaidAmount:     r.PaidAmount,
		Comment:        r.Comment,
		Lines:          make([]purchase.EditLineInput, 0, len(r.Lines)),
	}
	if r.Method != nil {
		m := types.PaymentMethod(*r.Method)
		in.Method = &m
	}
	for _, l := range r.Lines {
		in.Lines = append(in.Lines, purchase.EditLineInput{
			ItemID:    l.ItemID,
			ProductID: l.ProductID,
			IMEI:      l.IMEI,
			UnitPrice: l.UnitPrice,
		})
	}
	return in
}

// PurchaseResponse is an invoice with its lines.
type PurchaseResponse struct {
	*purchase.Invoice
	Lines []purchase.Line `json:"lines"`
}
