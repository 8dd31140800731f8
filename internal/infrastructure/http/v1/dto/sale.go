package dto

import (
	"time"

	"celltrade/internal/core/id"
	"celltrade/internal/core/types"
	"celltrade/internal/domain/documents/sale"
)

// SaleLineRequest references one available inventory item and its selling
// price in minor units.
type SaleLineRequest struct {
	ItemID    id.ID            `json:"itemId" binding:"required"`
	UnitPrice types.MinorUnits `json:"unitPrice" binding:"min=0"`
}

// CreateSaleRequest creates a sale. CustomerID is omitted for walk-in
// sales, which must then be fully paid.
type CreateSaleRequest struct {
	CustomerID     *id.ID            `json:"customerId"`
	Date           *time.Time        `json:"date"`
	DiscountAmount types.MinorUnits  `json:"discountAmount"`
	PaidAmount     types.MinorUnits  `json:"paidAmount"`
	Method         string            `json:"method" binding:"required,oneof=cash card transfer"`
	Comment        string            `json:"comment"`
	Lines          []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts the request to the service input.
func (r CreateSaleRequest) ToInput() sale.CreateInput {
	in := sale.CreateInput{
		CustomerID:     r.CustomerID,
		Date:           r.Date,
		DiscountAmount: r.DiscountAmount,
		PaidAmount:     r.PaidAmount,
		Method:         types.PaymentMethod(r.Method),
		Comment:        r.Comment,
		Lines:          make([]sale.LineInput, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		in.Lines = append(in.Lines, sale.LineInput{ItemID: l.ItemID, UnitPrice: l.UnitPrice})
	}
	return in
}

// UpdateSaleRequest replaces the full state of a sale. Lines is the
// complete new item set; omitted scalar fields keep their current value.
type UpdateSaleRequest struct {
	CustomerID     *id.ID            `json:"customerId"`
	Date           *time.Time        `json:"date"`
	DiscountAmount types.MinorUnits  `json:"discountAmount"`
	PaidAmount     types.MinorUnits  `json:"paidAmount"`
	Method         *string           `json:"method" binding:"omitempty,oneof=cash card transfer"`
	Comment        *string           `json:"comment"`
	Lines          []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts the request to the service input.
func (r UpdateSaleRequest) ToInput() sale.EditInput {
	in := sale.EditInput{
		CustomerID:     r.CustomerID,
		Date:           r.Date,
		DiscountAmount: r.DiscountAmount,
		PaidAmount:     r.PaidAmount,
		Comment:        r.Comment,
		Lines:          make([]sale.LineInput, 0, len(r.Lines)),
	}
	if r.Method != nil {
		m := types.PaymentMethod(*r.Method)
		in.Method = &m
	}
	for _, l := range r.Lines {
		in.Lines = append(in.Lines, sale.LineInput{ItemID: l.ItemID, UnitPrice: l.UnitPrice})
	}
	return in
}

// SaleResponse is a sale with its lines.
type SaleResponse struct {
	*sale.Sale
	Lines []sale.Line `json:"lines"`
}
