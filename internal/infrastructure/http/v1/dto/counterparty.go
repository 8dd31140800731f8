package dto

import (
	"celltrade/internal/domain/catalogs/counterparty"
)

// CreateCounterpartyRequest creates a customer or supplier. Code is
// generated when omitted.
type CreateCounterpartyRequest struct {
	Code    string  `json:"code"`
	Name    string  `json:"name" binding:"required"`
	Kind    string  `json:"kind" binding:"required,oneof=customer supplier"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
}

// ToEntity builds a new counterparty from the request.
func (r CreateCounterpartyRequest) ToEntity() *counterparty.Counterparty {
	c := counterparty.New(r.Code, r.Name, counterparty.Kind(r.Kind))
	c.Phone = r.Phone
	c.Email = r.Email
	c.Address = r.Address
	c.Notes = r.Notes
	return c
}

// UpdateCounterpartyRequest partially updates a counterparty. Kind and
// balance are immutable through this endpoint: kind is identity, balance
// only moves through documents.
type UpdateCounterpartyRequest struct {
	Code    *string `json:"code"`
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
	Version int     `json:"version" binding:"required,min=1"`
}

// ApplyTo overlays the request onto an existing counterparty.
func (r UpdateCounterpartyRequest) ApplyTo(c *counterparty.Counterparty) {
	if r.Code != nil {
		c.Code = *r.Code
	}
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Phone != nil {
		c.Phone = r.Phone
	}
	if r.Email != nil {
		c.Email = r.Email
	}
	if r.Address != nil {
		c.Address = r.Address
	}
	if r.Notes != nil {
		c.Notes = r.Notes
	}
	c.Version = r.Version
}
