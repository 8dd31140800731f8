package entity

import (
	"context"
	"time"

	"celltrade/internal/core/apperror"
)

// Document is the base type for business transactions.
// Examples: Sale, PurchaseInvoice, Payment.
type Document struct {
	BaseDocument

	// Number is the human-readable document number (auto-generated, unique
	// within type, e.g. S000001 / PI000001)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Comment is an optional user note
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document with generated ID and current date.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}
