package purchase

import (
	"context"
	"fmt"
	"time"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/id"
	"celltrade/internal/core/security"
	"celltrade/internal/core/tx"
	"celltrade/internal/core/types"
	"celltrade/internal/domain"
	"celltrade/internal/domain/audit"
	"celltrade/internal/domain/catalogs/counterparty"
	"celltrade/internal/domain/inventory"
	"celltrade/pkg/logger"
	"celltrade/pkg/numerator"
)

// LineInput describes one item to receive into inventory.
type LineInput struct {
	ProductID id.ID
	IMEI      string
	UnitPrice types.MinorUnits
}

// CreateInput carries the full state of a new invoice.
type CreateInput struct {
	SupplierID     id.ID
	Date           *time.Time
	DiscountAmount types.MinorUnits
	PaidAmount     types.MinorUnits
	Method         types.PaymentMethod
	Comment        string
	Lines          []LineInput
}

// EditLineInput is one line of the replacement set. A nil ItemID creates a
// new inventory item; a non-nil one keeps the existing item.
type EditLineInput struct {
	ItemID    *id.ID
	ProductID id.ID
	IMEI      string
	UnitPrice types.MinorUnits
}

// EditInput carries the full replacement state of an invoice.
type EditInput struct {
	SupplierID     id.ID
	Date           *time.Time
	DiscountAmount types.MinorUnits
	PaidAmount     types.MinorUnits
	Method         *types.PaymentMethod
	Comment        *string
	Lines          []EditLineInput
}

// Service orchestrates purchase invoice mutations. A sold item blocks any
// operation that would remove or reprice it: a sold item cannot be
// un-purchased.
type Service struct {
	repo      Repository
	items     inventory.Repository
	parties   counterparty.Repository
	txManager tx.Manager
	numerator numerator.Generator
	auditor   audit.Recorder
}

// NewService creates a new purchase service.
func NewService(
	repo Repository,
	items inventory.Repository,
	parties counterparty.Repository,
	txm tx.Manager,
	gen numerator.Generator,
	auditor audit.Recorder,
) *Service {
	return &Service{
		repo:      repo,
		items:     items,
		parties:   parties,
		txManager: txm,
		numerator: gen,
		auditor:   auditor,
	}
}

// Create validates every IMEI against existing inventory, persists the
// invoice, creates one available item per line, and adds the unpaid portion
// to the supplier balance.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Invoice, error) {
	if err := security.Require(ctx, security.CapPurchaseCreate); err != nil {
		return nil, err
	}
	if err := validateCreateLines(in.Lines); err != nil {
		return nil, err
	}

	doc := New(in.SupplierID, in.Method)
	if in.Date != nil {
		doc.Date = *in.Date
	}
	doc.Comment = in.Comment
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		supplier, err := s.lockSupplier(ctx, in.SupplierID)
		if err != nil {
			return err
		}

		// all IMEIs checked before any item is created
		for _, l := range in.Lines {
			exists, err := s.items.ExistsIMEI(ctx, l.IMEI)
			if err != nil {
				return err
			}
			if exists {
				return apperror.NewDuplicateIMEI(l.IMEI)
			}
		}

		lines := make([]Line, 0, len(in.Lines))
		for _, l := range in.Lines {
			item := inventory.New(l.ProductID, l.IMEI, l.UnitPrice, doc.ID, supplier.ID)
			lines = append(lines, Line{
				ID:        id.New(),
				InvoiceID: doc.ID,
				ItemID:    item.ID,
				ProductID: l.ProductID,
				IMEI:      l.IMEI,
				UnitPrice: l.UnitPrice,
			})
			if err := s.items.Create(ctx, item); err != nil {
				return err
			}
		}

		totals, err := ComputeTotals(lines, in.DiscountAmount, in.PaidAmount)
		if err != nil {
			return err
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PI"), nil)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
		doc.ApplyTotals(totals, in.DiscountAmount, in.PaidAmount)

		if err := s.repo.Create(ctx, doc); err != nil {
			return err
		}
		if err := s.repo.ReplaceLines(ctx, doc.ID, lines); err != nil {
			return err
		}

		if totals.BalanceImpact.IsPositive() {
			return s.parties.AdjustBalance(ctx, supplier.ID, totals.BalanceImpact)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, doc.ID, audit.ActionCreate, map[string]any{
		"total":          int64(doc.TotalAmount),
		"paid":           int64(doc.PaidAmount),
		"balance_impact": int64(doc.BalanceImpact),
		"items":          len(in.Lines),
	})

	logger.Info(ctx, "purchase invoice created",
		"id", doc.ID,
		"number", doc.Number,
		"total", int64(doc.TotalAmount),
		"items", len(in.Lines),
	)
	return doc, nil
}

// Edit replaces the invoice's state. Removed items must still be available
// and are deleted from inventory; kept items may be repriced only while
// unsold; new lines create items. All guards run before any mutation, and
// the supplier balance nets to newImpact − oldImpact.
func (s *Service) Edit(ctx context.Context, invoiceID id.ID, in EditInput) (*Invoice, error) {
	if err := security.Require(ctx, security.CapPurchaseEdit); err != nil {
		return nil, err
	}
	if err := validateEditLines(in.Lines); err != nil {
		return nil, err
	}

	var doc *Invoice
	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}

		oldSupplierID := doc.SupplierID
		oldImpact := doc.BalanceImpact

		supplier, err := s.lockSupplier(ctx, in.SupplierID)
		if err != nil {
			return err
		}
		if oldSupplierID != nil && *oldSupplierID != in.SupplierID {
			if _, err := s.parties.GetForUpdate(ctx, *oldSupplierID); err != nil {
				return err
			}
		}

		current, err := s.repo.ListLines(ctx, invoiceID)
		if err != nil {
			return err
		}
		currentByItem := make(map[id.ID]Line, len(current))
		for _, l := range current {
			currentByItem[l.ItemID] = l
		}

		kept := make(map[id.ID]struct{}, len(in.Lines))
		keptItems := make(map[id.ID]*inventory.Item)
		for _, l := range in.Lines {
			if l.ItemID == nil {
				continue
			}
			if _, owns := currentByItem[*l.ItemID]; !owns {
				return apperror.NewValidation("item does not belong to this invoice").
					WithDetail("item_id", l.ItemID.String())
			}
			item, err := s.items.GetForUpdate(ctx, *l.ItemID)
			if err != nil {
				return err
			}
			if item.Status == inventory.StatusSold && item.PurchasePrice != l.UnitPrice {
				// the cost basis of a sold item is frozen
				return apperror.NewItemSold(item.IMEI)
			}
			kept[*l.ItemID] = struct{}{}
			keptItems[*l.ItemID] = item
		}

		// removal and collision guards before any mutation
		var removed []*inventory.Item
		for itemID := range currentByItem {
			if _, keep := kept[itemID]; keep {
				continue
			}
			item, err := s.items.GetForUpdate(ctx, itemID)
			if err != nil {
				return err
			}
			if item.Status == inventory.StatusSold {
				return apperror.NewItemSold(item.IMEI)
			}
			removed = append(removed, item)
		}
		for _, l := range in.Lines {
			if l.ItemID != nil {
				continue
			}
			exists, err := s.items.ExistsIMEI(ctx, l.IMEI)
			if err != nil {
				return err
			}
			if exists {
				return apperror.NewDuplicateIMEI(l.IMEI)
			}
		}

		for _, item := range removed {
			if err := s.items.Delete(ctx, item.ID); err != nil {
				return err
			}
		}

		lines := make([]Line, 0, len(in.Lines))
		for _, l := range in.Lines {
			if l.ItemID != nil {
				item := keptItems[*l.ItemID]
				if item.Status != inventory.StatusSold && item.PurchasePrice != l.UnitPrice {
					item.PurchasePrice = l.UnitPrice
					item.Touch()
					if err := s.items.Update(ctx, item); err != nil {
						return err
					}
				}
				lines = append(lines, Line{
					ID:        id.New(),
					InvoiceID: doc.ID,
					ItemID:    item.ID,
					ProductID: item.ProductID,
					IMEI:      item.IMEI,
					UnitPrice: l.UnitPrice,
				})
				continue
			}
			item := inventory.New(l.ProductID, l.IMEI, l.UnitPrice, doc.ID, supplier.ID)
			if err := s.items.Create(ctx, item); err != nil {
				return err
			}
			lines = append(lines, Line{
				ID:        id.New(),
				InvoiceID: doc.ID,
				ItemID:    item.ID,
				ProductID: l.ProductID,
				IMEI:      l.IMEI,
				UnitPrice: l.UnitPrice,
			})
		}

		totals, err := ComputeTotals(lines, in.DiscountAmount, in.PaidAmount)
		if err != nil {
			return err
		}

		if in.Date != nil {
			doc.Date = *in.Date
		}
		if in.Method != nil {
			if !in.Method.IsValid() {
				return apperror.NewValidation("unknown payment method").
					WithDetail("field", "method")
			}
			doc.Method = *in.Method
		}
		if in.Comment != nil {
			doc.Comment = *in.Comment
		}
		doc.SupplierID = &supplier.ID
		doc.ApplyTotals(totals, in.DiscountAmount, in.PaidAmount)

		if err := s.repo.ReplaceLines(ctx, doc.ID, lines); err != nil {
			return err
		}

		if err := s.reconcileBalances(ctx, oldSupplierID, &supplier.ID, oldImpact, totals.BalanceImpact); err != nil {
			return err
		}

		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, doc.ID, audit.ActionUpdate, map[string]any{
		"total":          int64(doc.TotalAmount),
		"paid":           int64(doc.PaidAmount),
		"balance_impact": int64(doc.BalanceImpact),
		"items":          len(in.Lines),
	})
	return doc, nil
}

// Delete archives the invoice's items and removes the unpaid portion from
// the supplier balance, floored at zero. Any sold item blocks the whole
// operation before a single mutation.
func (s *Service) Delete(ctx context.Context, invoiceID id.ID) error {
	if err := security.Require(ctx, security.CapPurchaseDelete); err != nil {
		return err
	}

	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}

		items, err := s.items.ListByPurchase(ctx, invoiceID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if item.Status == inventory.StatusSold {
				return apperror.NewItemSold(item.IMEI)
			}
		}

		for _, item := range items {
			if err := item.MarkArchived(); err != nil {
				return err
			}
			if err := s.items.Update(ctx, item); err != nil {
				return err
			}
		}

		if doc.BalanceImpact.IsPositive() && doc.SupplierID != nil {
			if err := s.parties.AdjustBalanceClamped(ctx, *doc.SupplierID, doc.BalanceImpact.Neg()); err != nil {
				return err
			}
		}

		if err := s.repo.ReplaceLines(ctx, invoiceID, nil); err != nil {
			return err
		}
		return s.repo.Delete(ctx, invoiceID)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, invoiceID, audit.ActionDelete, nil)
	logger.Info(ctx, "purchase invoice deleted", "id", invoiceID)
	return nil
}

// GetByID retrieves an invoice.
func (s *Service) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.repo.GetByID(ctx, invoiceID)
}

// Lines returns the current line set of an invoice.
func (s *Service) Lines(ctx context.Context, invoiceID id.ID) ([]Line, error) {
	return s.repo.ListLines(ctx, invoiceID)
}

// List retrieves invoices.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) lockSupplier(ctx context.Context, supplierID id.ID) (*counterparty.Counterparty, error) {
	supplier, err := s.parties.GetForUpdate(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	if !supplier.IsSupplier() {
		return nil, apperror.NewValidation("counterparty is not a supplier").
			WithDetail("field", "supplierId")
	}
	return supplier, nil
}

func (s *Service) reconcileBalances(ctx context.Context, oldSupplier, newSupplier *id.ID, oldImpact, newImpact types.MinorUnits) error {
	if oldSupplier != nil && newSupplier != nil && *oldSupplier == *newSupplier {
		if net := newImpact - oldImpact; !net.IsZero() {
			return s.parties.AdjustBalance(ctx, *oldSupplier, net)
		}
		return nil
	}
	if oldSupplier != nil && oldImpact.IsPositive() {
		if err := s.parties.AdjustBalance(ctx, *oldSupplier, oldImpact.Neg()); err != nil {
			return err
		}
	}
	if newSupplier != nil && newImpact.IsPositive() {
		return s.parties.AdjustBalance(ctx, *newSupplier, newImpact)
	}
	return nil
}

func validateCreateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "lines")
	}
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if err := validateLineFields(l.ProductID, l.IMEI, l.UnitPrice, seen); err != nil {
			return err
		}
	}
	return nil
}

func validateEditLines(lines []EditLineInput) error {
	if len(lines) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "lines")
	}
	seen := make(map[string]struct{}, len(lines))
	seenItems := make(map[id.ID]struct{}, len(lines))
	for _, l := range lines {
		if l.ItemID != nil {
			if _, dup := seenItems[*l.ItemID]; dup {
				return apperror.NewValidation("duplicate item in line set").
					WithDetail("item_id", l.ItemID.String())
			}
			seenItems[*l.ItemID] = struct{}{}
			if l.UnitPrice.IsNegative() {
				return apperror.NewValidation("unit price must not be negative").
					WithDetail("item_id", l.ItemID.String())
			}
			continue
		}
		if err := validateLineFields(l.ProductID, l.IMEI, l.UnitPrice, seen); err != nil {
			return err
		}
	}
	return nil
}

func validateLineFields(productID id.ID, imei string, price types.MinorUnits, seen map[string]struct{}) error {
	if id.IsNil(productID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "lines")
	}
	if imei == "" {
		return apperror.NewValidation("imei is required").
			WithDetail("field", "lines")
	}
	if _, dup := seen[imei]; dup {
		return apperror.NewDuplicateIMEI(imei)
	}
	seen[imei] = struct{}{}
	if price.IsNegative() {
		return apperror.NewValidation("unit price must not be negative").
			WithDetail("imei", imei)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, invoiceID id.ID, action audit.Action, changes any) {
	err := s.auditor.Record(ctx, audit.Entry{
		EntityType: "purchase_invoice",
		EntityID:   invoiceID,
		Action:     action,
		Changes:    changes,
	})
	if err != nil {
		logger.Warn(ctx, "audit record failed", "error", err)
	}
}
