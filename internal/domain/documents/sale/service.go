package sale

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
	"celltrade/internal/domain/cashregister"
	"celltrade/internal/domain/catalogs/counterparty"
	"celltrade/internal/domain/inventory"
	"celltrade/pkg/logger"
	"celltrade/pkg/numerator"
)

// SessionLocator resolves cash register sessions for attribution and the
// closed-session edit guard.
type SessionLocator interface {
	GetOpen(ctx context.Context) (*cashregister.Session, error)
	GetByID(ctx context.Context, sessionID id.ID) (*cashregister.Session, error)
}

// LineInput references one inventory item and its selling price.
type LineInput struct {
	ItemID    id.ID
	UnitPrice types.MinorUnits
}

// CreateInput carries the full state of a new sale.
type CreateInput struct {
	CustomerID     *id.ID
	Date           *time.Time
	DiscountAmount types.MinorUnits
	PaidAmount     types.MinorUnits
	Method         types.PaymentMethod
	Comment        string
	Lines          []LineInput
}

// EditInput carries the full replacement state of a sale. The item set is
// diffed against the current one; totals are always recomputed from the
// complete new set.
type EditInput struct {
	CustomerID     *id.ID
	Date           *time.Time
	DiscountAmount types.MinorUnits
	PaidAmount     types.MinorUnits
	Method         *types.PaymentMethod
	Comment        *string
	Lines          []LineInput
}

// Service orchestrates sale mutations. Every mutation runs in a
// serializable transaction: item status, customer balance, and the sale row
// move together or not at all.
type Service struct {
	repo      Repository
	items     inventory.Repository
	parties   counterparty.Repository
	sessions  SessionLocator
	txManager tx.Manager
	numerator numerator.Generator
	auditor   audit.Recorder
	cfg       Config
}

// NewService creates a new sale service.
func NewService(
	repo Repository,
	items inventory.Repository,
	parties counterparty.Repository,
	sessions SessionLocator,
	txm tx.Manager,
	gen numerator.Generator,
	auditor audit.Recorder,
	cfg Config,
) *Service {
	return &Service{
		repo:      repo,
		items:     items,
		parties:   parties,
		sessions:  sessions,
		txManager: txm,
		numerator: gen,
		auditor:   auditor,
		cfg:       cfg,
	}
}

// Create validates that every referenced item is available, derives the
// money state, persists the sale with its lines, marks the items sold, and
// adds the unpaid portion to the customer balance. Aborts entirely on the
// first failed item.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Sale, error) {
	if err := security.Require(ctx, security.CapSaleCreate); err != nil {
		return nil, err
	}
	if err := validateLineInputs(in.Lines); err != nil {
		return nil, err
	}

	doc := New(in.CustomerID, in.Method)
	if in.Date != nil {
		doc.Date = *in.Date
	}
	doc.Comment = in.Comment
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		customer, err := s.lockCustomer(ctx, in.CustomerID)
		if err != nil {
			return err
		}

		items, lines, err := s.lockAvailableItems(ctx, doc.ID, in.Lines)
		if err != nil {
			return err
		}

		totals, err := ComputeTotals(lines, in.DiscountAmount, in.PaidAmount)
		if err != nil {
			return err
		}
		if totals.BalanceImpact.IsPositive() && customer == nil {
			return apperror.NewCustomerRequired()
		}

		if err := s.attachSession(ctx, doc); err != nil {
			return err
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("S"), nil)
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

		for i, item := range items {
			if err := item.Sell(doc.ID, doc.CustomerID, lines[i].UnitPrice, doc.Date); err != nil {
				return err
			}
			if err := s.items.Update(ctx, item); err != nil {
				return err
			}
		}

		if totals.BalanceImpact.IsPositive() && customer != nil {
			return s.parties.AdjustBalance(ctx, customer.ID, totals.BalanceImpact)
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

	logger.Info(ctx, "sale created",
		"id", doc.ID,
		"number", doc.Number,
		"total", int64(doc.TotalAmount),
		"items", len(in.Lines),
	)
	return doc, nil
}

// Edit replaces the sale's state with the requested one: the item set is
// diffed, removed items are released, added items are sold, and every money
// field is recomputed from the complete new line set. The customer balance
// ends up adjusted by exactly newImpact − oldImpact, even across a customer
// change.
func (s *Service) Edit(ctx context.Context, saleID id.ID, in EditInput) (*Sale, error) {
	if err := security.Require(ctx, security.CapSaleEdit); err != nil {
		return nil, err
	}
	if err := validateLineInputs(in.Lines); err != nil {
		return nil, err
	}

	var doc *Sale
	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if err := s.requireSessionOpen(ctx, doc.SessionID); err != nil {
			return err
		}

		oldCustomerID := doc.CustomerID
		oldImpact := doc.BalanceImpact

		newCustomer, err := s.lockCustomer(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		if oldCustomerID != nil && !sameID(oldCustomerID, in.CustomerID) {
			if _, err := s.parties.GetForUpdate(ctx, *oldCustomerID); err != nil {
				return err
			}
		}

		current, err := s.repo.ListLines(ctx, saleID)
		if err != nil {
			return err
		}
		currentByItem := make(map[id.ID]Line, len(current))
		for _, l := range current {
			currentByItem[l.ItemID] = l
		}
		requested := make(map[id.ID]struct{}, len(in.Lines))
		for _, l := range in.Lines {
			requested[l.ItemID] = struct{}{}
		}

		// Removed items go back to available before the new set is priced.
		for itemID := range currentByItem {
			if _, keep := requested[itemID]; keep {
				continue
			}
			item, err := s.items.GetForUpdate(ctx, itemID)
			if err != nil {
				return err
			}
			if err := item.Release(); err != nil {
				return err
			}
			if err := s.items.Update(ctx, item); err != nil {
				return err
			}
		}

		lines := make([]Line, 0, len(in.Lines))
		items := make([]*inventory.Item, 0, len(in.Lines))
		for _, l := range in.Lines {
			item, err := s.items.GetForUpdate(ctx, l.ItemID)
			if err != nil {
				return err
			}
			_, kept := currentByItem[l.ItemID]
			if !kept && !item.IsAvailable() {
				return apperror.NewItemNotAvailable(item.IMEI)
			}
			items = append(items, item)
			lines = append(lines, Line{
				ID:        id.New(),
				SaleID:    doc.ID,
				ItemID:    item.ID,
				IMEI:      item.IMEI,
				UnitPrice: l.UnitPrice,
				CostBasis: item.PurchasePrice,
				Profit:    item.Profit(l.UnitPrice),
			})
		}

		totals, err := ComputeTotals(lines, in.DiscountAmount, in.PaidAmount)
		if err != nil {
			return err
		}
		if totals.BalanceImpact.IsPositive() && newCustomer == nil {
			return apperror.NewCustomerRequired()
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
		doc.CustomerID = in.CustomerID
		doc.ApplyTotals(totals, in.DiscountAmount, in.PaidAmount)

		for i, item := range items {
			if _, kept := currentByItem[item.ID]; kept {
				item.SalePrice = &lines[i].UnitPrice
				item.CustomerID = in.CustomerID
				item.Touch()
			} else if err := item.Sell(doc.ID, in.CustomerID, lines[i].UnitPrice, doc.Date); err != nil {
				return err
			}
			if err := s.items.Update(ctx, item); err != nil {
				return err
			}
		}

		if err := s.repo.ReplaceLines(ctx, doc.ID, lines); err != nil {
			return err
		}

		if err := s.reconcileBalances(ctx, oldCustomerID, in.CustomerID, oldImpact, totals.BalanceImpact); err != nil {
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

// Delete releases every sold item, removes the unpaid portion from the
// customer balance (floored at zero), and hard-deletes the sale with its
// lines. Rejected when the customer balance no longer covers the impact,
// since reversal would push the balance negative.
func (s *Service) Delete(ctx context.Context, saleID id.ID) error {
	if err := security.Require(ctx, security.CapSaleDelete); err != nil {
		return err
	}

	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if err := s.requireSessionOpen(ctx, doc.SessionID); err != nil {
			return err
		}

		if doc.BalanceImpact.IsPositive() && doc.CustomerID != nil {
			customer, err := s.parties.GetForUpdate(ctx, *doc.CustomerID)
			if err != nil {
				return err
			}
			if customer.Balance < doc.BalanceImpact {
				return apperror.NewInsufficientReversibleBalance(
					customer.ID, int64(customer.Balance), int64(doc.BalanceImpact))
			}
		}

		items, err := s.items.ListBySale(ctx, saleID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := item.Release(); err != nil {
				return err
			}
			if err := s.items.Update(ctx, item); err != nil {
				return err
			}
		}

		if doc.BalanceImpact.IsPositive() && doc.CustomerID != nil {
			if err := s.parties.AdjustBalanceClamped(ctx, *doc.CustomerID, doc.BalanceImpact.Neg()); err != nil {
				return err
			}
		}

		if err := s.repo.ReplaceLines(ctx, saleID, nil); err != nil {
			return err
		}
		return s.repo.Delete(ctx, saleID)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, saleID, audit.ActionDelete, nil)
	logger.Info(ctx, "sale deleted", "id", saleID)
	return nil
}

// GetByID retrieves a sale.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	return s.repo.GetByID(ctx, saleID)
}

// Lines returns the current line set of a sale.
func (s *Service) Lines(ctx context.Context, saleID id.ID) ([]Line, error) {
	return s.repo.ListLines(ctx, saleID)
}

// List retrieves sales.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error) {
	return s.repo.List(ctx, filter)
}

// lockAvailableItems locks every referenced item, verifies availability,
// and derives the line set with fresh cost-basis snapshots.
func (s *Service) lockAvailableItems(ctx context.Context, saleID id.ID, inputs []LineInput) ([]*inventory.Item, []Line, error) {
	items := make([]*inventory.Item, 0, len(inputs))
	lines := make([]Line, 0, len(inputs))
	for _, l := range inputs {
		item, err := s.items.GetForUpdate(ctx, l.ItemID)
		if err != nil {
			return nil, nil, err
		}
		if !item.IsAvailable() {
			return nil, nil, apperror.NewItemNotAvailable(item.IMEI)
		}
		items = append(items, item)
		lines = append(lines, Line{
			ID:        id.New(),
			SaleID:    saleID,
			ItemID:    item.ID,
			IMEI:      item.IMEI,
			UnitPrice: l.UnitPrice,
			CostBasis: item.PurchasePrice,
			Profit:    item.Profit(l.UnitPrice),
		})
	}
	return items, lines, nil
}

func (s *Service) lockCustomer(ctx context.Context, customerID *id.ID) (*counterparty.Counterparty, error) {
	if customerID == nil {
		return nil, nil
	}
	customer, err := s.parties.GetForUpdate(ctx, *customerID)
	if err != nil {
		return nil, err
	}
	if !customer.IsCustomer() {
		return nil, apperror.NewValidation("counterparty is not a customer").
			WithDetail("field", "customerId")
	}
	return customer, nil
}

func (s *Service) attachSession(ctx context.Context, doc *Sale) error {
	open, err := s.sessions.GetOpen(ctx)
	if err != nil && !apperror.IsNotFound(err) {
		return err
	}
	if open == nil {
		if s.cfg.RequireOpenSession {
			return apperror.NewNoOpenSession()
		}
		return nil
	}
	doc.SessionID = &open.ID
	return nil
}

func (s *Service) requireSessionOpen(ctx context.Context, sessionID *id.ID) error {
	if sessionID == nil {
		return nil
	}
	session, err := s.sessions.GetByID(ctx, *sessionID)
	if err != nil {
		return err
	}
	if !session.IsOpen() {
		return apperror.NewSessionClosed(session.ID.String())
	}
	return nil
}

// reconcileBalances nets the edit's effect so the unpaid portion stays
// reflected exactly once: oldImpact leaves the old customer, newImpact
// lands on the new one, collapsing to a single delta when they match.
func (s *Service) reconcileBalances(ctx context.Context, oldCustomer, newCustomer *id.ID, oldImpact, newImpact types.MinorUnits) error {
	if sameID(oldCustomer, newCustomer) {
		if oldCustomer == nil {
			return nil
		}
		if net := newImpact - oldImpact; !net.IsZero() {
			return s.parties.AdjustBalance(ctx, *oldCustomer, net)
		}
		return nil
	}
	if oldCustomer != nil && oldImpact.IsPositive() {
		if err := s.parties.AdjustBalance(ctx, *oldCustomer, oldImpact.Neg()); err != nil {
			return err
		}
	}
	if newCustomer != nil && newImpact.IsPositive() {
		return s.parties.AdjustBalance(ctx, *newCustomer, newImpact)
	}
	return nil
}

func validateLineInputs(lines []LineInput) error {
	if len(lines) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "lines")
	}
	seen := make(map[id.ID]struct{}, len(lines))
	for _, l := range lines {
		if id.IsNil(l.ItemID) {
			return apperror.NewValidation("item id is required").
				WithDetail("field", "lines")
		}
		if _, dup := seen[l.ItemID]; dup {
			return apperror.NewValidation("duplicate item in line set").
				WithDetail("item_id", l.ItemID.String())
		}
		seen[l.ItemID] = struct{}{}
		if l.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price must not be negative").
				WithDetail("item_id", l.ItemID.String())
		}
	}
	return nil
}

func sameID(a, b *id.ID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *Service) recordAudit(ctx context.Context, saleID id.ID, action audit.Action, changes any) {
	err := s.auditor.Record(ctx, audit.Entry{
		EntityType: "sale",
		EntityID:   saleID,
		Action:     action,
		Changes:    changes,
	})
	if err != nil {
		logger.Warn(ctx, "audit record failed", "error", err)
	}
}
