package sale

import (
	"context"
	"fmt"
	"testing"
	"time"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/id"
	"celltrade/internal/core/tx"
	"celltrade/internal/core/types"
	"celltrade/internal/domain"
	"celltrade/internal/domain/audit"
	"celltrade/internal/domain/cashregister"
	"celltrade/internal/domain/catalogs/counterparty"
	"celltrade/internal/domain/inventory"
	"celltrade/internal/domain/ledger"
	"celltrade/pkg/numerator"
)

type memSaleRepo struct {
	sales map[id.ID]*Sale
	lines map[id.ID][]Line
}

func newMemSaleRepo() *memSaleRepo {
	return &memSaleRepo{
		sales: make(map[id.ID]*Sale),
		lines: make(map[id.ID][]Line),
	}
}

func (r *memSaleRepo) Create(_ context.Context, s *Sale) error {
	r.sales[s.ID] = s
	return nil
}

func (r *memSaleRepo) GetByID(_ context.Context, saleID id.ID) (*Sale, error) {
	s, ok := r.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID.String())
	}
	return s, nil
}

func (r *memSaleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*Sale, error) {
	return r.GetByID(ctx, saleID)
}

func (r *memSaleRepo) Update(_ context.Context, s *Sale) error {
	r.sales[s.ID] = s
	return nil
}

func (r *memSaleRepo) Delete(_ context.Context, saleID id.ID) error {
	delete(r.sales, saleID)
	return nil
}

func (r *memSaleRepo) ListLines(_ context.Context, saleID id.ID) ([]Line, error) {
	return r.lines[saleID], nil
}

func (r *memSaleRepo) ReplaceLines(_ context.Context, saleID id.ID, lines []Line) error {
	r.lines[saleID] = lines
	return nil
}

func (r *memSaleRepo) ListUnpaidByCustomer(_ context.Context, customerID id.ID) ([]*Sale, error) {
	var out []*Sale
	for _, s := range r.sales {
		if s.CustomerID != nil && *s.CustomerID == customerID && s.BalanceImpact.IsPositive() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSaleRepo) DetachCounterparty(_ context.Context, customerID id.ID) (int64, error) {
	var n int64
	for _, s := range r.sales {
		if s.CustomerID != nil && *s.CustomerID == customerID {
			s.CustomerID = nil
			n++
		}
	}
	return n, nil
}

func (r *memSaleRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*Sale], error) {
	out := domain.ListResult[*Sale]{}
	for _, s := range r.sales {
		out.Items = append(out.Items, s)
	}
	out.TotalCount = int64(len(out.Items))
	return out, nil
}

type memSessionLocator struct {
	sessions map[id.ID]*cashregister.Session
}

func newMemSessionLocator() *memSessionLocator {
	return &memSessionLocator{sessions: make(map[id.ID]*cashregister.Session)}
}

func (l *memSessionLocator) open(t *testing.T) *cashregister.Session {
	t.Helper()
	s := cashregister.NewSession(0, "cashier")
	l.sessions[s.ID] = s
	return s
}

func (l *memSessionLocator) GetOpen(_ context.Context) (*cashregister.Session, error) {
	for _, s := range l.sessions {
		if s.IsOpen() {
			return s, nil
		}
	}
	return nil, apperror.NewNotFound("cash register session", "open")
}

func (l *memSessionLocator) GetByID(_ context.Context, sessionID id.ID) (*cashregister.Session, error) {
	s, ok := l.sessions[sessionID]
	if !ok {
		return nil, apperror.NewNotFound("cash register session", sessionID.String())
	}
	return s, nil
}

type fixture struct {
	svc      *Service
	repo     *memSaleRepo
	items    *inventory.MemRepository
	parties  *counterparty.MemRepository
	sessions *memSessionLocator
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newMemSaleRepo(),
		items:    inventory.NewMemRepository(),
		parties:  counterparty.NewMemRepository(),
		sessions: newMemSessionLocator(),
	}
	f.svc = NewService(f.repo, f.items, f.parties, f.sessions, tx.NopManager{},
		numerator.NewMockGenerator(), audit.Nop{}, cfg)
	return f
}

func (f *fixture) addCustomer(t *testing.T, balance types.MinorUnits) *counterparty.Counterparty {
	t.Helper()
	c := counterparty.New("C000001", "Ayan", counterparty.KindCustomer)
	c.Balance = balance
	if err := f.parties.Create(context.Background(), c); err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c
}

func (f *fixture) addItem(t *testing.T, imei string, purchasePrice types.MinorUnits) *inventory.Item {
	t.Helper()
	item := inventory.New(id.New(), imei, purchasePrice, id.New(), id.New())
	if err := f.items.Create(context.Background(), item); err != nil {
		t.Fatalf("create item %s: %v", imei, err)
	}
	return item
}

func (f *fixture) balance(t *testing.T, entityID id.ID) types.MinorUnits {
	t.Helper()
	c, err := f.parties.GetByID(context.Background(), entityID)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	return c.Balance
}

func (f *fixture) item(t *testing.T, itemID id.ID) *inventory.Item {
	t.Helper()
	item, err := f.items.GetByID(context.Background(), itemID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	return item
}

func TestCreateComputesTotalsAndAppliesEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	customer := f.addCustomer(t, 0)
	a := f.addItem(t, "350000000000001", 50000)
	b := f.addItem(t, "350000000000002", 20000)

	doc, err := f.svc.Create(ctx, CreateInput{
		CustomerID: &customer.ID,
		PaidAmount: 35000,
		Method:     types.MethodCash,
		Lines: []LineInput{
			{ItemID: a.ID, UnitPrice: 45000},
			{ItemID: b.ID, UnitPrice: 30000},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if doc.Subtotal != 75000 {
		t.Errorf("subtotal = %d, want 75000", doc.Subtotal)
	}
	if doc.TotalAmount != 75000 {
		t.Errorf("total = %d, want 75000", doc.TotalAmount)
	}
	if doc.BalanceImpact != 40000 {
		t.Errorf("balance impact = %d, want 40000", doc.BalanceImpact)
	}
	if doc.PaymentType != PaymentPartial {
		t.Errorf("payment type = %s, want partial", doc.PaymentType)
	}
	// first line sells at a loss, clamped to zero
	if doc.Profit != 10000 {
		t.Errorf("profit = %d, want 10000", doc.Profit)
	}
	if doc.Number == "" {
		t.Error("expected generated number")
	}

	if got := f.balance(t, customer.ID); got != 40000 {
		t.Errorf("customer balance = %d, want 40000", got)
	}
	for _, itemID := range []id.ID{a.ID, b.ID} {
		item := f.item(t, itemID)
		if item.Status != inventory.StatusSold {
			t.Errorf("item %s status = %s, want sold", item.IMEI, item.Status)
		}
		if item.SaleID == nil || *item.SaleID != doc.ID {
			t.Errorf("item %s missing sale linkage", item.IMEI)
		}
	}

	lines, err := f.repo.ListLines(ctx, doc.ID)
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
}

func TestCreateAppliesDiscount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	customer := f.addCustomer(t, 0)
	a := f.addItem(t, "350000000000001", 40000)
	b := f.addItem(t, "350000000000002", 25000)

	doc, err := f.svc.Create(ctx, CreateInput{
		CustomerID:     &customer.ID,
		DiscountAmount: 5000,
		PaidAmount:     40000,
		Method:         types.MethodCash,
		Lines: []LineInput{
			{ItemID: a.ID, UnitPrice: 50000},
			{ItemID: b.ID, UnitPrice: 30000},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if doc.Subtotal != 80000 {
		t.Errorf("subtotal = %d, want 80000", doc.Subtotal)
	}
	if doc.DiscountAmount != 5000 {
		t.Errorf("discount = %d, want 5000", doc.DiscountAmount)
	}
	if doc.TotalAmount != 75000 {
		t.Errorf("total = %d, want 75000", doc.TotalAmount)
	}
	if doc.BalanceImpact != 35000 {
		t.Errorf("balance impact = %d, want 35000", doc.BalanceImpact)
	}
	if doc.PaymentType != PaymentPartial {
		t.Errorf("payment type = %s, want partial", doc.PaymentType)
	}
	// discount reduces the total, never the per-line margins
	if doc.Profit != 15000 {
		t.Errorf("profit = %d, want 15000", doc.Profit)
	}

	if got := f.balance(t, customer.ID); got != 35000 {
		t.Errorf("customer balance = %d, want 35000", got)
	}
}

func TestCreateAbortsOnUnavailableItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	customer := f.addCustomer(t, 0)
	good := f.addItem(t, "350000000000001", 10000)
	sold := f.addItem(t, "350000000000002", 10000)
	if err := sold.Sell(id.New(), nil, 15000, time.Now()); err != nil {
		t.Fatalf("pre-sell: %v", err)
	}

	_, err := f.svc.Create(ctx, CreateInput{
		CustomerID: &customer.ID,
		Method:     types.MethodCash,
		Lines: []LineInput{
			{ItemID: good.ID, UnitPrice: 15000},
			{ItemID: sold.ID, UnitPrice: 15000},
		},
	})
	if !apperror.IsCode(err, apperror.CodeItemNotAvailable) {
		t.Fatalf("error = %v, want ITEM_NOT_AVAILABLE", err)
	}

	// no partial mutation
	if got := f.item(t, good.ID); got.Status != inventory.StatusAvailable {
		t.Errorf("first item status = %s, want available", got.Status)
	}
	if got := f.balance(t, customer.ID); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
}

func TestCreateWalkInMustPayInFull(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	item := f.addItem(t, "350000000000001", 10000)

	_, err := f.svc.Create(ctx, CreateInput{
		PaidAmount: 10000,
		Method:     types.MethodCash,
		Lines:      []LineInput{{ItemID: item.ID, UnitPrice: 15000}},
	})
	if !apperror.IsCode(err, apperror.CodeCustomerRequired) {
		t.Fatalf("partial walk-in error = %v, want CUSTOMER_REQUIRED", err)
	}

	doc, err := f.svc.Create(ctx, CreateInput{
		PaidAmount: 15000,
		Method:     types.MethodCash,
		Lines:      []LineInput{{ItemID: item.ID, UnitPrice: 15000}},
	})
	if err != nil {
		t.Fatalf("full walk-in: %v", err)
	}
	if doc.PaymentType != PaymentFull {
		t.Errorf("payment type = %s, want full", doc.PaymentType)
	}
	if doc.BalanceImpact != 0 {
		t.Errorf("balance impact = %d, want 0", doc.BalanceImpact)
	}
}

func TestCreateValidatesMoneyBounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	customer := f.addCustomer(t, 0)

	cases := []struct {
		name     string
		discount types.MinorUnits
		paid     types.MinorUnits
	}{
		{"discount over subtotal", 20000, 0},
		{"paid over total", 0, 20000},
		{"negative discount", -1, 0},
		{"negative paid", 0, -1},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := f.addItem(t, fmt.Sprintf("35000000000000%d", i), 5000)
			_, err := f.svc.Create(ctx, CreateInput{
				CustomerID:     &customer.ID,
				DiscountAmount: tc.discount,
				PaidAmount:     tc.paid,
				Method:         types.MethodCash,
				Lines:          []LineInput{{ItemID: item.ID, UnitPrice: 15000}},
			})
			if !apperror.IsCode(err, apperror.CodeValidation) {
				t.Fatalf("error = %v, want VALIDATION_ERROR", err)
			}
		})
	}
}

func TestCreateSessionAttribution(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	open := f.sessions.open(t)
	item := f.addItem(t, "350000000000001", 5000)

	doc, err := f.svc.Create(ctx, CreateInput{
		PaidAmount: 8000,
		Method:     types.MethodCash,
		Lines:      []LineInput{{ItemID: item.ID, UnitPrice: 8000}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if doc.SessionID == nil || *doc.SessionID != open.ID {
		t.Fatal("sale should carry the open session id")
	}
}

func TestCreateRequireOpenSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{RequireOpenSession: true})
	item := f.addItem(t, "350000000000001", 5000)

	_, err := f.svc.Create(ctx, CreateInput{
		PaidAmount: 8000,
		Method:     types.MethodCash,
		Lines:      []LineInput{{ItemID: item.ID, UnitPrice: 8000}},
	})
	if !apperror.IsCode(err, apperror.CodeNoOpenSession) {
		t.Fatalf("error = %v, want NO_OPEN_SESSION", err)
	}
}

func TestEditPaidAmountNetsBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	customer := f.addCustomer(t, 0)
	item := f.addItem(t, "350000000000001", 10000)

	doc, err := f.svc.Create(ctx, CreateInput{
		CustomerID: &customer.ID,
		PaidAmount: 5000,
		Method:     types.MethodCash,
		Lines:      []LineInput{{ItemID: item.ID, UnitPrice: 20000}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := f.balance(t, customer.ID); got != 15000 {
		t.Fatalf("balance = %d, want 15000", got)
	}

	// raising paid to 12000 drops the impact from 15000 to 8000
	_, err = f.svc.Edit(ctx, doc.ID, EditInput{
		CustomerID: &customer.ID,
		PaidAmount: 12000,
		Lines:      []LineInput{{ItemID: item.ID, UnitPrice: 20000}},
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := f.balance(t, customer.ID); got != 8000 {
		t.Errorf("balance = %d, want 8000", got)
	}
}

func TestEditMovesImpactAcrossCustomers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	first := f.addCustomer(t, 0)
	second := counterparty.New("C000002", "Dana", counterparty.KindCustomer)
	if err := f.parties.Create(ctx, second); err != nil {
		t.Fatalf("create second: %v", err)
	}
	item := f.addItem(t, "350000000000001", 10000)

	doc, err := f.svc.Create(ctx, CreateInput{
		CustomerID: &first.ID,
		Method:     types.MethodCash,
		Lines:      []LineInput{{ItemID: item.ID, UnitPrice: 20000}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.svc.Edit(ctx, doc.ID, EditInput{
		CustomerID: &second.ID,
		Lines:      []LineInput{{ItemID: item.ID, UnitPrice: 20000}},
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	if got := f.balance(t, first.ID); got != 0 {
		t.Errorf("old customer balance = %d, want 0", got)
	}
	if got := f.balance(t, second.ID); got != 20000 {
		t.Errorf("new customer balance = %d, want 20000", got)
	}
	if got := f.item(t, item.ID); got.CustomerID == nil || *got.CustomerID != second.ID {
		t.Error("item should point at the new customer")
	}
}

func TestEditSwapsItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	customer := f.addCustomer(t, 0)
	kept := f.addItem(t, "350000000000001", 10000)
	removed := f.addItem(t, "350000000000002", 10000)
	added := f.addItem(t, "350000000000003", 12000)

	doc, err := f.svc.Create(ctx, CreateInput{
		CustomerID: &customer.ID,
		Method:     types.MethodCash,
		Lines: []LineInput{
			{ItemID: kept.ID, UnitPrice: 15000},
			{ItemID: removed.ID, UnitPrice: 15000},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.svc.Edit(ctx, doc.ID, EditInput{
		CustomerID: &customer.ID,
		Lines: []LineInput{
			{ItemID: kept.ID, UnitPrice: 18000}, // repriced
			{ItemID: added.ID, UnitPrice: 16000},
		},
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	if got := f.item(t, removed.ID); got.Status != inventory.StatusAvailable || got.SaleID != nil {
		t.Error("removed item should be released")
	}
	if got := f.item(t, added.ID); got.Status != inventory.StatusSold {
		t.Error("added item should be sold")
	}
	if got := f.item(t, kept.ID); got.SalePrice == nil || *got.SalePrice != 18000 {
		t.Error("kept item should carry the new price")
	}

	// totals recomputed from the full new set: 18000+16000, all on credit
	if got := f.balance(t, customer.ID); got != 34000 {
		t.Errorf("balance = %d, want 34000", got)
	}
}

func TestEditEquivalentToDeleteAndRecreate(t *testing.T) {
	ctx := context.Background()

	runEdit := func(t *testing.T) types.MinorUnits {
		f := newFixture(t, Config{})
		customer := f.addCustomer(t, 0)
		a := f.addItem(t, "350000000000001", 10000)
		b := f.addItem(t, "350000000000002", 10000)
		doc, err := f.svc.Create(ctx, CreateInput{
			CustomerID: &customer.ID,
			PaidAmount: 5000,
			Method:     types.MethodCash,
			Lines:      []LineInput{{ItemID: a.ID, UnitPrice: 20000}},
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := f.svc.Edit(ctx, doc.ID, EditInput{
			CustomerID: &customer.ID,
			PaidAmount: 9000,
			Lines: []LineInput{
				{ItemID: a.ID, UnitPrice: 19000},
				{ItemID: b.ID, UnitPrice: 14000},
			},
		}); err != nil {
			t.Fatalf("edit: %v", err)
		}
		return f.balance(t, customer.ID)
	}

	runDeleteRecreate := func(t *testing.T) types.MinorUnits {
		f := newFixture(t, Config{})
		customer := f.addCustomer(t, 0)
		a := f.addItem(t, "350000000000001", 10000)
		b := f.addItem(t, "350000000000002", 10000)
		doc, err := f.svc.Create(ctx, CreateInput{
			CustomerID: &customer.ID,
			PaidAmount: 5000,
			Method:     types.MethodCash,
			Lines:      []LineInput{{ItemID: a.ID, UnitPrice: 20000}},
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := f.svc.Delete(ctx, doc.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := f.svc.Create(ctx, CreateInput{
			CustomerID: &customer.ID,
			PaidAmount: 9000,
			Method:     types.MethodCash,
			Lines: []LineInput{
				{ItemID: a.ID, UnitPrice: 19000},
				{ItemID: b.ID, UnitPrice: 14000},
			},
		}); err != nil {
			t.Fatalf("recreate: %v", err)
		}
		return f.balance(t, customer.ID)
	}

	edited, recreated := runEdit(t), runDeleteRecreate(t)
	if edited != recreated {
		t.Errorf("edit balance %d != delete+recreate balance %d", edited, recreated)
	}
}

func TestEditRejectedAfterSessionClose(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	open := f.sessions.open(t)
	item := f.addItem(t, "350000000000001", 5000)

	doc, err := f.svc.Create(ctx, CreateInput{
		PaidAmount: 8000,
		Method:     types.MethodCash,
		Lines:      []LineInput{{ItemID: item.ID, UnitPrice: 8000}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := open.Close(8000, 8000, "cashier", time.Now()); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err = f.svc.Edit(ctx, doc.ID, EditInput{
		PaidAmount: 8000,
		Lines:      []LineInput{{ItemID: item.ID, UnitPrice: 8000}},
	})
	if !apperror.IsCode(err, apperror.CodeSessionClosed) {
		t.Fatalf("edit error = %v, want SESSION_CLOSED", err)
	}
	if err := f.svc.Delete(ctx, doc.ID); !apperror.IsCode(err, apperror.CodeSessionClosed) {
		t.Fatalf("delete error = %v, want SESSION_CLOSED", err)
	}
}

func TestDeleteReversesEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	customer := f.addCustomer(t, 0)
	item := f.addItem(t, "350000000000001", 10000)

	doc, err := f.svc.Create(ctx, CreateInput{
		CustomerID: &customer.ID,
		Method:     types.MethodCash,
		Lines:      []LineInput{{ItemID: item.ID, UnitPrice: 20000}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.svc.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := f.item(t, item.ID); got.Status != inventory.StatusAvailable || got.SaleID != nil {
		t.Error("item should be released")
	}
	if got := f.balance(t, customer.ID); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
	if _, err := f.svc.GetByID(ctx, doc.ID); !apperror.IsNotFound(err) {
		t.Fatalf("get after delete = %v, want NOT_FOUND", err)
	}
}

func TestDeleteRejectsWhenBalanceAlreadyReduced(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	customer := f.addCustomer(t, 0)
	item := f.addItem(t, "350000000000001", 10000)

	doc, err := f.svc.Create(ctx, CreateInput{
		CustomerID: &customer.ID,
		Method:     types.MethodCash,
		Lines:      []LineInput{{ItemID: item.ID, UnitPrice: 20000}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// a payment elsewhere already consumed part of the impact
	if err := f.parties.AdjustBalance(ctx, customer.ID, types.MinorUnits(-15000)); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	err = f.svc.Delete(ctx, doc.ID)
	if !apperror.IsCode(err, apperror.CodeInsufficientReversibleBalance) {
		t.Fatalf("error = %v, want INSUFFICIENT_REVERSIBLE_BALANCE", err)
	}
	if got := f.item(t, item.ID); got.Status != inventory.StatusSold {
		t.Error("item must stay sold when delete is rejected")
	}
}

func TestStatementAgreesWithCachedBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	customer := f.addCustomer(t, 0)
	a := f.addItem(t, "350000000000001", 10000)
	b := f.addItem(t, "350000000000002", 10000)

	if _, err := f.svc.Create(ctx, CreateInput{
		CustomerID: &customer.ID,
		PaidAmount: 5000,
		Method:     types.MethodCash,
		Lines:      []LineInput{{ItemID: a.ID, UnitPrice: 20000}},
	}); err != nil {
		t.Fatalf("first sale: %v", err)
	}
	if _, err := f.svc.Create(ctx, CreateInput{
		CustomerID: &customer.ID,
		Method:     types.MethodCash,
		Lines:      []LineInput{{ItemID: b.ID, UnitPrice: 12000}},
	}); err != nil {
		t.Fatalf("second sale: %v", err)
	}

	unpaid, err := f.repo.ListUnpaidByCustomer(ctx, customer.ID)
	if err != nil {
		t.Fatalf("unpaid: %v", err)
	}
	docs := make([]ledger.DocumentRow, 0, len(unpaid))
	for _, s := range unpaid {
		docs = append(docs, ledger.DocumentRow{
			ID:       s.ID,
			Number:   s.Number,
			Date:     s.Date,
			Residual: s.Residual(),
		})
	}
	stmt := ledger.BuildStatement(counterparty.KindCustomer, docs, nil)
	if got := f.balance(t, customer.ID); stmt.FinalBalance != got {
		t.Errorf("statement balance %d != cached balance %d", stmt.FinalBalance, got)
	}
}
