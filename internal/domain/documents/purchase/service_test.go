package purchase

import (
	"context"
	"testing"
	"time"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/id"
	"celltrade/internal/core/tx"
	"celltrade/internal/core/types"
	"celltrade/internal/domain"
	"celltrade/internal/domain/audit"
	"celltrade/internal/domain/catalogs/counterparty"
	"celltrade/internal/domain/inventory"
	"celltrade/pkg/numerator"
)

type memPurchaseRepo struct {
	invoices map[id.ID]*Invoice
	lines    map[id.ID][]Line
}

func newMemPurchaseRepo() *memPurchaseRepo {
	return &memPurchaseRepo{
		invoices: make(map[id.ID]*Invoice),
		lines:    make(map[id.ID][]Line),
	}
}

func (r *memPurchaseRepo) Create(_ context.Context, p *Invoice) error {
	r.invoices[p.ID] = p
	return nil
}

func (r *memPurchaseRepo) GetByID(_ context.Context, invoiceID id.ID) (*Invoice, error) {
	p, ok := r.invoices[invoiceID]
	if !ok {
		return nil, apperror.NewNotFound("purchase invoice", invoiceID.String())
	}
	return p, nil
}

func (r *memPurchaseRepo) GetForUpdate(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return r.GetByID(ctx, invoiceID)
}

func (r *memPurchaseRepo) Update(_ context.Context, p *Invoice) error {
	r.invoices[p.ID] = p
	return nil
}

func (r *memPurchaseRepo) Delete(_ context.Context, invoiceID id.ID) error {
	delete(r.invoices, invoiceID)
	return nil
}

func (r *memPurchaseRepo) ListLines(_ context.Context, invoiceID id.ID) ([]Line, error) {
	return r.lines[invoiceID], nil
}

func (r *memPurchaseRepo) ReplaceLines(_ context.Context, invoiceID id.ID, lines []Line) error {
	r.lines[invoiceID] = lines
	return nil
}

func (r *memPurchaseRepo) ListUnpaidBySupplier(_ context.Context, supplierID id.ID) ([]*Invoice, error) {
	var out []*Invoice
	for _, p := range r.invoices {
		if p.SupplierID != nil && *p.SupplierID == supplierID && p.BalanceImpact.IsPositive() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPurchaseRepo) DetachCounterparty(_ context.Context, supplierID id.ID) (int64, error) {
	var n int64
	for _, p := range r.invoices {
		if p.SupplierID != nil && *p.SupplierID == supplierID {
			p.SupplierID = nil
			n++
		}
	}
	return n, nil
}

func (r *memPurchaseRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*Invoice], error) {
	out := domain.ListResult[*Invoice]{}
	for _, p := range r.invoices {
		out.Items = append(out.Items, p)
	}
	out.TotalCount = int64(len(out.Items))
	return out, nil
}

type fixture struct {
	svc     *Service
	repo    *memPurchaseRepo
	items   *inventory.MemRepository
	parties *counterparty.MemRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:    newMemPurchaseRepo(),
		items:   inventory.NewMemRepository(),
		parties: counterparty.NewMemRepository(),
	}
	f.svc = NewService(f.repo, f.items, f.parties, tx.NopManager{},
		numerator.NewMockGenerator(), audit.Nop{})
	return f
}

func (f *fixture) addSupplier(t *testing.T, balance types.MinorUnits) *counterparty.Counterparty {
	t.Helper()
	s := counterparty.New("SP000001", "Galaxy Wholesale", counterparty.KindSupplier)
	s.Balance = balance
	if err := f.parties.Create(context.Background(), s); err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	return s
}

func (f *fixture) balance(t *testing.T, entityID id.ID) types.MinorUnits {
	t.Helper()
	c, err := f.parties.GetByID(context.Background(), entityID)
	if err != nil {
		t.Fatalf("get supplier: %v", err)
	}
	return c.Balance
}

func (f *fixture) itemByIMEI(t *testing.T, imei string) *inventory.Item {
	t.Helper()
	item, err := f.items.GetByIMEI(context.Background(), imei)
	if err != nil {
		t.Fatalf("get item %s: %v", imei, err)
	}
	return item
}

func TestCreateReceivesItemsAndAppliesImpact(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	supplier := f.addSupplier(t, 0)
	productID := id.New()

	doc, err := f.svc.Create(ctx, CreateInput{
		SupplierID: supplier.ID,
		PaidAmount: 30000,
		Method:     types.MethodTransfer,
		Lines: []LineInput{
			{ProductID: productID, IMEI: "350000000000001", UnitPrice: 50000},
			{ProductID: productID, IMEI: "350000000000002", UnitPrice: 20000},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if doc.Subtotal != 70000 || doc.TotalAmount != 70000 {
		t.Errorf("totals = %d/%d, want 70000/70000", doc.Subtotal, doc.TotalAmount)
	}
	if doc.BalanceImpact != 40000 {
		t.Errorf("balance impact = %d, want 40000", doc.BalanceImpact)
	}
	if doc.PaymentType != types.PaymentPartial {
		t.Errorf("payment type = %s, want partial", doc.PaymentType)
	}
	if got := f.balance(t, supplier.ID); got != 40000 {
		t.Errorf("supplier balance = %d, want 40000", got)
	}

	item := f.itemByIMEI(t, "350000000000001")
	if item.Status != inventory.StatusAvailable {
		t.Errorf("item status = %s, want available", item.Status)
	}
	if item.PurchaseID != doc.ID || item.SupplierID != supplier.ID {
		t.Error("item missing purchase linkage")
	}
	if item.PurchasePrice != 50000 {
		t.Errorf("cost basis = %d, want 50000", item.PurchasePrice)
	}
}

func TestCreateRejectsDuplicateIMEI(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	supplier := f.addSupplier(t, 0)
	productID := id.New()

	existing := inventory.New(productID, "350000000000001", 10000, id.New(), supplier.ID)
	if err := f.items.Create(ctx, existing); err != nil {
		t.Fatalf("seed item: %v", err)
	}

	_, err := f.svc.Create(ctx, CreateInput{
		SupplierID: supplier.ID,
		Method:     types.MethodCash,
		Lines: []LineInput{
			{ProductID: productID, IMEI: "350000000000009", UnitPrice: 5000},
			{ProductID: productID, IMEI: "350000000000001", UnitPrice: 5000},
		},
	})
	if !apperror.IsCode(err, apperror.CodeDuplicateIMEI) {
		t.Fatalf("error = %v, want DUPLICATE_IMEI", err)
	}
	// first line must not have been created
	if _, err := f.items.GetByIMEI(ctx, "350000000000009"); !apperror.IsNotFound(err) {
		t.Error("no item may be created when any IMEI collides")
	}
	if got := f.balance(t, supplier.ID); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
}

func TestCreateRejectsDuplicateIMEIWithinInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	supplier := f.addSupplier(t, 0)
	productID := id.New()

	_, err := f.svc.Create(ctx, CreateInput{
		SupplierID: supplier.ID,
		Method:     types.MethodCash,
		Lines: []LineInput{
			{ProductID: productID, IMEI: "350000000000001", UnitPrice: 5000},
			{ProductID: productID, IMEI: "350000000000001", UnitPrice: 6000},
		},
	})
	if !apperror.IsCode(err, apperror.CodeDuplicateIMEI) {
		t.Fatalf("error = %v, want DUPLICATE_IMEI", err)
	}
}

func TestCreateRejectsNonSupplier(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := counterparty.New("C000001", "Ayan", counterparty.KindCustomer)
	if err := f.parties.Create(ctx, customer); err != nil {
		t.Fatalf("create customer: %v", err)
	}

	_, err := f.svc.Create(ctx, CreateInput{
		SupplierID: customer.ID,
		Method:     types.MethodCash,
		Lines:      []LineInput{{ProductID: id.New(), IMEI: "350000000000001", UnitPrice: 5000}},
	})
	if !apperror.IsCode(err, apperror.CodeValidation) {
		t.Fatalf("error = %v, want VALIDATION_ERROR", err)
	}
}

func TestEditSwapsAndRepricesItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	supplier := f.addSupplier(t, 0)
	productID := id.New()

	doc, err := f.svc.Create(ctx, CreateInput{
		SupplierID: supplier.ID,
		Method:     types.MethodCash,
		Lines: []LineInput{
			{ProductID: productID, IMEI: "350000000000001", UnitPrice: 10000},
			{ProductID: productID, IMEI: "350000000000002", UnitPrice: 12000},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	kept := f.itemByIMEI(t, "350000000000001")

	_, err = f.svc.Edit(ctx, doc.ID, EditInput{
		SupplierID: supplier.ID,
		Lines: []EditLineInput{
			{ItemID: &kept.ID, UnitPrice: 11000}, // repriced
			{ProductID: productID, IMEI: "350000000000003", UnitPrice: 9000},
		},
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	if got := f.itemByIMEI(t, "350000000000001"); got.PurchasePrice != 11000 {
		t.Errorf("kept cost basis = %d, want 11000", got.PurchasePrice)
	}
	if _, err := f.items.GetByIMEI(ctx, "350000000000002"); !apperror.IsNotFound(err) {
		t.Error("removed item should be deleted from inventory")
	}
	if got := f.itemByIMEI(t, "350000000000003"); got.Status != inventory.StatusAvailable {
		t.Error("added item should exist and be available")
	}
	// credit invoice: 11000 + 9000 all unpaid
	if got := f.balance(t, supplier.ID); got != 20000 {
		t.Errorf("supplier balance = %d, want 20000", got)
	}
}

func TestEditBlockedBySoldItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	supplier := f.addSupplier(t, 0)
	productID := id.New()

	doc, err := f.svc.Create(ctx, CreateInput{
		SupplierID: supplier.ID,
		Method:     types.MethodCash,
		Lines: []LineInput{
			{ProductID: productID, IMEI: "350000000000001", UnitPrice: 10000},
			{ProductID: productID, IMEI: "350000000000002", UnitPrice: 12000},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sold := f.itemByIMEI(t, "350000000000002")
	if err := sold.Sell(id.New(), nil, 15000, time.Now()); err != nil {
		t.Fatalf("pre-sell: %v", err)
	}
	keptID := f.itemByIMEI(t, "350000000000001").ID

	// removing the sold item blocks the whole edit
	_, err = f.svc.Edit(ctx, doc.ID, EditInput{
		SupplierID: supplier.ID,
		Lines:      []EditLineInput{{ItemID: &keptID, UnitPrice: 10000}},
	})
	if !apperror.IsCode(err, apperror.CodeItemSold) {
		t.Fatalf("remove-sold error = %v, want ITEM_SOLD", err)
	}

	// so does repricing it
	soldID := sold.ID
	_, err = f.svc.Edit(ctx, doc.ID, EditInput{
		SupplierID: supplier.ID,
		Lines: []EditLineInput{
			{ItemID: &keptID, UnitPrice: 10000},
			{ItemID: &soldID, UnitPrice: 99000},
		},
	})
	if !apperror.IsCode(err, apperror.CodeItemSold) {
		t.Fatalf("reprice-sold error = %v, want ITEM_SOLD", err)
	}
	if got := f.itemByIMEI(t, "350000000000002"); got.PurchasePrice != 12000 {
		t.Errorf("sold cost basis moved to %d", got.PurchasePrice)
	}
}

func TestEditNetsSupplierBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	supplier := f.addSupplier(t, 0)
	productID := id.New()

	doc, err := f.svc.Create(ctx, CreateInput{
		SupplierID: supplier.ID,
		PaidAmount: 4000,
		Method:     types.MethodCash,
		Lines:      []LineInput{{ProductID: productID, IMEI: "350000000000001", UnitPrice: 10000}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := f.balance(t, supplier.ID); got != 6000 {
		t.Fatalf("balance = %d, want 6000", got)
	}

	item := f.itemByIMEI(t, "350000000000001")
	_, err = f.svc.Edit(ctx, doc.ID, EditInput{
		SupplierID: supplier.ID,
		PaidAmount: 9000,
		Lines:      []EditLineInput{{ItemID: &item.ID, UnitPrice: 10000}},
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := f.balance(t, supplier.ID); got != 1000 {
		t.Errorf("balance = %d, want 1000", got)
	}
}

func TestDeleteBlockedBySoldItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	supplier := f.addSupplier(t, 0)
	productID := id.New()

	doc, err := f.svc.Create(ctx, CreateInput{
		SupplierID: supplier.ID,
		Method:     types.MethodCash,
		Lines: []LineInput{
			{ProductID: productID, IMEI: "350000000000001", UnitPrice: 10000},
			{ProductID: productID, IMEI: "350000000000002", UnitPrice: 12000},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sold := f.itemByIMEI(t, "350000000000002")
	if err := sold.Sell(id.New(), nil, 15000, time.Now()); err != nil {
		t.Fatalf("pre-sell: %v", err)
	}

	err = f.svc.Delete(ctx, doc.ID)
	if !apperror.IsCode(err, apperror.CodeItemSold) {
		t.Fatalf("error = %v, want ITEM_SOLD", err)
	}
	// nothing mutated
	if got := f.itemByIMEI(t, "350000000000001"); got.Archived {
		t.Error("available item must not be archived when delete is blocked")
	}
	if got := f.balance(t, supplier.ID); got != 22000 {
		t.Errorf("balance = %d, want 22000", got)
	}
}

func TestDeleteArchivesItemsAndClampsBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	supplier := f.addSupplier(t, 0)
	productID := id.New()

	doc, err := f.svc.Create(ctx, CreateInput{
		SupplierID: supplier.ID,
		Method:     types.MethodCash,
		Lines:      []LineInput{{ProductID: productID, IMEI: "350000000000001", UnitPrice: 10000}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// payments elsewhere already pushed the balance below the impact:
	// reversal clamps at zero instead of going negative
	if err := f.parties.AdjustBalance(ctx, supplier.ID, types.MinorUnits(-7000)); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	if err := f.svc.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := f.balance(t, supplier.ID); got != 0 {
		t.Errorf("balance = %d, want 0 (clamped)", got)
	}
	item := f.itemByIMEI(t, "350000000000001")
	if !item.Archived {
		t.Error("item should be archived")
	}
	if _, err := f.svc.GetByID(ctx, doc.ID); !apperror.IsNotFound(err) {
		t.Fatalf("get after delete = %v, want NOT_FOUND", err)
	}
}
