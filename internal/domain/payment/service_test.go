package payment

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
	"celltrade/internal/domain/cashregister"
	"celltrade/internal/domain/catalogs/counterparty"
	"celltrade/internal/domain/ledger"
	"celltrade/pkg/numerator"
)

type memPaymentRepo struct {
	payments map[id.ID]*Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: make(map[id.ID]*Payment)}
}

func (r *memPaymentRepo) Create(_ context.Context, p *Payment) error {
	r.payments[p.ID] = p
	return nil
}

func (r *memPaymentRepo) GetByID(_ context.Context, paymentID id.ID) (*Payment, error) {
	p, ok := r.payments[paymentID]
	if !ok {
		return nil, apperror.NewNotFound("payment", paymentID.String())
	}
	return p, nil
}

func (r *memPaymentRepo) GetForUpdate(ctx context.Context, paymentID id.ID) (*Payment, error) {
	return r.GetByID(ctx, paymentID)
}

func (r *memPaymentRepo) Update(_ context.Context, p *Payment) error {
	r.payments[p.ID] = p
	return nil
}

func (r *memPaymentRepo) Delete(_ context.Context, paymentID id.ID) error {
	delete(r.payments, paymentID)
	return nil
}

func (r *memPaymentRepo) DeleteByEntity(_ context.Context, entityID id.ID) error {
	for pid, p := range r.payments {
		if p.EntityID == entityID {
			delete(r.payments, pid)
		}
	}
	return nil
}

func (r *memPaymentRepo) ListByEntity(_ context.Context, entityID id.ID) ([]*Payment, error) {
	var out []*Payment
	for _, p := range r.payments {
		if p.EntityID == entityID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPaymentRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*Payment], error) {
	out := domain.ListResult[*Payment]{}
	for _, p := range r.payments {
		out.Items = append(out.Items, p)
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
	repo     *memPaymentRepo
	parties  *counterparty.MemRepository
	sessions *memSessionLocator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemPaymentRepo()
	parties := counterparty.NewMemRepository()
	sessions := newMemSessionLocator()
	svc := NewService(repo, parties, sessions, tx.NopManager{}, numerator.NewMockGenerator(), audit.Nop{})
	return &fixture{svc: svc, repo: repo, parties: parties, sessions: sessions}
}

func (f *fixture) addParty(t *testing.T, kind counterparty.Kind, balance types.MinorUnits) *counterparty.Counterparty {
	t.Helper()
	c := counterparty.New("C000001", "Test Party", kind)
	c.Balance = balance
	if err := f.parties.Create(context.Background(), c); err != nil {
		t.Fatalf("create party: %v", err)
	}
	return c
}

func (f *fixture) balance(t *testing.T, entityID id.ID) types.MinorUnits {
	t.Helper()
	c, err := f.parties.GetByID(context.Background(), entityID)
	if err != nil {
		t.Fatalf("get party: %v", err)
	}
	return c.Balance
}

func TestRecordPaymentReducesBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.addParty(t, counterparty.KindCustomer, 40000)

	p, err := f.svc.Record(ctx, New(customer.ID, ledger.TxPayment, 15000, types.MethodCash))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if p.Number == "" {
		t.Fatal("expected generated number")
	}
	if got := f.balance(t, customer.ID); got != 25000 {
		t.Errorf("balance = %d, want 25000", got)
	}
}

func TestRecordRefundRestoresBalance(t *testing.T) {
	ctx := context.Background()

	// Direction is kind-independent: refunds raise the tracked balance for
	// customers and suppliers alike.
	for _, kind := range []counterparty.Kind{counterparty.KindCustomer, counterparty.KindSupplier} {
		f := newFixture(t)
		party := f.addParty(t, kind, 10000)
		if _, err := f.svc.Record(ctx, New(party.ID, ledger.TxRefund, 3000, types.MethodCash)); err != nil {
			t.Fatalf("record %s refund: %v", kind, err)
		}
		if got := f.balance(t, party.ID); got != 13000 {
			t.Errorf("%s balance = %d, want 13000", kind, got)
		}
	}
}

func TestRecordAttachesOpenSessionForCash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.addParty(t, counterparty.KindCustomer, 10000)

	open := cashregister.NewSession(0, "cashier")
	f.sessions.sessions[open.ID] = open

	cash, err := f.svc.Record(ctx, New(customer.ID, ledger.TxPayment, 1000, types.MethodCash))
	if err != nil {
		t.Fatalf("record cash: %v", err)
	}
	if cash.SessionID == nil || *cash.SessionID != open.ID {
		t.Fatal("cash payment should carry the open session id")
	}

	card, err := f.svc.Record(ctx, New(customer.ID, ledger.TxPayment, 1000, types.MethodCard))
	if err != nil {
		t.Fatalf("record card: %v", err)
	}
	if card.SessionID != nil {
		t.Fatal("card payment must not carry a session id")
	}
}

func TestRecordRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.addParty(t, counterparty.KindCustomer, 0)

	cases := []struct {
		name string
		p    *Payment
	}{
		{"zero amount", New(customer.ID, ledger.TxPayment, 0, types.MethodCash)},
		{"negative amount", New(customer.ID, ledger.TxPayment, -500, types.MethodCash)},
		{"bad type", New(customer.ID, "chargeback", 500, types.MethodCash)},
		{"bad method", New(customer.ID, ledger.TxPayment, 500, "crypto")},
		{"nil entity", New(id.Nil(), ledger.TxPayment, 500, types.MethodCash)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Record(ctx, tc.p); !apperror.IsCode(err, apperror.CodeValidation) {
				t.Fatalf("error = %v, want VALIDATION_ERROR", err)
			}
		})
	}
}

func TestRecordUnknownEntity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Record(ctx, New(id.New(), ledger.TxPayment, 500, types.MethodCash))
	if !apperror.IsNotFound(err) {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}
}

func TestEditAmountAppliesDirectionalDiff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.addParty(t, counterparty.KindCustomer, 40000)

	p, err := f.svc.Record(ctx, New(customer.ID, ledger.TxPayment, 10000, types.MethodCard))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	// balance 30000; raising the payment to 12000 settles 2000 more
	newAmount := types.MinorUnits(12000)
	if _, err := f.svc.Edit(ctx, p.ID, EditInput{Amount: &newAmount}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := f.balance(t, customer.ID); got != 28000 {
		t.Errorf("balance after raise = %d, want 28000", got)
	}

	// lowering back to 7000 returns 5000 of debt
	newAmount = 7000
	if _, err := f.svc.Edit(ctx, p.ID, EditInput{Amount: &newAmount}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := f.balance(t, customer.ID); got != 33000 {
		t.Errorf("balance after lower = %d, want 33000", got)
	}
}

func TestEditMetadataHasNoBalanceEffect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.addParty(t, counterparty.KindCustomer, 40000)

	p, err := f.svc.Record(ctx, New(customer.ID, ledger.TxPayment, 10000, types.MethodCard))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	before := f.balance(t, customer.ID)

	date := time.Now().Add(-24 * time.Hour)
	method := types.MethodTransfer
	ref := "wire-42"
	if _, err := f.svc.Edit(ctx, p.ID, EditInput{Date: &date, Method: &method, Reference: &ref}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := f.balance(t, customer.ID); got != before {
		t.Errorf("balance moved %d -> %d on metadata edit", before, got)
	}
}

func TestEditRejectedAfterSessionClose(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.addParty(t, counterparty.KindCustomer, 40000)

	open := cashregister.NewSession(0, "cashier")
	f.sessions.sessions[open.ID] = open

	p, err := f.svc.Record(ctx, New(customer.ID, ledger.TxPayment, 1000, types.MethodCash))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := open.Close(1000, 1000, "cashier", time.Now()); err != nil {
		t.Fatalf("close: %v", err)
	}

	amount := types.MinorUnits(2000)
	if _, err := f.svc.Edit(ctx, p.ID, EditInput{Amount: &amount}); !apperror.IsCode(err, apperror.CodeSessionClosed) {
		t.Fatalf("edit error = %v, want SESSION_CLOSED", err)
	}
	if err := f.svc.Delete(ctx, p.ID); !apperror.IsCode(err, apperror.CodeSessionClosed) {
		t.Fatalf("delete error = %v, want SESSION_CLOSED", err)
	}
}

func TestDeleteReversesBalanceEffect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	supplier := f.addParty(t, counterparty.KindSupplier, 20000)

	p, err := f.svc.Record(ctx, New(supplier.ID, ledger.TxPayment, 8000, types.MethodTransfer))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := f.balance(t, supplier.ID); got != 12000 {
		t.Fatalf("balance after record = %d, want 12000", got)
	}

	if err := f.svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := f.balance(t, supplier.ID); got != 20000 {
		t.Errorf("balance after delete = %d, want 20000", got)
	}
	if _, err := f.svc.GetByID(ctx, p.ID); !apperror.IsNotFound(err) {
		t.Fatalf("get after delete = %v, want NOT_FOUND", err)
	}
}
