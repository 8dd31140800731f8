package cashregister

import (
	"context"
	"testing"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/id"
	"celltrade/internal/core/tx"
	"celltrade/internal/domain"
	"celltrade/internal/domain/audit"
	"celltrade/internal/domain/catalogs/counterparty"
	"celltrade/internal/domain/ledger"
	"celltrade/pkg/numerator"
)

type memSessionRepo struct {
	sessions map[id.ID]*Session
	flows    map[id.ID]CashFlow
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{
		sessions: make(map[id.ID]*Session),
		flows:    make(map[id.ID]CashFlow),
	}
}

func (r *memSessionRepo) Create(_ context.Context, s *Session) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *memSessionRepo) GetByID(_ context.Context, sessionID id.ID) (*Session, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, apperror.NewNotFound("cash register session", sessionID.String())
	}
	return s, nil
}

func (r *memSessionRepo) GetOpen(_ context.Context) (*Session, error) {
	for _, s := range r.sessions {
		if s.IsOpen() {
			return s, nil
		}
	}
	return nil, apperror.NewNotFound("cash register session", "open")
}

func (r *memSessionRepo) GetOpenForUpdate(ctx context.Context) (*Session, error) {
	return r.GetOpen(ctx)
}

func (r *memSessionRepo) Update(_ context.Context, s *Session) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *memSessionRepo) CashFlow(_ context.Context, sessionID id.ID) (CashFlow, error) {
	return r.flows[sessionID], nil
}

func (r *memSessionRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*Session], error) {
	out := domain.ListResult[*Session]{}
	for _, s := range r.sessions {
		out.Items = append(out.Items, s)
	}
	out.TotalCount = int64(len(out.Items))
	return out, nil
}

func newTestService(repo *memSessionRepo) *Service {
	return NewService(repo, tx.NopManager{}, numerator.NewMockGenerator(), audit.Nop{})
}

func TestOpenRejectsSecondSession(t *testing.T) {
	ctx := context.Background()
	repo := newMemSessionRepo()
	svc := newTestService(repo)

	first, err := svc.Open(ctx, 10000, "cashier")
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if first.Status != StatusOpen {
		t.Fatalf("status = %s, want %s", first.Status, StatusOpen)
	}
	if first.Number == "" {
		t.Fatal("expected generated session number")
	}

	_, err = svc.Open(ctx, 5000, "cashier")
	if !apperror.IsCode(err, apperror.CodeSessionAlreadyOpen) {
		t.Fatalf("second open error = %v, want SESSION_ALREADY_OPEN", err)
	}
}

func TestOpenRejectsNegativeOpeningBalance(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemSessionRepo())

	_, err := svc.Open(ctx, -100, "cashier")
	if !apperror.IsCode(err, apperror.CodeValidation) {
		t.Fatalf("error = %v, want VALIDATION_ERROR", err)
	}
}

func TestCloseComputesExpectedBalance(t *testing.T) {
	ctx := context.Background()
	repo := newMemSessionRepo()
	svc := newTestService(repo)

	// Opening 100.00, one cash sale paid 50.00, one customer payment of
	// 20.00 in, one expense of 10.00 out: expected 160.00.
	session, err := svc.Open(ctx, 10000, "cashier")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	repo.flows[session.ID] = CashFlow{
		SalePaid: 5000,
		Payments: []SessionPayment{
			{Kind: counterparty.KindCustomer, Type: ledger.TxPayment, Amount: 2000},
		},
		ExpenseTotal: 1000,
	}

	closed, err := svc.Close(ctx, session.ID, 16000, "cashier")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := *closed.ExpectedBalance; got != 16000 {
		t.Errorf("expected balance = %d, want 16000", got)
	}
	if got := *closed.Difference; got != 0 {
		t.Errorf("difference = %d, want 0", got)
	}
	if closed.Status != StatusClosed {
		t.Errorf("status = %s, want %s", closed.Status, StatusClosed)
	}
}

func TestCloseReportsShortage(t *testing.T) {
	ctx := context.Background()
	repo := newMemSessionRepo()
	svc := newTestService(repo)

	session, err := svc.Open(ctx, 10000, "cashier")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	repo.flows[session.ID] = CashFlow{SalePaid: 5000}

	closed, err := svc.Close(ctx, session.ID, 14500, "cashier")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := *closed.Difference; got != -500 {
		t.Errorf("difference = %d, want -500", got)
	}
}

func TestCloseWithoutOpenSession(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemSessionRepo())

	_, err := svc.Close(ctx, id.New(), 0, "cashier")
	if !apperror.IsCode(err, apperror.CodeNoOpenSession) {
		t.Fatalf("error = %v, want NO_OPEN_SESSION", err)
	}
}

func TestCloseIsTerminal(t *testing.T) {
	ctx := context.Background()
	repo := newMemSessionRepo()
	svc := newTestService(repo)

	session, err := svc.Open(ctx, 10000, "cashier")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := svc.Close(ctx, session.ID, 10000, "cashier"); err != nil {
		t.Fatalf("close: %v", err)
	}
	_, err = svc.Close(ctx, session.ID, 10000, "cashier")
	if !apperror.IsCode(err, apperror.CodeNoOpenSession) {
		t.Fatalf("second close error = %v, want NO_OPEN_SESSION", err)
	}
}

func TestRefundAndSupplierCashEffects(t *testing.T) {
	ctx := context.Background()
	repo := newMemSessionRepo()
	svc := newTestService(repo)

	session, err := svc.Open(ctx, 0, "cashier")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	repo.flows[session.ID] = CashFlow{
		Payments: []SessionPayment{
			{Kind: counterparty.KindCustomer, Type: ledger.TxPayment, Amount: 3000}, // +3000
			{Kind: counterparty.KindCustomer, Type: ledger.TxRefund, Amount: 1000},  // -1000
			{Kind: counterparty.KindSupplier, Type: ledger.TxPayment, Amount: 500},  // -500
			{Kind: counterparty.KindSupplier, Type: ledger.TxRefund, Amount: 200},   // +200
		},
	}

	closed, err := svc.Close(ctx, session.ID, 1700, "cashier")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := *closed.ExpectedBalance; got != 1700 {
		t.Errorf("expected balance = %d, want 1700", got)
	}
}

func TestCurrentReturnsNilWhenClosed(t *testing.T) {
	ctx := context.Background()
	repo := newMemSessionRepo()
	svc := newTestService(repo)

	current, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current != nil {
		t.Fatal("expected nil current session")
	}

	session, err := svc.Open(ctx, 10000, "cashier")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	current, err = svc.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current == nil || current.ID != session.ID {
		t.Fatal("expected the open session")
	}
}
