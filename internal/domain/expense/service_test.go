package expense

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
	"celltrade/pkg/numerator"
)

type memExpenseRepo struct {
	expenses map[id.ID]*Expense
}

func newMemExpenseRepo() *memExpenseRepo {
	return &memExpenseRepo{expenses: make(map[id.ID]*Expense)}
}

func (r *memExpenseRepo) Create(_ context.Context, e *Expense) error {
	r.expenses[e.ID] = e
	return nil
}

func (r *memExpenseRepo) GetByID(_ context.Context, expenseID id.ID) (*Expense, error) {
	e, ok := r.expenses[expenseID]
	if !ok {
		return nil, apperror.NewNotFound("expense", expenseID.String())
	}
	return e, nil
}

func (r *memExpenseRepo) Update(_ context.Context, e *Expense) error {
	r.expenses[e.ID] = e
	return nil
}

func (r *memExpenseRepo) Delete(_ context.Context, expenseID id.ID) error {
	delete(r.expenses, expenseID)
	return nil
}

func (r *memExpenseRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*Expense], error) {
	out := domain.ListResult[*Expense]{}
	for _, e := range r.expenses {
		out.Items = append(out.Items, e)
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

func newTestService(repo *memExpenseRepo, sessions *memSessionLocator) *Service {
	return NewService(repo, sessions, tx.NopManager{}, numerator.NewMockGenerator(), audit.Nop{})
}

func TestRecordAttachesOpenSession(t *testing.T) {
	ctx := context.Background()
	sessions := newMemSessionLocator()
	open := cashregister.NewSession(10000, "cashier")
	sessions.sessions[open.ID] = open

	svc := newTestService(newMemExpenseRepo(), sessions)

	exp, err := svc.Record(ctx, New(1000, types.MethodCash, "rent"))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if exp.SessionID == nil || *exp.SessionID != open.ID {
		t.Fatal("cash expense should be attributed to the open session")
	}
	if exp.Number == "" {
		t.Fatal("expected generated number")
	}
}

func TestRecordWithoutSessionLeavesUnattributed(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemExpenseRepo(), newMemSessionLocator())

	exp, err := svc.Record(ctx, New(1000, types.MethodCash, "supplies"))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if exp.SessionID != nil {
		t.Fatal("expense should not be attributed when no session is open")
	}
}

func TestRecordNonCashSkipsSession(t *testing.T) {
	ctx := context.Background()
	sessions := newMemSessionLocator()
	open := cashregister.NewSession(0, "cashier")
	sessions.sessions[open.ID] = open

	svc := newTestService(newMemExpenseRepo(), sessions)

	exp, err := svc.Record(ctx, New(2500, types.MethodCard, "ads"))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if exp.SessionID != nil {
		t.Fatal("card expense must not be attributed to the cash session")
	}
}

func TestRecordRejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemExpenseRepo(), newMemSessionLocator())

	_, err := svc.Record(ctx, New(0, types.MethodCash, ""))
	if !apperror.IsCode(err, apperror.CodeValidation) {
		t.Fatalf("error = %v, want VALIDATION_ERROR", err)
	}
}

func TestEditRejectedAfterSessionClose(t *testing.T) {
	ctx := context.Background()
	sessions := newMemSessionLocator()
	open := cashregister.NewSession(10000, "cashier")
	sessions.sessions[open.ID] = open

	repo := newMemExpenseRepo()
	svc := newTestService(repo, sessions)

	exp, err := svc.Record(ctx, New(1000, types.MethodCash, "rent"))
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := open.Close(9000, 9000, "cashier", time.Now()); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err = svc.Edit(ctx, exp.ID, 2000, "rent", "")
	if !apperror.IsCode(err, apperror.CodeSessionClosed) {
		t.Fatalf("edit error = %v, want SESSION_CLOSED", err)
	}
	if err := svc.Delete(ctx, exp.ID); !apperror.IsCode(err, apperror.CodeSessionClosed) {
		t.Fatalf("delete error = %v, want SESSION_CLOSED", err)
	}
}

func TestEditAndDeleteUnattributed(t *testing.T) {
	ctx := context.Background()
	repo := newMemExpenseRepo()
	svc := newTestService(repo, newMemSessionLocator())

	exp, err := svc.Record(ctx, New(1000, types.MethodTransfer, "utilities"))
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	edited, err := svc.Edit(ctx, exp.ID, 1500, "utilities", "corrected")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Amount != 1500 {
		t.Errorf("amount = %d, want 1500", edited.Amount)
	}

	if err := svc.Delete(ctx, exp.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, exp.ID); !apperror.IsNotFound(err) {
		t.Fatalf("get after delete = %v, want NOT_FOUND", err)
	}
}
