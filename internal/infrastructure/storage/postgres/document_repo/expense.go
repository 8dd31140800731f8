package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"celltrade/internal/domain"
	"celltrade/internal/domain/expense"
	"celltrade/internal/infrastructure/storage/postgres"
)

const expensesTable = "doc_expenses"

// Compile-time check.
var _ expense.Repository = (*ExpenseRepo)(nil)

// ExpenseRepo implements expense.Repository.
type ExpenseRepo struct {
	*BaseDocumentRepo[*expense.Expense]
}

// NewExpenseRepo creates a new expense repository.
func NewExpenseRepo(txManager *postgres.TxManager) *ExpenseRepo {
	return &ExpenseRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*expense.Expense](
			txManager,
			expensesTable,
			postgres.ExtractDBColumns[expense.Expense](),
			func() *expense.Expense { return &expense.Expense{} },
		),
	}
}

// List retrieves expenses with filtering.
func (r *ExpenseRepo) List(ctx context.Context, filter expense.ListFilter) (domain.ListResult[*expense.Expense], error) {
	q := r.baseSelect()

	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}

	if filter.SessionID != nil {
		q = q.Where(squirrel.Eq{"session_id": *filter.SessionID})
	}

	return listWith(ctx, r.BaseDocumentRepo, q, filter.ListFilter)
}
