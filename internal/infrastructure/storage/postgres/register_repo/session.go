package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/id"
	"celltrade/internal/domain"
	"celltrade/internal/domain/cashregister"
	"celltrade/internal/infrastructure/storage/postgres"
)

const sessionsTable = "reg_cash_sessions"

// Compile-time check.
var _ cashregister.Repository = (*SessionRepo)(nil)

// SessionRepo implements cashregister.Repository.
type SessionRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

// NewSessionRepo creates a new cash register session repository.
func NewSessionRepo(txManager *postgres.TxManager) *SessionRepo {
	return &SessionRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[cashregister.Session](),
	}
}

func (r *SessionRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *SessionRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *SessionRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(sessionsTable)
}

// Create inserts a new session.
func (r *SessionRepo) Create(ctx context.Context, s *cashregister.Session) error {
	data := postgres.StructToMap(s)

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder().
		Insert(sessionsTable).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetByID retrieves a session.
func (r *SessionRepo) GetByID(ctx context.Context, sessionID id.ID) (*cashregister.Session, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": sessionID}), sessionID.String())
}

// GetOpen returns the single open session, or NotFound when none is open.
func (r *SessionRepo) GetOpen(ctx context.Context) (*cashregister.Session, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"status": cashregister.StatusOpen}).
		Limit(1)
	return r.getOne(ctx, q, "open")
}

// GetOpenForUpdate locks the open session row. A partial unique index on
// status keeps at most one row open; the lock serializes open/close races.
func (r *SessionRepo) GetOpenForUpdate(ctx context.Context) (*cashregister.Session, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"status": cashregister.StatusOpen}).
		Limit(1).
		Suffix("FOR UPDATE")
	return r.getOne(ctx, q, "open")
}

func (r *SessionRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*cashregister.Session, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	s := &cashregister.Session{}
	if err := pgxscan.Get(ctx, r.querier(ctx), s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(sessionsTable, key)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return s, nil
}

// Update persists the session with optimistic locking.
func (r *SessionRepo) Update(ctx context.Context, s *cashregister.Session) error {
	data := postgres.StructToMap(s)

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if col == "id" || col == "created_at" || col == "created_by" {
			continue
		}
		if col == "version" || col == "updated_at" {
			continue
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder().
		Update(sessionsTable).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": s.ID}).
		Where(squirrel.Eq{"version": s.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(sessionsTable, s.ID)
	}

	return nil
}

// CashFlow aggregates the cash-method rows attributed to the session.
// Sales contribute their paid amount, payments carry their counterparty
// kind for the drawer-direction rule, expenses subtract.
func (r *SessionRepo) CashFlow(ctx context.Context, sessionID id.ID) (cashregister.CashFlow, error) {
	var flow cashregister.CashFlow

	querier := r.querier(ctx)

	saleSQL := `
		SELECT COALESCE(SUM(paid_amount), 0)
		FROM doc_sales
		WHERE session_id = $1 AND method = 'cash'`
	if err := querier.QueryRow(ctx, saleSQL, sessionID).Scan(&flow.SalePaid); err != nil {
		return flow, fmt.Errorf("sum sale paid: %w", err)
	}

	paymentSQL := `
		SELECT cp.kind, p.transaction_type AS type, p.amount
		FROM doc_payments p
		JOIN cat_counterparties cp ON cp.id = p.entity_id
		WHERE p.session_id = $1 AND p.method = 'cash'
		ORDER BY p.date`
	if err := pgxscan.Select(ctx, querier, &flow.Payments, paymentSQL, sessionID); err != nil {
		return flow, fmt.Errorf("load session payments: %w", err)
	}

	expenseSQL := `
		SELECT COALESCE(SUM(amount), 0)
		FROM doc_expenses
		WHERE session_id = $1 AND method = 'cash'`
	if err := querier.QueryRow(ctx, expenseSQL, sessionID).Scan(&flow.ExpenseTotal); err != nil {
		return flow, fmt.Errorf("sum expenses: %w", err)
	}

	return flow, nil
}

// List retrieves sessions, newest first.
func (r *SessionRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*cashregister.Session], error) {
	result := domain.ListResult[*cashregister.Session]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}

	countQ := r.builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("opened_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list sessions: %w", err)
	}

	return result, nil
}
