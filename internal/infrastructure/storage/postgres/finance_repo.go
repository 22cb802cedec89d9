package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/id"
	"shopcore/internal/core/types"
	"shopcore/internal/domain"
	"shopcore/internal/domain/finance"
)

const transactionTable = "fin_transactions"

var transactionColumns = []string{
	"id", "deletion_mark", "version", "created_at", "updated_at",
	"created_by", "updated_by",
	"number", "type", "category", "amount", "description",
	"payment_method", "order_id", "voucher_id", "customer_id",
	"transaction_date", "auto_created",
}

// TransactionRepo implements finance.Repository. The ledger is append-only;
// there is no update or delete path.
type TransactionRepo struct {
	txManager *TxManager
}

var _ finance.Repository = (*TransactionRepo)(nil)

// NewTransactionRepo creates a new transaction repository.
func NewTransactionRepo(txManager *TxManager) *TransactionRepo {
	return &TransactionRepo{txManager: txManager}
}

func (r *TransactionRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *TransactionRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().Select(transactionColumns...).From(transactionTable)
}

// Create inserts one transaction.
func (r *TransactionRepo) Create(ctx context.Context, t *finance.Transaction) error {
	row := map[string]any{
		"id":               t.ID,
		"deletion_mark":    t.DeletionMark,
		"version":          t.Version,
		"created_at":       t.CreatedAt,
		"updated_at":       t.UpdatedAt,
		"created_by":       t.CreatedBy,
		"updated_by":       t.UpdatedBy,
		"number":           t.Number,
		"type":             t.Type,
		"category":         t.Category,
		"amount":           t.Amount,
		"description":      t.Description,
		"payment_method":   t.PaymentMethod,
		"order_id":         t.OrderID,
		"voucher_id":       t.VoucherID,
		"customer_id":      t.CustomerID,
		"transaction_date": t.TransactionDate,
		"auto_created":     t.AutoCreated,
	}

	sql, args, err := r.builder().Insert(transactionTable).SetMap(row).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepo) GetByID(ctx context.Context, txnID id.ID) (*finance.Transaction, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": txnID}).Limit(1)
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t finance.Transaction
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("transaction", txnID.String())
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &t, nil
}

// ExistsAutoIncomeForOrder reports whether an auto-created income entry
// already references the order.
func (r *TransactionRepo) ExistsAutoIncomeForOrder(ctx context.Context, orderID id.ID) (bool, error) {
	q := r.builder().
		Select("1").
		From(transactionTable).
		Where(squirrel.Eq{
			"order_id":     orderID,
			"type":         finance.TypeIncome,
			"auto_created": true,
		}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check order income: %w", err)
	}
	return true, nil
}

func applyTxnFilter(q squirrel.SelectBuilder, filter finance.Filter) squirrel.SelectBuilder {
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.Category != nil {
		q = q.Where(squirrel.Eq{"category": *filter.Category})
	}
	if filter.OrderID != nil {
		q = q.Where(squirrel.Eq{"order_id": *filter.OrderID})
	}
	if filter.VoucherID != nil {
		q = q.Where(squirrel.Eq{"voucher_id": *filter.VoucherID})
	}
	if filter.AutoCreated != nil {
		q = q.Where(squirrel.Eq{"auto_created": *filter.AutoCreated})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"transaction_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"transaction_date": *filter.ToDate})
	}
	return q
}

// List returns paged transactions, newest first.
func (r *TransactionRepo) List(ctx context.Context, filter finance.Filter) (domain.ListResult[*finance.Transaction], error) {
	result := domain.ListResult[*finance.Transaction]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := applyTxnFilter(r.baseSelect(), filter)

	countSQL, countArgs, err := r.builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count transactions: %w", err)
	}

	q = q.OrderBy("transaction_date DESC")
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
		return result, fmt.Errorf("list transactions: %w", err)
	}
	return result, nil
}

// summaryRow is the scan target for the aggregation query.
type summaryRow struct {
	TotalIncome  types.Money `db:"total_income"`
	TotalExpense types.Money `db:"total_expense"`
	IncomeCount  int64       `db:"income_count"`
	ExpenseCount int64       `db:"expense_count"`
	OrderIncome  types.Money `db:"order_income"`
	StockExpense types.Money `db:"stock_expense"`
}

// Summarize aggregates amounts and counts over the optional date window.
// Derived fields (net, average) are computed by the service.
func (r *TransactionRepo) Summarize(ctx context.Context, filter finance.SummaryFilter) (*finance.Summary, error) {
	q := r.builder().
		Select(
			"COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0) AS total_income",
			"COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0) AS total_expense",
			"COUNT(*) FILTER (WHERE type = 'income') AS income_count",
			"COUNT(*) FILTER (WHERE type = 'expense') AS expense_count",
			"COALESCE(SUM(amount) FILTER (WHERE type = 'income' AND category = 'order'), 0) AS order_income",
			"COALESCE(SUM(amount) FILTER (WHERE type = 'expense' AND category = 'stock'), 0) AS stock_expense",
		).
		From(transactionTable)
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"transaction_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"transaction_date": *filter.ToDate})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build summary query: %w", err)
	}

	var row summaryRow
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &row, sql, args...); err != nil {
		return nil, fmt.Errorf("summarize transactions: %w", err)
	}

	return &finance.Summary{
		TotalIncome:  row.TotalIncome,
		TotalExpense: row.TotalExpense,
		IncomeCount:  row.IncomeCount,
		ExpenseCount: row.ExpenseCount,
		OrderIncome:  row.OrderIncome,
		StockExpense: row.StockExpense,
	}, nil
}

// CategoryBreakdown returns per-category income/expense totals.
func (r *TransactionRepo) CategoryBreakdown(ctx context.Context, filter finance.SummaryFilter) ([]*finance.CategoryTotal, error) {
	q := r.builder().
		Select(
			"category",
			"COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0) AS income",
			"COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0) AS expense",
			"COUNT(*) AS count",
		).
		From(transactionTable).
		GroupBy("category").
		OrderBy("category ASC")
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"transaction_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"transaction_date": *filter.ToDate})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build breakdown query: %w", err)
	}

	var rows []*finance.CategoryTotal
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	return rows, nil
}
