package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopcore/internal/core/id"
	"shopcore/internal/domain"
	"shopcore/internal/domain/registers/stock"
)

const stockHistoryTable = "reg_stock_history"

var stockHistoryColumns = []string{
	"id", "product_id", "product_name", "voucher_type",
	"quantity_before", "quantity_change", "quantity_after",
	"voucher_id", "voucher_number", "order_id", "reason",
	"created_by", "created_at",
}

// StockHistoryRepo implements stock.Repository. The table is append-only;
// there is deliberately no update or delete path.
type StockHistoryRepo struct {
	txManager *TxManager
}

var _ stock.Repository = (*StockHistoryRepo)(nil)

// NewStockHistoryRepo creates a new stock history repository.
func NewStockHistoryRepo(txManager *TxManager) *StockHistoryRepo {
	return &StockHistoryRepo{txManager: txManager}
}

func (r *StockHistoryRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *StockHistoryRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().Select(stockHistoryColumns...).From(stockHistoryTable)
}

// Append inserts one history entry.
func (r *StockHistoryRepo) Append(ctx context.Context, entry *stock.HistoryEntry) error {
	row := map[string]any{
		"id":              entry.ID,
		"product_id":      entry.ProductID,
		"product_name":    entry.ProductName,
		"voucher_type":    entry.VoucherType,
		"quantity_before": entry.QuantityBefore,
		"quantity_change": entry.QuantityChange,
		"quantity_after":  entry.QuantityAfter,
		"voucher_id":      entry.VoucherID,
		"voucher_number":  entry.VoucherNumber,
		"order_id":        entry.OrderID,
		"reason":          entry.Reason,
		"created_by":      entry.CreatedBy,
		"created_at":      entry.CreatedAt,
	}

	sql, args, err := r.builder().Insert(stockHistoryTable).SetMap(row).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stock history: %w", err)
	}
	return nil
}

func applyHistoryFilter(q squirrel.SelectBuilder, filter stock.HistoryFilter) squirrel.SelectBuilder {
	if filter.VoucherType != nil {
		q = q.Where(squirrel.Eq{"voucher_type": *filter.VoucherType})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}
	return q
}

// ListByProduct returns history for a product, newest first.
func (r *StockHistoryRepo) ListByProduct(ctx context.Context, productID id.ID, filter stock.HistoryFilter) ([]*stock.HistoryEntry, error) {
	q := applyHistoryFilter(r.baseSelect().Where(squirrel.Eq{"product_id": productID}), filter).
		OrderBy("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []*stock.HistoryEntry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list product history: %w", err)
	}
	return entries, nil
}

// ListByVoucher returns the entries created by a voucher approval.
func (r *StockHistoryRepo) ListByVoucher(ctx context.Context, voucherID id.ID) ([]*stock.HistoryEntry, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"voucher_id": voucherID}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []*stock.HistoryEntry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list voucher history: %w", err)
	}
	return entries, nil
}

// List returns paged history across all products.
func (r *StockHistoryRepo) List(ctx context.Context, filter stock.HistoryFilter) (domain.ListResult[*stock.HistoryEntry], error) {
	result := domain.ListResult[*stock.HistoryEntry]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := applyHistoryFilter(r.baseSelect(), filter)

	countSQL, countArgs, err := r.builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count stock history: %w", err)
	}

	q = q.OrderBy("created_at DESC")
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
		return result, fmt.Errorf("list stock history: %w", err)
	}
	return result, nil
}
