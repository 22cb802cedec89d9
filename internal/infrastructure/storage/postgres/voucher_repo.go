package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/id"
	"shopcore/internal/domain"
	"shopcore/internal/domain/documents/voucher"
)

const (
	voucherTable     = "doc_vouchers"
	voucherLineTable = "doc_voucher_lines"
)

var voucherColumns = []string{
	"id", "deletion_mark", "version", "created_at", "updated_at",
	"created_by", "updated_by",
	"number", "type", "status", "reason", "notes", "total_value",
	"order_id", "approved_by", "approved_at",
	"rejected_by", "rejected_at", "rejection_reason",
}

var voucherLineColumns = []string{
	"line_id", "voucher_id", "product_id", "product_name",
	"quantity", "cost_price", "note",
}

// VoucherRepo implements voucher.Repository.
type VoucherRepo struct {
	txManager *TxManager
}

var _ voucher.Repository = (*VoucherRepo)(nil)

// NewVoucherRepo creates a new voucher repository.
func NewVoucherRepo(txManager *TxManager) *VoucherRepo {
	return &VoucherRepo{txManager: txManager}
}

func (r *VoucherRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *VoucherRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().Select(voucherColumns...).From(voucherTable)
}

// Create inserts the voucher and its lines.
func (r *VoucherRepo) Create(ctx context.Context, v *voucher.Voucher) error {
	row := map[string]any{
		"id":               v.ID,
		"deletion_mark":    v.DeletionMark,
		"version":          v.Version,
		"created_at":       v.CreatedAt,
		"updated_at":       v.UpdatedAt,
		"created_by":       v.CreatedBy,
		"updated_by":       v.UpdatedBy,
		"number":           v.Number,
		"type":             v.Type,
		"status":           v.Status,
		"reason":           v.Reason,
		"notes":            v.Notes,
		"total_value":      v.TotalValue,
		"order_id":         v.OrderID,
		"approved_by":      v.ApprovedBy,
		"approved_at":      v.ApprovedAt,
		"rejected_by":      v.RejectedBy,
		"rejected_at":      v.RejectedAt,
		"rejection_reason": v.RejectionReason,
	}

	sql, args, err := r.builder().Insert(voucherTable).SetMap(row).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert voucher: %w", err)
	}

	return r.insertLines(ctx, v.ID, v.Lines)
}

func (r *VoucherRepo) insertLines(ctx context.Context, voucherID id.ID, lines []voucher.Line) error {
	if len(lines) == 0 {
		return nil
	}

	q := r.builder().Insert(voucherLineTable).Columns(voucherLineColumns...)
	for _, l := range lines {
		q = q.Values(l.LineID, voucherID, l.ProductID, l.ProductName, l.Quantity, l.CostPrice, l.Note)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build lines insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert voucher lines: %w", err)
	}
	return nil
}

func (r *VoucherRepo) loadLines(ctx context.Context, voucherID id.ID) ([]voucher.Line, error) {
	q := r.builder().
		Select("line_id", "product_id", "product_name", "quantity", "cost_price", "note").
		From(voucherLineTable).
		Where(squirrel.Eq{"voucher_id": voucherID}).
		OrderBy("product_name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lines query: %w", err)
	}

	var lines []voucher.Line
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("load voucher lines: %w", err)
	}
	return lines, nil
}

func (r *VoucherRepo) getOne(ctx context.Context, voucherID id.ID, forUpdate bool) (*voucher.Voucher, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": voucherID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var v voucher.Voucher
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &v, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("voucher", voucherID.String())
		}
		return nil, fmt.Errorf("get voucher: %w", err)
	}

	v.Lines, err = r.loadLines(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetByID retrieves a voucher with lines.
func (r *VoucherRepo) GetByID(ctx context.Context, voucherID id.ID) (*voucher.Voucher, error) {
	return r.getOne(ctx, voucherID, false)
}

// GetByIDForUpdate retrieves a voucher with lines, locking the voucher row.
func (r *VoucherRepo) GetByIDForUpdate(ctx context.Context, voucherID id.ID) (*voucher.Voucher, error) {
	return r.getOne(ctx, voucherID, true)
}

// Update persists header fields and replaces the lines, with optimistic
// locking on version.
func (r *VoucherRepo) Update(ctx context.Context, v *voucher.Voucher) error {
	// v.Touch() already advanced the in-memory version; the row must still
	// hold the previous one
	expectedVersion := v.Version - 1

	q := r.builder().
		Update(voucherTable).
		Set("status", v.Status).
		Set("reason", v.Reason).
		Set("notes", v.Notes).
		Set("total_value", v.TotalValue).
		Set("approved_by", v.ApprovedBy).
		Set("approved_at", v.ApprovedAt).
		Set("rejected_by", v.RejectedBy).
		Set("rejected_at", v.RejectedAt).
		Set("rejection_reason", v.RejectionReason).
		Set("updated_at", v.UpdatedAt).
		Set("updated_by", v.UpdatedBy).
		Set("version", v.Version).
		Where(squirrel.Eq{"id": v.ID}).
		Where(squirrel.Eq{"version": expectedVersion})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update voucher: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("voucher", v.ID)
	}

	delSQL, delArgs, err := r.builder().
		Delete(voucherLineTable).
		Where(squirrel.Eq{"voucher_id": v.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build lines delete: %w", err)
	}
	if _, err := querier.Exec(ctx, delSQL, delArgs...); err != nil {
		return fmt.Errorf("delete voucher lines: %w", err)
	}

	return r.insertLines(ctx, v.ID, v.Lines)
}

// Delete soft-deletes the voucher.
func (r *VoucherRepo) Delete(ctx context.Context, voucherID id.ID) error {
	q := r.builder().
		Update(voucherTable).
		Set("deletion_mark", true).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": voucherID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete voucher: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("voucher", voucherID.String())
	}
	return nil
}

// List retrieves vouchers with filtering and pagination. Lines are loaded
// per voucher; list pages are small enough that this stays cheap.
func (r *VoucherRepo) List(ctx context.Context, filter voucher.Filter) (domain.ListResult[*voucher.Voucher], error) {
	result := domain.ListResult[*voucher.Voucher]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect().Where(squirrel.Eq{"deletion_mark": false})
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.OrderID != nil {
		q = q.Where(squirrel.Eq{"order_id": *filter.OrderID})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"reason": pattern},
		})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}

	countSQL, countArgs, err := r.builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count vouchers: %w", err)
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
		return result, fmt.Errorf("list vouchers: %w", err)
	}

	for _, v := range result.Items {
		v.Lines, err = r.loadLines(ctx, v.ID)
		if err != nil {
			return result, err
		}
	}
	return result, nil
}
