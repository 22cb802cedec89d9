package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/id"
	"shopcore/internal/domain"
	"shopcore/internal/domain/documents/order"
)

const (
	orderTable     = "doc_orders"
	orderItemTable = "doc_order_items"
)

var orderColumns = []string{
	"id", "deletion_mark", "version", "created_at", "updated_at",
	"created_by", "updated_by",
	"user_id", "payment_method", "total_price", "is_paid", "paid_at", "status",
	"ship_address", "ship_city", "ship_postal_code", "ship_country",
	"payment_id", "payment_status", "payment_update_time",
}

// orderRow is the flat scan target; shipping and payment nest in the domain
// struct but live as plain columns on the row.
type orderRow struct {
	order.Order
	ShipAddress       string  `db:"ship_address"`
	ShipCity          string  `db:"ship_city"`
	ShipPostalCode    string  `db:"ship_postal_code"`
	ShipCountry       string  `db:"ship_country"`
	PaymentID         *string `db:"payment_id"`
	PaymentStatus     *string `db:"payment_status"`
	PaymentUpdateTime *string `db:"payment_update_time"`
}

func (row *orderRow) toDomain() *order.Order {
	o := row.Order
	o.ShippingAddress = order.ShippingAddress{
		Address:    row.ShipAddress,
		City:       row.ShipCity,
		PostalCode: row.ShipPostalCode,
		Country:    row.ShipCountry,
	}
	if row.PaymentID != nil {
		o.PaymentResult = &order.PaymentResult{
			ID:         *row.PaymentID,
			Status:     derefStr(row.PaymentStatus),
			UpdateTime: derefStr(row.PaymentUpdateTime),
		}
	}
	return &o
}

// OrderRepo implements order.Repository.
type OrderRepo struct {
	txManager *TxManager
}

var _ order.Repository = (*OrderRepo)(nil)

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txManager *TxManager) *OrderRepo {
	return &OrderRepo{txManager: txManager}
}

func (r *OrderRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *OrderRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().Select(orderColumns...).From(orderTable)
}

// Create inserts the order, its items and the shipping address.
func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	row := map[string]any{
		"id":               o.ID,
		"deletion_mark":    o.DeletionMark,
		"version":          o.Version,
		"created_at":       o.CreatedAt,
		"updated_at":       o.UpdatedAt,
		"created_by":       o.CreatedBy,
		"updated_by":       o.UpdatedBy,
		"user_id":          o.UserID,
		"payment_method":   o.PaymentMethod,
		"total_price":      o.TotalPrice,
		"is_paid":          o.IsPaid,
		"paid_at":          o.PaidAt,
		"status":           o.Status,
		"ship_address":     o.ShippingAddress.Address,
		"ship_city":        o.ShippingAddress.City,
		"ship_postal_code": o.ShippingAddress.PostalCode,
		"ship_country":     o.ShippingAddress.Country,
	}

	sql, args, err := r.builder().Insert(orderTable).SetMap(row).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if len(o.Items) == 0 {
		return nil
	}
	q := r.builder().Insert(orderItemTable).
		Columns("order_id", "product_id", "name", "price", "quantity")
	for _, it := range o.Items {
		q = q.Values(o.ID, it.ProductID, it.Name, it.Price, it.Quantity)
	}
	itemsSQL, itemsArgs, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build items insert: %w", err)
	}
	if _, err := querier.Exec(ctx, itemsSQL, itemsArgs...); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

func (r *OrderRepo) loadItems(ctx context.Context, orderID id.ID) ([]order.Item, error) {
	q := r.builder().
		Select("product_id", "name", "price", "quantity").
		From(orderItemTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}

	var items []order.Item
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	return items, nil
}

func (r *OrderRepo) getOne(ctx context.Context, orderID id.ID, forUpdate bool) (*order.Order, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": orderID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row orderRow
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", orderID.String())
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	o := row.toDomain()
	o.Items, err = r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// GetByID retrieves an order with items.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*order.Order, error) {
	return r.getOne(ctx, orderID, false)
}

// GetByIDForUpdate retrieves an order with items, locking the order row.
func (r *OrderRepo) GetByIDForUpdate(ctx context.Context, orderID id.ID) (*order.Order, error) {
	return r.getOne(ctx, orderID, true)
}

// Update persists header fields with optimistic locking. Items never change
// after creation.
func (r *OrderRepo) Update(ctx context.Context, o *order.Order) error {
	expectedVersion := o.Version - 1

	q := r.builder().
		Update(orderTable).
		Set("status", o.Status).
		Set("is_paid", o.IsPaid).
		Set("paid_at", o.PaidAt).
		Set("updated_at", o.UpdatedAt).
		Set("updated_by", o.UpdatedBy).
		Set("version", o.Version).
		Where(squirrel.Eq{"id": o.ID}).
		Where(squirrel.Eq{"version": expectedVersion})

	if o.PaymentResult != nil {
		q = q.Set("payment_id", o.PaymentResult.ID).
			Set("payment_status", o.PaymentResult.Status).
			Set("payment_update_time", o.PaymentResult.UpdateTime)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("order", o.ID)
	}
	return nil
}

// List retrieves orders with filtering and pagination.
func (r *OrderRepo) List(ctx context.Context, filter order.Filter) (domain.ListResult[*order.Order], error) {
	result := domain.ListResult[*order.Order]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect().Where(squirrel.Eq{"deletion_mark": false})
	if filter.UserID != "" {
		q = q.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.IsPaid != nil {
		q = q.Where(squirrel.Eq{"is_paid": *filter.IsPaid})
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
		return result, fmt.Errorf("count orders: %w", err)
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

	var rows []*orderRow
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return result, fmt.Errorf("list orders: %w", err)
	}

	for _, row := range rows {
		o := row.toDomain()
		o.Items, err = r.loadItems(ctx, o.ID)
		if err != nil {
			return result, err
		}
		result.Items = append(result.Items, o)
	}
	return result, nil
}
