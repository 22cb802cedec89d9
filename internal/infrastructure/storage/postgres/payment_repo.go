package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/id"
	"shopcore/internal/domain/payment"
)

const paymentSessionTable = "pay_sessions"

var paymentSessionColumns = []string{
	"id", "order_id", "amount", "method", "status", "gateway_id",
	"created_at", "updated_at", "expires_at",
}

// PaymentSessionRepo implements payment.Repository.
type PaymentSessionRepo struct {
	txManager *TxManager
}

var _ payment.Repository = (*PaymentSessionRepo)(nil)

// NewPaymentSessionRepo creates a new payment session repository.
func NewPaymentSessionRepo(txManager *TxManager) *PaymentSessionRepo {
	return &PaymentSessionRepo{txManager: txManager}
}

func (r *PaymentSessionRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *PaymentSessionRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().Select(paymentSessionColumns...).From(paymentSessionTable)
}

// Create inserts a session.
func (r *PaymentSessionRepo) Create(ctx context.Context, s *payment.Session) error {
	row := map[string]any{
		"id":         s.ID,
		"order_id":   s.OrderID,
		"amount":     s.Amount,
		"method":     s.Method,
		"status":     s.Status,
		"gateway_id": s.GatewayID,
		"created_at": s.CreatedAt,
		"updated_at": s.UpdatedAt,
		"expires_at": s.ExpiresAt,
	}

	sql, args, err := r.builder().Insert(paymentSessionTable).SetMap(row).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payment session: %w", err)
	}
	return nil
}

// GetByID retrieves a session.
func (r *PaymentSessionRepo) GetByID(ctx context.Context, sessionID id.ID) (*payment.Session, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": sessionID}).Limit(1)
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s payment.Session
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("payment session", sessionID.String())
		}
		return nil, fmt.Errorf("get payment session: %w", err)
	}
	return &s, nil
}

// GetOpenByOrder returns the open session for an order, if any.
func (r *PaymentSessionRepo) GetOpenByOrder(ctx context.Context, orderID id.ID) (*payment.Session, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"order_id": orderID, "status": payment.SessionOpen}).
		OrderBy("created_at DESC").
		Limit(1)
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s payment.Session
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("payment session", orderID.String())
		}
		return nil, fmt.Errorf("get open session: %w", err)
	}
	return &s, nil
}

// Update persists status and gateway fields.
func (r *PaymentSessionRepo) Update(ctx context.Context, s *payment.Session) error {
	q := r.builder().
		Update(paymentSessionTable).
		Set("status", s.Status).
		Set("gateway_id", s.GatewayID).
		Set("updated_at", s.UpdatedAt).
		Where(squirrel.Eq{"id": s.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update payment session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("payment session", s.ID.String())
	}
	return nil
}

// ExpireStale marks open sessions whose TTL elapsed before cutoff as expired.
func (r *PaymentSessionRepo) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	q := r.builder().
		Update(paymentSessionTable).
		Set("status", payment.SessionExpired).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"status": payment.SessionOpen}).
		Where(squirrel.Lt{"expires_at": cutoff})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build expire: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("expire sessions: %w", err)
	}
	return result.RowsAffected(), nil
}
