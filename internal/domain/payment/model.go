// Package payment provides short-lived payment sessions: a checkout opens a
// session, the gateway resolves it, and a background sweeper expires the
// abandoned ones.
package payment

import (
	"context"
	"time"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/id"
	"shopcore/internal/core/types"
)

// SessionStatus is the session state.
type SessionStatus string

const (
	SessionOpen     SessionStatus = "open"
	SessionPaid     SessionStatus = "paid"
	SessionFailed   SessionStatus = "failed"
	SessionExpired  SessionStatus = "expired"
)

// Session is one in-flight payment attempt for an order.
type Session struct {
	ID        id.ID         `db:"id" json:"id"`
	OrderID   id.ID         `db:"order_id" json:"order"`
	Amount    types.Money   `db:"amount" json:"amount"`
	Method    string        `db:"method" json:"method"`
	Status    SessionStatus `db:"status" json:"status"`
	GatewayID string        `db:"gateway_id" json:"gatewayId,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `db:"updated_at" json:"updatedAt"`
	ExpiresAt time.Time     `db:"expires_at" json:"expiresAt"`
}

// Validate checks session invariants.
func (s *Session) Validate(ctx context.Context) error {
	if id.IsNil(s.OrderID) {
		return apperror.NewValidation("order is required").WithDetail("field", "order")
	}
	if s.Amount.IsNegative() || s.Amount.IsZero() {
		return apperror.NewValidation("amount must be positive").WithDetail("field", "amount")
	}
	if s.Method == "" {
		return apperror.NewValidation("payment method is required").WithDetail("field", "method")
	}
	return nil
}

// IsExpired reports whether the session's TTL has elapsed.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
