package payment

import (
	"context"
	"time"

	"shopcore/internal/core/id"
)

// Repository defines persistence operations for payment sessions.
type Repository interface {
	// Create inserts a session.
	Create(ctx context.Context, s *Session) error

	// GetByID retrieves a session.
	GetByID(ctx context.Context, sessionID id.ID) (*Session, error)

	// GetOpenByOrder returns the open session for an order, if any.
	GetOpenByOrder(ctx context.Context, orderID id.ID) (*Session, error)

	// Update persists status and gateway fields.
	Update(ctx context.Context, s *Session) error

	// ExpireStale marks every open session whose TTL elapsed before `cutoff`
	// as expired. Returns the number of sessions expired.
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}
