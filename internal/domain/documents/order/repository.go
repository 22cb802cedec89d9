package order

import (
	"context"
	"time"

	"shopcore/internal/core/id"
	"shopcore/internal/domain"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	// Create inserts the order, its items and the shipping address.
	Create(ctx context.Context, o *Order) error

	// GetByID retrieves an order with items.
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)

	// GetByIDForUpdate retrieves an order with items, locking the order row.
	// Must be called inside a transaction.
	GetByIDForUpdate(ctx context.Context, orderID id.ID) (*Order, error)

	// Update persists header fields (status, payment) with optimistic
	// locking. Items never change after creation.
	Update(ctx context.Context, o *Order) error

	// List returns paged orders matching the filter, newest first.
	List(ctx context.Context, filter Filter) (domain.ListResult[*Order], error)
}

// Filter narrows order list queries.
type Filter struct {
	UserID   string
	Status   *Status
	IsPaid   *bool
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
