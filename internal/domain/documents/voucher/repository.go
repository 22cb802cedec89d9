package voucher

import (
	"context"
	"time"

	"shopcore/internal/core/id"
	"shopcore/internal/domain"
)

// Repository defines persistence operations for vouchers and their lines.
type Repository interface {
	// Create inserts the voucher and its lines.
	Create(ctx context.Context, v *Voucher) error

	// GetByID retrieves a voucher with lines.
	GetByID(ctx context.Context, voucherID id.ID) (*Voucher, error)

	// GetByIDForUpdate retrieves a voucher with lines, locking the voucher
	// row. Must be called inside a transaction.
	GetByIDForUpdate(ctx context.Context, voucherID id.ID) (*Voucher, error)

	// Update persists header fields and replaces the lines. Uses optimistic
	// locking on version.
	Update(ctx context.Context, v *Voucher) error

	// Delete soft-deletes the voucher.
	Delete(ctx context.Context, voucherID id.ID) error

	// List returns paged vouchers matching the filter, newest first.
	List(ctx context.Context, filter Filter) (domain.ListResult[*Voucher], error)
}

// Filter narrows voucher list queries.
type Filter struct {
	Type     *Type
	Status   *Status
	OrderID  *id.ID
	Search   string
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
