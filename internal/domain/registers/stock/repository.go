package stock

import (
	"context"
	"time"

	"shopcore/internal/core/id"
	"shopcore/internal/domain"
)

// Repository defines persistence operations for the stock history.
// The history table is append-only: no update or delete methods exist.
type Repository interface {
	// Append inserts one history entry.
	Append(ctx context.Context, entry *HistoryEntry) error

	// ListByProduct returns history for a product, newest first.
	ListByProduct(ctx context.Context, productID id.ID, filter HistoryFilter) ([]*HistoryEntry, error)

	// ListByVoucher returns the entries created by a voucher approval.
	ListByVoucher(ctx context.Context, voucherID id.ID) ([]*HistoryEntry, error)

	// List returns paged history across all products.
	List(ctx context.Context, filter HistoryFilter) (domain.ListResult[*HistoryEntry], error)
}

// HistoryFilter narrows history queries.
type HistoryFilter struct {
	VoucherType *string
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
	Offset      int
}
