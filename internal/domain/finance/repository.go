package finance

import (
	"context"
	"time"

	"shopcore/internal/core/id"
	"shopcore/internal/domain"
)

// Repository defines persistence operations for the transaction ledger.
// The ledger is append-only: no update or delete methods exist.
type Repository interface {
	// Create inserts one transaction.
	Create(ctx context.Context, t *Transaction) error

	// GetByID retrieves a transaction by ID.
	GetByID(ctx context.Context, txnID id.ID) (*Transaction, error)

	// List returns paged transactions, newest first.
	List(ctx context.Context, filter Filter) (domain.ListResult[*Transaction], error)

	// ExistsAutoIncomeForOrder reports whether an auto-created income entry
	// already references the order. Used as the at-most-once guard for
	// payment income; must run inside the caller's transaction.
	ExistsAutoIncomeForOrder(ctx context.Context, orderID id.ID) (bool, error)

	// Summarize aggregates amounts and counts over the optional date window.
	Summarize(ctx context.Context, filter SummaryFilter) (*Summary, error)

	// CategoryBreakdown returns per-category income/expense totals over the
	// optional date window.
	CategoryBreakdown(ctx context.Context, filter SummaryFilter) ([]*CategoryTotal, error)
}

// Filter narrows transaction list queries.
type Filter struct {
	Type        *TxnType
	Category    *Category
	OrderID     *id.ID
	VoucherID   *id.ID
	AutoCreated *bool
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
	Offset      int
}

// SummaryFilter bounds aggregation queries.
type SummaryFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
}
