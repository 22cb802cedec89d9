// Package stock provides the stock register: product quantity mutation and
// the append-only history of every quantity change.
package stock

import (
	"time"

	"shopcore/internal/core/id"
)

// HistoryEntry is an immutable audit record of one quantity change.
// Entries are created once, at voucher approval time, and never updated
// or deleted.
type HistoryEntry struct {
	ID id.ID `db:"id" json:"id"`

	ProductID id.ID `db:"product_id" json:"product"`

	// ProductName is snapshotted at mutation time so history stays readable
	// after catalog renames
	ProductName string `db:"product_name" json:"productName"`

	// VoucherType is "import" or "export"
	VoucherType string `db:"voucher_type" json:"voucherType"`

	QuantityBefore int64 `db:"quantity_before" json:"quantityBefore"`

	// QuantityChange is signed: positive for import, negative for export
	QuantityChange int64 `db:"quantity_change" json:"quantityChange"`

	QuantityAfter int64 `db:"quantity_after" json:"quantityAfter"`

	// Causing voucher
	VoucherID     id.ID  `db:"voucher_id" json:"voucher"`
	VoucherNumber string `db:"voucher_number" json:"voucherNumber"`

	// Related order, when the voucher was derived from one
	OrderID *id.ID `db:"order_id" json:"relatedOrder,omitempty"`

	Reason string `db:"reason" json:"reason,omitempty"`

	CreatedBy string    `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Delta describes one requested quantity change.
type Delta struct {
	ProductID id.ID

	// Quantity is signed: +import, −export
	Quantity int64

	VoucherType   string
	VoucherID     id.ID
	VoucherNumber string
	OrderID       *id.ID
	Reason        string
	Actor         string
}
