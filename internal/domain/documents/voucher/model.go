// Package voucher provides inventory vouchers: import vouchers (PN) that
// bring stock in and export vouchers (PX) that take stock out. A voucher is
// a request until approved; only approval moves stock.
package voucher

import (
	"context"
	"time"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/entity"
	"shopcore/internal/core/id"
	"shopcore/internal/core/types"
)

// Type discriminates stock direction.
type Type string

const (
	TypeImport Type = "import"
	TypeExport Type = "export"
)

// Status is the voucher workflow state. pending is the only non-terminal
// state; approved, rejected and cancelled are all terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Line is one product position on a voucher.
type Line struct {
	// LineID identifies the line within its voucher
	LineID id.ID `db:"line_id" json:"lineId"`

	ProductID id.ID `db:"product_id" json:"product"`

	// ProductName is snapshotted at creation time
	ProductName string `db:"product_name" json:"productName"`

	// Quantity is always positive; direction comes from the voucher type
	Quantity int64 `db:"quantity" json:"quantity"`

	// CostPrice is the per-unit value used for the voucher total
	CostPrice types.Money `db:"cost_price" json:"costPrice"`

	Note string `db:"note" json:"note,omitempty"`
}

// Voucher is a stock movement document.
type Voucher struct {
	entity.Base

	// Number is PN{YYYYMMDD}{seq:3} for imports, PX{YYYYMMDD}{seq:3} for exports
	Number string `db:"number" json:"voucherNumber"`

	Type   Type   `db:"type" json:"type"`
	Status Status `db:"status" json:"status"`

	Reason string `db:"reason" json:"reason"`
	Notes  string `db:"notes" json:"notes,omitempty"`

	// TotalValue is the sum of quantity*costPrice over the lines
	TotalValue types.Money `db:"total_value" json:"totalValue"`

	// OrderID links an auto-created export voucher to its completed order
	OrderID *id.ID `db:"order_id" json:"relatedOrder,omitempty"`

	ApprovedBy *string    `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `db:"approved_at" json:"approvedAt,omitempty"`

	RejectedBy      *string    `db:"rejected_by" json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `db:"rejected_at" json:"rejectedAt,omitempty"`
	RejectionReason string     `db:"rejection_reason" json:"rejectionReason,omitempty"`

	Lines []Line `db:"-" json:"items"`
}

// New creates a pending voucher shell with a fresh base.
func New(t Type) *Voucher {
	return &Voucher{
		Base:   entity.NewBase(),
		Type:   t,
		Status: StatusPending,
	}
}

// ComputeTotalValue sums quantity*costPrice over the lines.
func ComputeTotalValue(lines []Line) types.Money {
	total := types.Zero()
	for _, l := range lines {
		total = total.Add(l.CostPrice.Mul(types.MoneyFromInt(l.Quantity)))
	}
	return total
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// CanModify reports whether the voucher content may still change.
// Only pending vouchers are editable.
func (v *Voucher) CanModify() bool {
	return v.Status == StatusPending
}

// Validate implements entity.Validatable.
func (v *Voucher) Validate(ctx context.Context) error {
	if v.Type != TypeImport && v.Type != TypeExport {
		return apperror.NewValidation("type must be import or export").
			WithDetail("field", "type")
	}
	if v.Reason == "" {
		return apperror.NewValidation("reason is required").
			WithDetail("field", "reason")
	}
	if len(v.Lines) == 0 {
		return apperror.NewValidation("voucher must have at least one item").
			WithDetail("field", "items")
	}
	seen := make(map[id.ID]struct{}, len(v.Lines))
	for i, l := range v.Lines {
		if id.IsNil(l.ProductID) {
			return apperror.NewValidation("item product is required").
				WithDetail("line", i)
		}
		if l.Quantity <= 0 {
			return apperror.NewValidation("item quantity must be positive").
				WithDetail("line", i).
				WithDetail("product_id", l.ProductID.String())
		}
		if l.CostPrice.IsNegative() {
			return apperror.NewValidation("item cost price must not be negative").
				WithDetail("line", i).
				WithDetail("product_id", l.ProductID.String())
		}
		if _, dup := seen[l.ProductID]; dup {
			return apperror.NewValidation("duplicate product in items").
				WithDetail("line", i).
				WithDetail("product_id", l.ProductID.String())
		}
		seen[l.ProductID] = struct{}{}
	}
	return nil
}
