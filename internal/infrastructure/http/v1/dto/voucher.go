package dto

import (
	"shopcore/internal/core/id"
	"shopcore/internal/core/types"
	"shopcore/internal/domain/documents/voucher"
)

// VoucherLineRequest represents one item in a voucher request.
type VoucherLineRequest struct {
	ProductID string      `json:"product" binding:"required"`
	Quantity  int64       `json:"quantity" binding:"required,gt=0"`
	CostPrice types.Money `json:"costPrice"`
	Note      string      `json:"note,omitempty"`
}

// CreateVoucherRequest represents a request to create a voucher.
type CreateVoucherRequest struct {
	Type   string               `json:"type" binding:"required,oneof=import export"`
	Reason string               `json:"reason" binding:"required"`
	Notes  string               `json:"notes,omitempty"`
	Items  []VoucherLineRequest `json:"items" binding:"required,min=1,dive"`
}

// ToEntity converts the request to a domain entity. Invalid product IDs
// become nil IDs which the domain validation rejects.
func (r *CreateVoucherRequest) ToEntity() *voucher.Voucher {
	v := voucher.New(voucher.Type(r.Type))
	v.Reason = r.Reason
	v.Notes = r.Notes
	v.Lines = toVoucherLines(r.Items)
	return v
}

// UpdateVoucherRequest replaces the content of a pending voucher.
type UpdateVoucherRequest struct {
	Reason string               `json:"reason" binding:"required"`
	Notes  string               `json:"notes,omitempty"`
	Items  []VoucherLineRequest `json:"items" binding:"required,min=1,dive"`
}

// Lines converts the request items to domain lines.
func (r *UpdateVoucherRequest) Lines() []voucher.Line {
	return toVoucherLines(r.Items)
}

func toVoucherLines(items []VoucherLineRequest) []voucher.Line {
	lines := make([]voucher.Line, 0, len(items))
	for _, it := range items {
		productID, _ := id.Parse(it.ProductID)
		lines = append(lines, voucher.Line{
			ProductID: productID,
			Quantity:  it.Quantity,
			CostPrice: it.CostPrice,
			Note:      it.Note,
		})
	}
	return lines
}

// RejectVoucherRequest carries the mandatory rejection reason.
type RejectVoucherRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// VoucherFromOrderRequest creates an export voucher from a completed order.
type VoucherFromOrderRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Reason  string `json:"reason,omitempty"`
}
