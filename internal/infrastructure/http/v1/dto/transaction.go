package dto

import (
	"shopcore/internal/core/id"
	"shopcore/internal/core/types"
	"shopcore/internal/domain/finance"
)

// CreateTransactionRequest represents a manual ledger posting.
type CreateTransactionRequest struct {
	Type          string      `json:"type" binding:"required,oneof=income expense"`
	Category      string      `json:"category" binding:"required,oneof=order stock"`
	Amount        types.Money `json:"amount" binding:"required"`
	Description   string      `json:"description" binding:"required"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	OrderID       string      `json:"relatedOrder,omitempty"`
	VoucherID     string      `json:"relatedVoucher,omitempty"`
	CustomerID    string      `json:"relatedCustomer,omitempty"`
}

// ToEntity converts the request to a domain entity.
func (r *CreateTransactionRequest) ToEntity() *finance.Transaction {
	t := &finance.Transaction{
		Type:          finance.TxnType(r.Type),
		Category:      finance.Category(r.Category),
		Amount:        r.Amount,
		Description:   r.Description,
		PaymentMethod: r.PaymentMethod,
	}
	if r.OrderID != "" {
		if oid, err := id.Parse(r.OrderID); err == nil {
			t.OrderID = &oid
		}
	}
	if r.VoucherID != "" {
		if vid, err := id.Parse(r.VoucherID); err == nil {
			t.VoucherID = &vid
		}
	}
	if r.CustomerID != "" {
		customerID := r.CustomerID
		t.CustomerID = &customerID
	}
	return t
}
