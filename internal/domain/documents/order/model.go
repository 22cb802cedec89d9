// Package order provides customer orders: creation, payment marking and the
// fulfillment lifecycle that feeds the finance ledger and stock exports.
package order

import (
	"context"
	"time"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/entity"
	"shopcore/internal/core/id"
	"shopcore/internal/core/types"
)

// Status is the fulfillment state. completed and cancelled are terminal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// validTransitions maps each status to the statuses reachable from it.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// KnownStatus reports whether s is a recognized status value.
func KnownStatus(s Status) bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// Item is one product position on an order. Name and price are snapshotted
// at order time so later catalog edits do not rewrite history.
type Item struct {
	ProductID id.ID       `db:"product_id" json:"product"`
	Name      string      `db:"name" json:"name"`
	Price     types.Money `db:"price" json:"price"`
	Quantity  int64       `db:"quantity" json:"quantity"`
}

// ShippingAddress is the delivery destination.
type ShippingAddress struct {
	Address    string `db:"address" json:"address"`
	City       string `db:"city" json:"city"`
	PostalCode string `db:"postal_code" json:"postalCode"`
	Country    string `db:"country" json:"country"`
}

// PaymentResult carries the gateway's confirmation details.
type PaymentResult struct {
	ID         string `db:"payment_id" json:"id"`
	Status     string `db:"payment_status" json:"status"`
	UpdateTime string `db:"payment_update_time" json:"updateTime"`
}

// Order is a customer order document.
type Order struct {
	entity.Base

	UserID string `db:"user_id" json:"user"`

	Items []Item `db:"-" json:"orderItems"`

	ShippingAddress ShippingAddress `db:"-" json:"shippingAddress"`

	PaymentMethod string         `db:"payment_method" json:"paymentMethod"`
	PaymentResult *PaymentResult `db:"-" json:"paymentResult,omitempty"`

	TotalPrice types.Money `db:"total_price" json:"totalPrice"`

	// IsPaid is independent of Status and flips false to true exactly once
	IsPaid bool       `db:"is_paid" json:"isPaid"`
	PaidAt *time.Time `db:"paid_at" json:"paidAt,omitempty"`

	Status Status `db:"status" json:"status"`
}

// New creates a pending unpaid order shell.
func New(userID string) *Order {
	return &Order{
		Base:   entity.NewBase(),
		UserID: userID,
		Status: StatusPending,
	}
}

// ComputeTotalPrice sums price*quantity over the items.
func ComputeTotalPrice(items []Item) types.Money {
	total := types.Zero()
	for _, it := range items {
		total = total.Add(it.Price.Mul(types.MoneyFromInt(it.Quantity)))
	}
	return total
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if o.UserID == "" {
		return apperror.NewValidation("order user is required").
			WithDetail("field", "user")
	}
	if len(o.Items) == 0 {
		return apperror.NewValidation("order must have at least one item").
			WithDetail("field", "orderItems")
	}
	for i, it := range o.Items {
		if id.IsNil(it.ProductID) {
			return apperror.NewValidation("item product is required").
				WithDetail("line", i)
		}
		if it.Quantity <= 0 {
			return apperror.NewValidation("item quantity must be positive").
				WithDetail("line", i).
				WithDetail("product_id", it.ProductID.String())
		}
		if it.Price.IsNegative() {
			return apperror.NewValidation("item price must not be negative").
				WithDetail("line", i).
				WithDetail("product_id", it.ProductID.String())
		}
	}
	if o.ShippingAddress.Address == "" || o.ShippingAddress.City == "" {
		return apperror.NewValidation("shipping address and city are required").
			WithDetail("field", "shippingAddress")
	}
	if o.PaymentMethod == "" {
		return apperror.NewValidation("payment method is required").
			WithDetail("field", "paymentMethod")
	}
	return nil
}
