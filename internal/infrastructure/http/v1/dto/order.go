package dto

import (
	"shopcore/internal/core/id"
	"shopcore/internal/core/types"
	"shopcore/internal/domain/documents/order"
)

// OrderItemRequest represents one item in an order request.
type OrderItemRequest struct {
	ProductID string      `json:"product" binding:"required"`
	Quantity  int64       `json:"quantity" binding:"required,gt=0"`
	Price     types.Money `json:"price"`
}

// ShippingAddressRequest is the delivery destination.
type ShippingAddressRequest struct {
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// CreateOrderRequest represents a request to create an order.
type CreateOrderRequest struct {
	Items           []OrderItemRequest     `json:"orderItems" binding:"required,min=1,dive"`
	ShippingAddress ShippingAddressRequest `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"required"`
}

// ToEntity converts the request to a domain entity. The user comes from the
// request context, not the payload.
func (r *CreateOrderRequest) ToEntity() *order.Order {
	o := order.New("")
	o.PaymentMethod = r.PaymentMethod
	o.ShippingAddress = order.ShippingAddress{
		Address:    r.ShippingAddress.Address,
		City:       r.ShippingAddress.City,
		PostalCode: r.ShippingAddress.PostalCode,
		Country:    r.ShippingAddress.Country,
	}
	for _, it := range r.Items {
		productID, _ := id.Parse(it.ProductID)
		o.Items = append(o.Items, order.Item{
			ProductID: productID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return o
}

// PayOrderRequest carries the gateway confirmation for direct payment marking.
type PayOrderRequest struct {
	ID         string `json:"id,omitempty"`
	Status     string `json:"status,omitempty"`
	UpdateTime string `json:"updateTime,omitempty"`
}

// ToPaymentResult converts the request to the domain payment result.
func (r *PayOrderRequest) ToPaymentResult() *order.PaymentResult {
	if r.ID == "" && r.Status == "" && r.UpdateTime == "" {
		return nil
	}
	return &order.PaymentResult{
		ID:         r.ID,
		Status:     r.Status,
		UpdateTime: r.UpdateTime,
	}
}

// SetOrderStatusRequest moves the order along its lifecycle.
type SetOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
