// Package product provides the product catalog.
package product

import (
	"context"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/entity"
	"shopcore/internal/core/types"
)

// Product represents a sellable item.
//
// Quantity is the single source of truth for current stock and is mutated
// exclusively through the stock register's ApplyDelta; workflow code never
// writes it directly.
type Product struct {
	entity.Base

	Name        string  `db:"name" json:"name"`
	SKU         *string `db:"sku" json:"sku,omitempty"`
	Description *string `db:"description" json:"description,omitempty"`

	// Quantity is the current stock level, never negative
	Quantity int64 `db:"quantity" json:"quantity"`

	// CostPrice is the unit cost (purchase price)
	CostPrice types.Money `db:"cost_price" json:"costPrice"`

	// Price is the unit selling price
	Price types.Money `db:"price" json:"price"`
}

// New creates a product with generated ID.
func New(name string, quantity int64, costPrice, price types.Money) *Product {
	return &Product{
		Base:      entity.NewBase(),
		Name:      name,
		Quantity:  quantity,
		CostPrice: costPrice,
		Price:     price,
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if p.Quantity < 0 {
		return apperror.NewValidation("quantity must not be negative").
			WithDetail("field", "quantity")
	}
	if p.CostPrice.IsNegative() {
		return apperror.NewValidation("cost price must not be negative").
			WithDetail("field", "costPrice")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("price must not be negative").
			WithDetail("field", "price")
	}
	return nil
}
