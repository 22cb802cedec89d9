package dto

import (
	"shopcore/internal/core/types"
	"shopcore/internal/domain/catalogs/product"
)

// CreateProductRequest represents a request to create a product.
type CreateProductRequest struct {
	Name        string      `json:"name" binding:"required"`
	SKU         *string     `json:"sku,omitempty"`
	Description *string     `json:"description,omitempty"`
	Quantity    int64       `json:"quantity" binding:"gte=0"`
	CostPrice   types.Money `json:"costPrice"`
	Price       types.Money `json:"price"`
}

// ToEntity converts the request to a domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.New(r.Name, r.Quantity, r.CostPrice, r.Price)
	p.SKU = r.SKU
	p.Description = r.Description
	return p
}

// UpdateProductRequest represents a partial product update. Quantity is
// absent on purpose: stock moves only through vouchers.
type UpdateProductRequest struct {
	Name        *string      `json:"name,omitempty"`
	SKU         *string      `json:"sku,omitempty"`
	Description *string      `json:"description,omitempty"`
	CostPrice   *types.Money `json:"costPrice,omitempty"`
	Price       *types.Money `json:"price,omitempty"`
}

// ApplyTo applies the update to an existing entity.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.SKU != nil {
		p.SKU = r.SKU
	}
	if r.Description != nil {
		p.Description = r.Description
	}
	if r.CostPrice != nil {
		p.CostPrice = *r.CostPrice
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
}
