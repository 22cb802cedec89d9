package product

import (
	"context"

	"shopcore/internal/core/id"
	"shopcore/internal/domain"
)

// Repository defines persistence operations for products.
type Repository interface {
	Create(ctx context.Context, p *Product) error

	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	// GetByIDs retrieves several products at once. Missing IDs are simply
	// absent from the result; callers decide whether that is an error.
	GetByIDs(ctx context.Context, productIDs []id.ID) (map[id.ID]*Product, error)

	// GetForUpdate retrieves a product with a row lock. Must be called inside
	// a transaction; the stock register uses it to serialize quantity
	// read-modify-write cycles.
	GetForUpdate(ctx context.Context, productID id.ID) (*Product, error)

	// Update modifies catalog fields with optimistic locking.
	// Quantity is excluded; it changes only through SetQuantity.
	Update(ctx context.Context, p *Product) error

	// SetQuantity writes the new stock level. Reserved to the stock register.
	SetQuantity(ctx context.Context, productID id.ID, quantity int64) error

	// Delete soft-deletes a product.
	Delete(ctx context.Context, productID id.ID) error

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)
}
