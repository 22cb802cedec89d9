package stock

import (
	"context"
	"fmt"
	"time"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/id"
	"shopcore/internal/domain"
	"shopcore/internal/domain/catalogs/product"
	"shopcore/pkg/logger"
)

// Service owns product quantity mutation. Every change goes through
// ApplyDelta; nothing else in the codebase writes Product.Quantity.
type Service struct {
	products product.Repository
	history  Repository
}

// NewService creates a new stock register service.
func NewService(products product.Repository, history Repository) *Service {
	return &Service{
		products: products,
		history:  history,
	}
}

// ApplyDelta mutates a product's quantity and appends one immutable history
// entry. Must be called inside the caller's transaction: the product row is
// locked for the read-modify-write so concurrent approvals serialize.
//
// The non-negative invariant is re-checked here even when the caller already
// validated stock sufficiency; the pre-check reads without a lock and can
// lose a race.
//
// Does not post financial transactions - that is the caller's concern.
func (s *Service) ApplyDelta(ctx context.Context, d Delta) (*HistoryEntry, error) {
	if d.Quantity == 0 {
		return nil, apperror.NewValidation("quantity change must not be zero").
			WithDetail("product_id", d.ProductID.String())
	}
	if id.IsNil(d.VoucherID) {
		return nil, apperror.NewValidation("causing voucher is required")
	}

	p, err := s.products.GetForUpdate(ctx, d.ProductID)
	if err != nil {
		return nil, fmt.Errorf("lock product %s: %w", d.ProductID, err)
	}

	before := p.Quantity
	after := before + d.Quantity
	if after < 0 {
		return nil, apperror.NewNegativeStock(d.ProductID.String(), before, d.Quantity)
	}

	if err := s.products.SetQuantity(ctx, p.ID, after); err != nil {
		return nil, fmt.Errorf("set quantity: %w", err)
	}

	entry := &HistoryEntry{
		ID:             id.New(),
		ProductID:      p.ID,
		ProductName:    p.Name,
		VoucherType:    d.VoucherType,
		QuantityBefore: before,
		QuantityChange: d.Quantity,
		QuantityAfter:  after,
		VoucherID:      d.VoucherID,
		VoucherNumber:  d.VoucherNumber,
		OrderID:        d.OrderID,
		Reason:         d.Reason,
		CreatedBy:      d.Actor,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.history.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}

	logger.Info(ctx, "stock delta applied",
		"product_id", p.ID,
		"change", d.Quantity,
		"after", after,
		"voucher", d.VoucherNumber,
	)

	return entry, nil
}

// ProductHistory returns the change history for one product, newest first.
func (s *Service) ProductHistory(ctx context.Context, productID id.ID, filter HistoryFilter) ([]*HistoryEntry, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.history.ListByProduct(ctx, productID, filter)
}

// VoucherHistory returns the entries created by one voucher approval.
func (s *Service) VoucherHistory(ctx context.Context, voucherID id.ID) ([]*HistoryEntry, error) {
	return s.history.ListByVoucher(ctx, voucherID)
}

// History returns paged history across all products.
func (s *Service) History(ctx context.Context, filter HistoryFilter) (domain.ListResult[*HistoryEntry], error) {
	return s.history.List(ctx, filter)
}
