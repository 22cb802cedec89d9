package order

import (
	"context"
	"fmt"
	"time"

	"shopcore/internal/core/apperror"
	shopcontext "shopcore/internal/core/context"
	"shopcore/internal/core/entity"
	"shopcore/internal/core/id"
	"shopcore/internal/core/tx"
	"shopcore/internal/core/types"
	"shopcore/internal/domain"
	"shopcore/internal/domain/catalogs/product"
	"shopcore/internal/domain/documents/voucher"
	"shopcore/pkg/logger"
)

// IncomePoster records payment income in the finance ledger. The returned
// bool reports whether an entry was actually posted; false means one already
// existed for the order. Implemented by the finance module.
type IncomePoster interface {
	PostOrderIncome(ctx context.Context, orderID id.ID, amount types.Money, paymentMethod, actor string) (bool, error)
}

// ExportVoucherCreator builds the stock export voucher for a completed order.
// Implemented by the voucher module.
type ExportVoucherCreator interface {
	CreateFromOrder(ctx context.Context, orderID id.ID, reason string) (*voucher.Voucher, error)
}

// Service provides business operations for orders.
type Service struct {
	repo      Repository
	products  product.Repository
	income    IncomePoster
	vouchers  ExportVoucherCreator
	txManager tx.Manager
	auditor   domain.Auditor
}

// NewService creates a new order service.
func NewService(
	repo Repository,
	products product.Repository,
	income IncomePoster,
	vouchers ExportVoucherCreator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		income:    income,
		vouchers:  vouchers,
		txManager: txManager,
		auditor:   domain.NopAuditor{},
	}
}

// SetAuditor wires the audit log.
func (s *Service) SetAuditor(a domain.Auditor) {
	s.auditor = a
}

func (s *Service) audit(ctx context.Context, o *Order, action string, changes map[string]any) {
	domain.AttemptAuxiliary(ctx, "order audit", func(ctx context.Context) error {
		return s.auditor.Record(ctx, "order", o.ID, action, changes)
	})
}

// Create creates a pending unpaid order. Item names and prices are
// snapshotted from the catalog; an advisory stock check rejects orders that
// obviously cannot be filled. Stock itself does not move here - only an
// approved export voucher moves it.
func (s *Service) Create(ctx context.Context, o *Order) error {
	o.Base = entity.NewBase()
	o.Status = StatusPending
	o.IsPaid = false
	o.PaidAt = nil
	if o.UserID == "" {
		o.UserID = shopcontext.GetUserID(ctx)
	}
	o.CreatedBy = o.UserID
	o.UpdatedBy = o.UserID

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		ids := make([]id.ID, 0, len(o.Items))
		for _, it := range o.Items {
			ids = append(ids, it.ProductID)
		}
		products, err := s.products.GetByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}

		var shortages []apperror.StockShortage
		for i := range o.Items {
			p, ok := products[o.Items[i].ProductID]
			if !ok {
				return apperror.NewNotFound("product", o.Items[i].ProductID.String())
			}
			o.Items[i].Name = p.Name
			if o.Items[i].Price.IsZero() {
				o.Items[i].Price = p.Price
			}
			if o.Items[i].Quantity > p.Quantity {
				shortages = append(shortages, apperror.StockShortage{
					ProductID:   p.ID.String(),
					ProductName: p.Name,
					Requested:   o.Items[i].Quantity,
					Available:   p.Quantity,
				})
			}
		}
		if len(shortages) > 0 {
			return apperror.NewInsufficientStock(shortages)
		}

		if err := o.Validate(ctx); err != nil {
			return err
		}

		o.TotalPrice = ComputeTotalPrice(o.Items)

		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "order created",
		"id", o.ID,
		"user", o.UserID,
		"items", len(o.Items),
		"total", o.TotalPrice,
	)
	s.audit(ctx, o, "create", map[string]any{"total": o.TotalPrice.String(), "items": len(o.Items)})
	return nil
}

// MarkPaid flips the payment flag and records income. Idempotent: paying an
// already-paid order changes nothing and returns the order as is. The income
// posting runs inside the same transaction as the flag flip, guarded by the
// ledger's at-most-once check.
func (s *Service) MarkPaid(ctx context.Context, orderID id.ID, result *PaymentResult) (*Order, error) {
	actor := shopcontext.GetUserID(ctx)

	var o *Order
	var flipped bool
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.IsPaid {
			return nil
		}
		flipped = true
		if o.Status == StatusCancelled {
			return apperror.NewInvalidTransition("order", string(o.Status), "pay")
		}

		now := time.Now().UTC()
		o.IsPaid = true
		o.PaidAt = &now
		o.PaymentResult = result
		o.UpdatedBy = actor
		o.Touch()

		if err := s.repo.Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		posted, err := s.income.PostOrderIncome(ctx, o.ID, o.TotalPrice, o.PaymentMethod, actor)
		if err != nil {
			return err
		}
		if posted {
			logger.Info(ctx, "order income recorded", "order_id", o.ID, "amount", o.TotalPrice)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if flipped {
		s.audit(ctx, o, "pay", map[string]any{"amount": o.TotalPrice.String()})
	}
	return o, nil
}

// SetStatus moves the order along its lifecycle. Unknown statuses fail with
// INVALID_STATUS, forbidden moves and repeats of a terminal status with
// INVALID_TRANSITION; repeating a non-terminal status is a no-op. Moving a paid
// order to processing records income if payment marking missed it; moving to
// completed triggers export voucher creation after commit.
func (s *Service) SetStatus(ctx context.Context, orderID id.ID, next Status) (*Order, error) {
	if !KnownStatus(next) {
		return nil, apperror.NewInvalidStatus(string(next))
	}
	actor := shopcontext.GetUserID(ctx)

	var o *Order
	var changed bool
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status == next {
			// re-setting a terminal status is an error, not a no-op
			if next.IsTerminal() {
				return apperror.NewInvalidTransition("order", string(o.Status), fmt.Sprintf("move to %s", next))
			}
			return nil
		}
		if !CanTransition(o.Status, next) {
			return apperror.NewInvalidTransition("order", string(o.Status), fmt.Sprintf("move to %s", next))
		}

		changed = true
		o.Status = next
		o.UpdatedBy = actor
		o.Touch()

		if err := s.repo.Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		if next == StatusProcessing && o.IsPaid {
			if _, err := s.income.PostOrderIncome(ctx, o.ID, o.TotalPrice, o.PaymentMethod, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !changed {
		return o, nil
	}

	logger.Info(ctx, "order status changed", "order_id", o.ID, "status", o.Status)
	s.audit(ctx, o, "update", map[string]any{"status": o.Status})

	if o.Status == StatusCompleted && s.vouchers != nil {
		domain.AttemptAuxiliary(ctx, "export voucher creation", func(ctx context.Context) error {
			_, err := s.vouchers.CreateFromOrder(ctx, o.ID, "")
			return err
		})
	}

	return o, nil
}

// Cancel cancels an order. Completed orders fail with
// CANNOT_CANCEL_COMPLETED; cancelling a cancelled order is a no-op.
func (s *Service) Cancel(ctx context.Context, orderID id.ID) (*Order, error) {
	actor := shopcontext.GetUserID(ctx)

	var o *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		switch o.Status {
		case StatusCancelled:
			return nil
		case StatusCompleted:
			return apperror.NewCannotCancelCompleted(o.ID.String())
		}

		o.Status = StatusCancelled
		o.UpdatedBy = actor
		o.Touch()

		return s.repo.Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order cancelled", "order_id", o.ID)
	s.audit(ctx, o, "cancel", nil)
	return o, nil
}

// GetByID retrieves an order with items.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// List retrieves orders with filtering and pagination.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*Order], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

// GetOrderInfo implements voucher.OrderSource, giving the voucher workflow
// the order view it needs without a package cycle.
func (s *Service) GetOrderInfo(ctx context.Context, orderID id.ID) (*voucher.OrderInfo, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	info := &voucher.OrderInfo{
		ID:     o.ID,
		Status: string(o.Status),
	}
	for _, it := range o.Items {
		info.Items = append(info.Items, voucher.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
		})
	}
	return info, nil
}
