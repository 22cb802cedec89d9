package voucher

import (
	"context"
	"fmt"
	"time"

	"shopcore/internal/core/apperror"
	shopcontext "shopcore/internal/core/context"
	"shopcore/internal/core/entity"
	"shopcore/internal/core/id"
	"shopcore/internal/core/numerator"
	"shopcore/internal/core/tx"
	"shopcore/internal/core/types"
	"shopcore/internal/domain"
	"shopcore/internal/domain/catalogs/product"
	"shopcore/internal/domain/registers/stock"
	"shopcore/pkg/logger"
)

// OrderItem is the slice of an order a voucher line is built from.
type OrderItem struct {
	ProductID id.ID
	Name      string
	Quantity  int64
}

// OrderInfo is the order view the voucher workflow needs.
type OrderInfo struct {
	ID     id.ID
	Status string
	Items  []OrderItem
}

// OrderSource provides read access to orders for export voucher creation.
// Implemented by the order module; declared here to keep the dependency
// one-way (orders import vouchers, not the reverse).
type OrderSource interface {
	GetOrderInfo(ctx context.Context, orderID id.ID) (*OrderInfo, error)
}

// ExpensePoster records the stock expense for an approved voucher.
// Implemented by the finance module.
type ExpensePoster interface {
	PostVoucherExpense(ctx context.Context, voucherID id.ID, voucherNumber string, amount types.Money, actor string) error
}

// Service provides business operations for vouchers.
type Service struct {
	repo      Repository
	products  product.Repository
	stock     *stock.Service
	numbers   numerator.Generator
	txManager tx.Manager
	expenses  ExpensePoster
	orders    OrderSource
	auditor   domain.Auditor
}

// NewService creates a new voucher service. The order source is optional and
// wired later via SetOrderSource because orders are constructed after
// vouchers.
func NewService(
	repo Repository,
	products product.Repository,
	stockSvc *stock.Service,
	numbers numerator.Generator,
	txManager tx.Manager,
	expenses ExpensePoster,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		stock:     stockSvc,
		numbers:   numbers,
		txManager: txManager,
		expenses:  expenses,
		auditor:   domain.NopAuditor{},
	}
}

// SetOrderSource wires the order read dependency.
func (s *Service) SetOrderSource(src OrderSource) {
	s.orders = src
}

// SetAuditor wires the audit log.
func (s *Service) SetAuditor(a domain.Auditor) {
	s.auditor = a
}

func (s *Service) audit(ctx context.Context, v *Voucher, action string, changes map[string]any) {
	domain.AttemptAuxiliary(ctx, "voucher audit", func(ctx context.Context) error {
		return s.auditor.Record(ctx, "voucher", v.ID, action, changes)
	})
}

func numberingForType(t Type) numerator.Config {
	if t == TypeExport {
		return numerator.ExportVoucher
	}
	return numerator.ImportVoucher
}

// resolveLines checks that every line references an existing product,
// snapshots product names and defaults cost prices from the catalog.
func (s *Service) resolveLines(ctx context.Context, lines []Line) (map[id.ID]*product.Product, error) {
	ids := make([]id.ID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	for i := range lines {
		p, ok := products[lines[i].ProductID]
		if !ok {
			return nil, apperror.NewNotFound("product", lines[i].ProductID.String())
		}
		lines[i].ProductName = p.Name
		if lines[i].CostPrice.IsZero() {
			lines[i].CostPrice = p.CostPrice
		}
		if id.IsNil(lines[i].LineID) {
			lines[i].LineID = id.New()
		}
	}
	return products, nil
}

// checkExportStock collects every line whose requested quantity exceeds the
// available stock. Returns an error enumerating all shortages at once so the
// caller can fix the whole voucher in one pass.
func checkExportStock(lines []Line, products map[id.ID]*product.Product) error {
	var shortages []apperror.StockShortage
	for _, l := range lines {
		p := products[l.ProductID]
		if p == nil {
			continue
		}
		if l.Quantity > p.Quantity {
			shortages = append(shortages, apperror.StockShortage{
				ProductID:   l.ProductID.String(),
				ProductName: p.Name,
				Requested:   l.Quantity,
				Available:   p.Quantity,
			})
		}
	}
	if len(shortages) > 0 {
		return apperror.NewInsufficientStock(shortages)
	}
	return nil
}

// Create creates a pending voucher. Export vouchers get an advisory stock
// check so obviously unfillable requests fail fast; approval re-checks under
// lock regardless.
func (s *Service) Create(ctx context.Context, v *Voucher) error {
	v.Base = entity.NewBase()
	v.Status = StatusPending
	actor := shopcontext.GetUserID(ctx)
	v.CreatedBy = actor
	v.UpdatedBy = actor

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		products, err := s.resolveLines(ctx, v.Lines)
		if err != nil {
			return err
		}
		if err := v.Validate(ctx); err != nil {
			return err
		}
		if v.Type == TypeExport {
			if err := checkExportStock(v.Lines, products); err != nil {
				return err
			}
		}

		v.TotalValue = ComputeTotalValue(v.Lines)

		number, err := s.numbers.NextNumber(ctx, numberingForType(v.Type), v.CreatedAt)
		if err != nil {
			return fmt.Errorf("next voucher number: %w", err)
		}
		v.Number = number

		if err := s.repo.Create(ctx, v); err != nil {
			return fmt.Errorf("create voucher: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "voucher created",
		"number", v.Number,
		"type", v.Type,
		"lines", len(v.Lines),
		"total", v.TotalValue,
	)
	s.audit(ctx, v, "create", map[string]any{"number": v.Number, "type": v.Type})
	return nil
}

// CreateFromOrder builds an export voucher from a completed order's items.
// Fails with INVALID_ORDER_STATUS unless the order is completed.
func (s *Service) CreateFromOrder(ctx context.Context, orderID id.ID, reason string) (*Voucher, error) {
	if s.orders == nil {
		return nil, apperror.NewInternal(fmt.Errorf("order source not configured"))
	}

	info, err := s.orders.GetOrderInfo(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if info.Status != "completed" {
		return nil, apperror.NewInvalidOrderStatus(orderID.String(), info.Status)
	}
	if len(info.Items) == 0 {
		return nil, apperror.NewValidation("order has no items")
	}

	v := New(TypeExport)
	oid := orderID
	v.OrderID = &oid
	v.Reason = reason
	if v.Reason == "" {
		v.Reason = fmt.Sprintf("Stock export for completed order %s", orderID)
	}
	for _, it := range info.Items {
		v.Lines = append(v.Lines, Line{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	if err := s.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Approve transitions a pending voucher to approved and applies its stock
// movement. An expense transaction for the voucher's total value is posted
// after commit as a best-effort side effect.
func (s *Service) Approve(ctx context.Context, voucherID id.ID) (*Voucher, error) {
	actor := shopcontext.GetUserID(ctx)

	var v *Voucher
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		v, err = s.repo.GetByIDForUpdate(ctx, voucherID)
		if err != nil {
			return err
		}
		if v.Status != StatusPending {
			return apperror.NewInvalidTransition("voucher", string(v.Status), "approve")
		}

		if v.Type == TypeExport {
			// aggregate check before applying so the caller sees every
			// shortage, not just the first line that fails
			ids := make([]id.ID, 0, len(v.Lines))
			for _, l := range v.Lines {
				ids = append(ids, l.ProductID)
			}
			products, err := s.products.GetByIDs(ctx, ids)
			if err != nil {
				return fmt.Errorf("load products: %w", err)
			}
			if err := checkExportStock(v.Lines, products); err != nil {
				return err
			}
		}

		sign := int64(1)
		if v.Type == TypeExport {
			sign = -1
		}
		for _, l := range v.Lines {
			_, err := s.stock.ApplyDelta(ctx, stock.Delta{
				ProductID:     l.ProductID,
				Quantity:      sign * l.Quantity,
				VoucherType:   string(v.Type),
				VoucherID:     v.ID,
				VoucherNumber: v.Number,
				OrderID:       v.OrderID,
				Reason:        v.Reason,
				Actor:         actor,
			})
			if err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		v.Status = StatusApproved
		v.ApprovedBy = &actor
		v.ApprovedAt = &now
		v.UpdatedBy = actor
		v.Touch()

		if err := s.repo.Update(ctx, v); err != nil {
			return fmt.Errorf("update voucher: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "voucher approved", "number", v.Number, "type", v.Type, "by", actor)
	s.audit(ctx, v, "approve", map[string]any{"number": v.Number, "approved_by": actor})

	// both directions post a stock expense: imports at purchase value,
	// exports at cost value (TotalValue is cost-price based for both)
	if s.expenses != nil {
		domain.AttemptAuxiliary(ctx, "voucher expense posting", func(ctx context.Context) error {
			return s.expenses.PostVoucherExpense(ctx, v.ID, v.Number, v.TotalValue, actor)
		})
	}

	return v, nil
}

// Reject transitions a pending voucher to rejected. A reason is required.
func (s *Service) Reject(ctx context.Context, voucherID id.ID, reason string) (*Voucher, error) {
	if reason == "" {
		return nil, apperror.NewValidation("rejection reason is required").
			WithDetail("field", "reason")
	}
	actor := shopcontext.GetUserID(ctx)

	var v *Voucher
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		v, err = s.repo.GetByIDForUpdate(ctx, voucherID)
		if err != nil {
			return err
		}
		if v.Status != StatusPending {
			return apperror.NewInvalidTransition("voucher", string(v.Status), "reject")
		}

		now := time.Now().UTC()
		v.Status = StatusRejected
		v.RejectedBy = &actor
		v.RejectedAt = &now
		v.RejectionReason = reason
		v.UpdatedBy = actor
		v.Touch()

		return s.repo.Update(ctx, v)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "voucher rejected", "number", v.Number, "reason", reason)
	s.audit(ctx, v, "reject", map[string]any{"number": v.Number, "reason": reason})
	return v, nil
}

// Cancel transitions a pending voucher to cancelled. Approved vouchers cannot
// be cancelled; a compensating voucher in the opposite direction reverses
// their effect instead.
func (s *Service) Cancel(ctx context.Context, voucherID id.ID) (*Voucher, error) {
	actor := shopcontext.GetUserID(ctx)

	var v *Voucher
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		v, err = s.repo.GetByIDForUpdate(ctx, voucherID)
		if err != nil {
			return err
		}
		if v.Status != StatusPending {
			return apperror.NewInvalidTransition("voucher", string(v.Status), "cancel")
		}

		v.Status = StatusCancelled
		v.UpdatedBy = actor
		v.Touch()

		return s.repo.Update(ctx, v)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "voucher cancelled", "number", v.Number)
	s.audit(ctx, v, "cancel", map[string]any{"number": v.Number})
	return v, nil
}

// Update replaces the content of a pending voucher and recomputes its total.
// The number, type and status never change here.
func (s *Service) Update(ctx context.Context, voucherID id.ID, reason, notes string, lines []Line) (*Voucher, error) {
	actor := shopcontext.GetUserID(ctx)

	var v *Voucher
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		v, err = s.repo.GetByIDForUpdate(ctx, voucherID)
		if err != nil {
			return err
		}
		if !v.CanModify() {
			return apperror.NewInvalidTransition("voucher", string(v.Status), "update")
		}

		v.Reason = reason
		v.Notes = notes
		v.Lines = lines

		products, err := s.resolveLines(ctx, v.Lines)
		if err != nil {
			return err
		}
		if err := v.Validate(ctx); err != nil {
			return err
		}
		if v.Type == TypeExport {
			if err := checkExportStock(v.Lines, products); err != nil {
				return err
			}
		}

		v.TotalValue = ComputeTotalValue(v.Lines)
		v.UpdatedBy = actor
		v.Touch()

		return s.repo.Update(ctx, v)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Delete soft-deletes a pending voucher.
func (s *Service) Delete(ctx context.Context, voucherID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		v, err := s.repo.GetByIDForUpdate(ctx, voucherID)
		if err != nil {
			return err
		}
		if !v.CanModify() {
			return apperror.NewInvalidTransition("voucher", string(v.Status), "delete")
		}
		return s.repo.Delete(ctx, voucherID)
	})
}

// GetByID retrieves a voucher with lines.
func (s *Service) GetByID(ctx context.Context, voucherID id.ID) (*Voucher, error) {
	return s.repo.GetByID(ctx, voucherID)
}

// List retrieves vouchers with filtering and pagination.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*Voucher], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}
