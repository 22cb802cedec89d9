package finance

import (
	"context"
	"fmt"
	"time"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/entity"
	"shopcore/internal/core/id"
	"shopcore/internal/core/numerator"
	"shopcore/internal/core/tx"
	"shopcore/internal/core/types"
	"shopcore/internal/domain"
	"shopcore/pkg/logger"
)

// Service provides business operations for the transaction ledger.
type Service struct {
	repo      Repository
	numbers   numerator.Generator
	txManager tx.Manager
}

// NewService creates a new finance service.
func NewService(repo Repository, numbers numerator.Generator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		numbers:   numbers,
		txManager: txManager,
	}
}

func numberingFor(t TxnType) numerator.Config {
	if t == TypeExpense {
		return numerator.ExpenseTxn
	}
	return numerator.IncomeTxn
}

// post mints a number and inserts the entry. Must run inside a transaction.
func (s *Service) post(ctx context.Context, t *Transaction) error {
	if err := t.Validate(ctx); err != nil {
		return err
	}

	if t.TransactionDate.IsZero() {
		t.TransactionDate = time.Now().UTC()
	}
	actor := t.CreatedBy
	t.Base = entity.NewBase()
	t.CreatedBy = actor
	t.UpdatedBy = actor

	number, err := s.numbers.NextNumber(ctx, numberingFor(t.Type), t.TransactionDate)
	if err != nil {
		return fmt.Errorf("next transaction number: %w", err)
	}
	t.Number = number

	if err := s.repo.Create(ctx, t); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	logger.Info(ctx, "transaction posted",
		"number", t.Number,
		"type", t.Type,
		"category", t.Category,
		"amount", t.Amount,
		"auto", t.AutoCreated,
	)
	return nil
}

// Post records a manual ledger entry in its own transaction.
func (s *Service) Post(ctx context.Context, t *Transaction) error {
	t.AutoCreated = false
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.post(ctx, t)
	})
}

// PostOrderIncome records the income entry for an order payment. It is the
// at-most-once guard for payment income: if an auto-created income entry for
// the order already exists nothing is posted and (false, nil) is returned.
//
// Must run inside the caller's transaction alongside the order state change,
// so the existence check and the insert are atomic.
func (s *Service) PostOrderIncome(ctx context.Context, orderID id.ID, amount types.Money, paymentMethod, actor string) (bool, error) {
	exists, err := s.repo.ExistsAutoIncomeForOrder(ctx, orderID)
	if err != nil {
		return false, fmt.Errorf("check order income: %w", err)
	}
	if exists {
		logger.Debug(ctx, "order income already posted", "order_id", orderID)
		return false, nil
	}

	oid := orderID
	t := &Transaction{
		Type:          TypeIncome,
		Category:      CategoryOrder,
		Amount:        amount,
		Description:   fmt.Sprintf("Payment received for order %s", orderID),
		PaymentMethod: paymentMethod,
		OrderID:       &oid,
		AutoCreated:   true,
	}
	t.CreatedBy = actor
	if err := s.post(ctx, t); err != nil {
		return false, err
	}
	return true, nil
}

// PostVoucherExpense records the expense entry for an approved voucher.
// Runs in its own transaction: it is invoked after the approval commits, as a
// soft side effect whose failure must not undo the approval.
func (s *Service) PostVoucherExpense(ctx context.Context, voucherID id.ID, voucherNumber string, amount types.Money, actor string) error {
	if amount.IsZero() {
		logger.Debug(ctx, "skipping zero-value voucher expense", "voucher", voucherNumber)
		return nil
	}

	vid := voucherID
	t := &Transaction{
		Type:        TypeExpense,
		Category:    CategoryStock,
		Amount:      amount,
		Description: fmt.Sprintf("Stock movement via voucher %s", voucherNumber),
		VoucherID:   &vid,
		AutoCreated: true,
	}
	t.CreatedBy = actor
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.post(ctx, t)
	})
}

// GetByID retrieves a transaction by ID.
func (s *Service) GetByID(ctx context.Context, txnID id.ID) (*Transaction, error) {
	return s.repo.GetByID(ctx, txnID)
}

// List retrieves transactions with filtering and pagination.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*Transaction], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

// Summary aggregates the ledger over the optional date window.
func (s *Service) Summary(ctx context.Context, filter SummaryFilter) (*Summary, error) {
	if filter.FromDate != nil && filter.ToDate != nil && filter.ToDate.Before(*filter.FromDate) {
		return nil, apperror.NewValidation("toDate must not be before fromDate")
	}

	sum, err := s.repo.Summarize(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("summarize transactions: %w", err)
	}

	sum.NetAmount = sum.TotalIncome.Sub(sum.TotalExpense)
	sum.TotalCount = sum.IncomeCount + sum.ExpenseCount
	if sum.TotalCount > 0 {
		total := sum.TotalIncome.Add(sum.TotalExpense)
		sum.AverageTransaction = total.Div(types.MoneyFromInt(sum.TotalCount)).Round(2)
	} else {
		sum.AverageTransaction = types.Zero()
	}
	return sum, nil
}

// CategoryBreakdown returns per-category totals over the optional date window.
func (s *Service) CategoryBreakdown(ctx context.Context, filter SummaryFilter) ([]*CategoryTotal, error) {
	if filter.FromDate != nil && filter.ToDate != nil && filter.ToDate.Before(*filter.FromDate) {
		return nil, apperror.NewValidation("toDate must not be before fromDate")
	}
	return s.repo.CategoryBreakdown(ctx, filter)
}
