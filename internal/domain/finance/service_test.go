package finance

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/id"
	"shopcore/internal/core/numerator"
	"shopcore/internal/core/types"
	"shopcore/internal/domain"
)

// nopTxManager runs the function directly; unit tests exercise the domain
// logic, not transaction plumbing.
type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeLedger is an in-memory Repository.
type fakeLedger struct {
	entries []*Transaction
}

func (r *fakeLedger) Create(ctx context.Context, t *Transaction) error {
	cp := *t
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *fakeLedger) GetByID(ctx context.Context, txnID id.ID) (*Transaction, error) {
	for _, t := range r.entries {
		if t.ID == txnID {
			return t, nil
		}
	}
	return nil, apperror.NewNotFound("transaction", txnID.String())
}

func (r *fakeLedger) List(ctx context.Context, filter Filter) (domain.ListResult[*Transaction], error) {
	return domain.ListResult[*Transaction]{Items: r.entries, TotalCount: int64(len(r.entries))}, nil
}

func (r *fakeLedger) ExistsAutoIncomeForOrder(ctx context.Context, orderID id.ID) (bool, error) {
	for _, t := range r.entries {
		if t.AutoCreated && t.Type == TypeIncome && t.OrderID != nil && *t.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLedger) Summarize(ctx context.Context, filter SummaryFilter) (*Summary, error) {
	sum := &Summary{
		TotalIncome:  types.Zero(),
		TotalExpense: types.Zero(),
		OrderIncome:  types.Zero(),
		StockExpense: types.Zero(),
	}
	for _, t := range r.entries {
		switch t.Type {
		case TypeIncome:
			sum.TotalIncome = sum.TotalIncome.Add(t.Amount)
			sum.IncomeCount++
			if t.Category == CategoryOrder {
				sum.OrderIncome = sum.OrderIncome.Add(t.Amount)
			}
		case TypeExpense:
			sum.TotalExpense = sum.TotalExpense.Add(t.Amount)
			sum.ExpenseCount++
			if t.Category == CategoryStock {
				sum.StockExpense = sum.StockExpense.Add(t.Amount)
			}
		}
	}
	return sum, nil
}

func (r *fakeLedger) CategoryBreakdown(ctx context.Context, filter SummaryFilter) ([]*CategoryTotal, error) {
	return nil, nil
}

func newTestService() (*Service, *fakeLedger) {
	ledger := &fakeLedger{}
	svc := NewService(ledger, numerator.NewMockGenerator(), nopTxManager{})
	return svc, ledger
}

func TestPost_ManualEntry(t *testing.T) {
	ctx := context.Background()
	svc, ledger := newTestService()

	txn := &Transaction{
		Type:        TypeExpense,
		Category:    CategoryStock,
		Amount:      types.MustMoney("120.50"),
		Description: "Warehouse rent share",
	}
	txn.CreatedBy = "manager-1"

	require.NoError(t, svc.Post(ctx, txn))

	require.Len(t, ledger.entries, 1)
	stored := ledger.entries[0]
	assert.False(t, stored.AutoCreated)
	assert.Equal(t, "manager-1", stored.CreatedBy)
	assert.True(t, strings.HasPrefix(stored.Number, "TX"))
	assert.False(t, stored.TransactionDate.IsZero())
}

func TestPost_ValidationFailures(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	tests := []struct {
		name string
		txn  *Transaction
	}{
		{"bad type", &Transaction{Type: "transfer", Category: CategoryOrder, Amount: types.MustMoney("1"), Description: "x"}},
		{"bad category", &Transaction{Type: TypeIncome, Category: "misc", Amount: types.MustMoney("1"), Description: "x"}},
		{"negative amount", &Transaction{Type: TypeIncome, Category: CategoryOrder, Amount: types.MustMoney("-1"), Description: "x"}},
		{"no description", &Transaction{Type: TypeIncome, Category: CategoryOrder, Amount: types.MustMoney("1")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Post(ctx, tt.txn)
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
		})
	}
}

func TestPostOrderIncome_AtMostOnce(t *testing.T) {
	ctx := context.Background()
	svc, ledger := newTestService()
	orderID := id.New()
	amount := types.MustMoney("199.99")

	posted, err := svc.PostOrderIncome(ctx, orderID, amount, "card", "customer-1")
	require.NoError(t, err)
	assert.True(t, posted)

	// second call is a no-op
	posted, err = svc.PostOrderIncome(ctx, orderID, amount, "card", "customer-1")
	require.NoError(t, err)
	assert.False(t, posted)

	require.Len(t, ledger.entries, 1)
	stored := ledger.entries[0]
	assert.True(t, stored.AutoCreated)
	assert.Equal(t, TypeIncome, stored.Type)
	assert.Equal(t, CategoryOrder, stored.Category)
	assert.True(t, strings.HasPrefix(stored.Number, "TN"))
	require.NotNil(t, stored.OrderID)
	assert.Equal(t, orderID, *stored.OrderID)
	assert.Contains(t, stored.Description, orderID.String())
}

func TestPostOrderIncome_DifferentOrdersPostSeparately(t *testing.T) {
	ctx := context.Background()
	svc, ledger := newTestService()

	for range 3 {
		posted, err := svc.PostOrderIncome(ctx, id.New(), types.MustMoney("10"), "cod", "c")
		require.NoError(t, err)
		assert.True(t, posted)
	}
	assert.Len(t, ledger.entries, 3)
}

func TestPostVoucherExpense(t *testing.T) {
	ctx := context.Background()
	svc, ledger := newTestService()
	voucherID := id.New()

	err := svc.PostVoucherExpense(ctx, voucherID, "PN20260829001", types.MustMoney("350.00"), "manager-1")
	require.NoError(t, err)

	require.Len(t, ledger.entries, 1)
	stored := ledger.entries[0]
	assert.Equal(t, TypeExpense, stored.Type)
	assert.Equal(t, CategoryStock, stored.Category)
	assert.True(t, stored.AutoCreated)
	require.NotNil(t, stored.VoucherID)
	assert.Equal(t, voucherID, *stored.VoucherID)
	assert.Contains(t, stored.Description, "PN20260829001")
}

func TestPostVoucherExpense_SkipsZeroAmount(t *testing.T) {
	ctx := context.Background()
	svc, ledger := newTestService()

	err := svc.PostVoucherExpense(ctx, id.New(), "PN20260829002", types.Zero(), "manager-1")
	require.NoError(t, err)
	assert.Empty(t, ledger.entries)
}

func TestSummary_Math(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.PostOrderIncome(ctx, id.New(), types.MustMoney("100.00"), "card", "c")
	require.NoError(t, err)
	_, err = svc.PostOrderIncome(ctx, id.New(), types.MustMoney("50.00"), "card", "c")
	require.NoError(t, err)
	require.NoError(t, svc.PostVoucherExpense(ctx, id.New(), "PN1", types.MustMoney("30.00"), "m"))

	sum, err := svc.Summary(ctx, SummaryFilter{})
	require.NoError(t, err)

	assert.True(t, sum.TotalIncome.Equal(types.MustMoney("150")))
	assert.True(t, sum.TotalExpense.Equal(types.MustMoney("30")))
	assert.True(t, sum.NetAmount.Equal(types.MustMoney("120")))
	assert.Equal(t, int64(2), sum.IncomeCount)
	assert.Equal(t, int64(1), sum.ExpenseCount)
	assert.Equal(t, int64(3), sum.TotalCount)
	assert.True(t, sum.AverageTransaction.Equal(types.MustMoney("60")))
	assert.True(t, sum.OrderIncome.Equal(types.MustMoney("150")))
	assert.True(t, sum.StockExpense.Equal(types.MustMoney("30")))
}

func TestSummary_EmptyLedger(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	sum, err := svc.Summary(ctx, SummaryFilter{})
	require.NoError(t, err)

	assert.Equal(t, int64(0), sum.TotalCount)
	assert.True(t, sum.AverageTransaction.IsZero())
	assert.True(t, sum.NetAmount.IsZero())
}

func TestSummary_RejectsInvertedWindow(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	from := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	to := from.Add(-24 * time.Hour)

	_, err := svc.Summary(ctx, SummaryFilter{FromDate: &from, ToDate: &to})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
