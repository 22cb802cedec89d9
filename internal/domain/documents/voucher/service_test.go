package voucher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/id"
	"shopcore/internal/core/numerator"
	"shopcore/internal/core/types"
	"shopcore/internal/domain"
	"shopcore/internal/domain/catalogs/product"
	"shopcore/internal/domain/registers/stock"
)

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeProductRepo is an in-memory product.Repository.
type fakeProductRepo struct {
	products map[id.ID]*product.Product
}

func newFakeProductRepo(ps ...*product.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: make(map[id.ID]*product.Product)}
	for _, p := range ps {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) Create(ctx context.Context, p *product.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return p, nil
}

func (r *fakeProductRepo) GetByIDs(ctx context.Context, productIDs []id.ID) (map[id.ID]*product.Product, error) {
	out := make(map[id.ID]*product.Product)
	for _, pid := range productIDs {
		if p, ok := r.products[pid]; ok {
			out[pid] = p
		}
	}
	return out, nil
}

func (r *fakeProductRepo) GetForUpdate(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.GetByID(ctx, productID)
}

func (r *fakeProductRepo) Update(ctx context.Context, p *product.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) SetQuantity(ctx context.Context, productID id.ID, quantity int64) error {
	p, ok := r.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID.String())
	}
	p.Quantity = quantity
	return nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, productID id.ID) error {
	delete(r.products, productID)
	return nil
}

func (r *fakeProductRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return domain.ListResult[*product.Product]{}, nil
}

// fakeVoucherRepo is an in-memory Repository.
type fakeVoucherRepo struct {
	vouchers map[id.ID]*Voucher
}

func newFakeVoucherRepo() *fakeVoucherRepo {
	return &fakeVoucherRepo{vouchers: make(map[id.ID]*Voucher)}
}

func (r *fakeVoucherRepo) Create(ctx context.Context, v *Voucher) error {
	cp := *v
	r.vouchers[v.ID] = &cp
	return nil
}

func (r *fakeVoucherRepo) GetByID(ctx context.Context, voucherID id.ID) (*Voucher, error) {
	v, ok := r.vouchers[voucherID]
	if !ok || v.DeletionMark {
		return nil, apperror.NewNotFound("voucher", voucherID.String())
	}
	cp := *v
	return &cp, nil
}

func (r *fakeVoucherRepo) GetByIDForUpdate(ctx context.Context, voucherID id.ID) (*Voucher, error) {
	return r.GetByID(ctx, voucherID)
}

func (r *fakeVoucherRepo) Update(ctx context.Context, v *Voucher) error {
	if _, ok := r.vouchers[v.ID]; !ok {
		return apperror.NewNotFound("voucher", v.ID.String())
	}
	cp := *v
	r.vouchers[v.ID] = &cp
	return nil
}

func (r *fakeVoucherRepo) Delete(ctx context.Context, voucherID id.ID) error {
	v, ok := r.vouchers[voucherID]
	if !ok {
		return apperror.NewNotFound("voucher", voucherID.String())
	}
	v.DeletionMark = true
	return nil
}

func (r *fakeVoucherRepo) List(ctx context.Context, filter Filter) (domain.ListResult[*Voucher], error) {
	var items []*Voucher
	for _, v := range r.vouchers {
		if !v.DeletionMark {
			items = append(items, v)
		}
	}
	return domain.ListResult[*Voucher]{Items: items, TotalCount: int64(len(items))}, nil
}

// fakeHistoryRepo collects stock history entries.
type fakeHistoryRepo struct {
	entries []*stock.HistoryEntry
}

func (r *fakeHistoryRepo) Append(ctx context.Context, entry *stock.HistoryEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeHistoryRepo) ListByProduct(ctx context.Context, productID id.ID, filter stock.HistoryFilter) ([]*stock.HistoryEntry, error) {
	return nil, nil
}

func (r *fakeHistoryRepo) ListByVoucher(ctx context.Context, voucherID id.ID) ([]*stock.HistoryEntry, error) {
	return nil, nil
}

func (r *fakeHistoryRepo) List(ctx context.Context, filter stock.HistoryFilter) (domain.ListResult[*stock.HistoryEntry], error) {
	return domain.ListResult[*stock.HistoryEntry]{}, nil
}

// fakeExpensePoster records posted expenses.
type fakeExpensePoster struct {
	calls []types.Money
}

func (p *fakeExpensePoster) PostVoucherExpense(ctx context.Context, voucherID id.ID, voucherNumber string, amount types.Money, actor string) error {
	p.calls = append(p.calls, amount)
	return nil
}

// fakeOrderSource serves fixed order views.
type fakeOrderSource struct {
	orders map[id.ID]*OrderInfo
}

func (s *fakeOrderSource) GetOrderInfo(ctx context.Context, orderID id.ID) (*OrderInfo, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	return o, nil
}

type voucherFixture struct {
	svc      *Service
	repo     *fakeVoucherRepo
	products *fakeProductRepo
	history  *fakeHistoryRepo
	expenses *fakeExpensePoster
}

func newFixture(ps ...*product.Product) *voucherFixture {
	products := newFakeProductRepo(ps...)
	history := &fakeHistoryRepo{}
	repo := newFakeVoucherRepo()
	expenses := &fakeExpensePoster{}
	svc := NewService(
		repo,
		products,
		stock.NewService(products, history),
		numerator.NewMockGenerator(),
		nopTxManager{},
		expenses,
	)
	return &voucherFixture{svc: svc, repo: repo, products: products, history: history, expenses: expenses}
}

func testProduct(name string, quantity int64, costPrice string) *product.Product {
	return product.New(name, quantity, types.MustMoney(costPrice), types.MustMoney("0"))
}

func TestCreate_ImportVoucher(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 10, "8.50")
	fx := newFixture(mouse)

	v := New(TypeImport)
	v.Reason = "Restock from supplier"
	v.Lines = []Line{{ProductID: mouse.ID, Quantity: 20, CostPrice: types.MustMoney("8.00")}}

	require.NoError(t, fx.svc.Create(ctx, v))

	assert.Equal(t, StatusPending, v.Status)
	assert.True(t, strings.HasPrefix(v.Number, "PN"))
	assert.True(t, v.TotalValue.Equal(types.MustMoney("160")))
	assert.Equal(t, "Mouse", v.Lines[0].ProductName)
	assert.False(t, id.IsNil(v.Lines[0].LineID))

	// creation never moves stock
	assert.Equal(t, int64(10), mouse.Quantity)
	assert.Empty(t, fx.history.entries)
}

func TestCreate_DefaultsCostPriceFromCatalog(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 10, "8.50")
	fx := newFixture(mouse)

	v := New(TypeImport)
	v.Reason = "Restock"
	v.Lines = []Line{{ProductID: mouse.ID, Quantity: 2}}

	require.NoError(t, fx.svc.Create(ctx, v))
	assert.True(t, v.Lines[0].CostPrice.Equal(types.MustMoney("8.50")))
	assert.True(t, v.TotalValue.Equal(types.MustMoney("17")))
}

func TestCreate_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()

	v := New(TypeImport)
	v.Reason = "Restock"
	v.Lines = []Line{{ProductID: id.New(), Quantity: 1}}

	err := fx.svc.Create(ctx, v)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreate_ExportChecksStock(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 3, "8.50")
	keyboard := testProduct("Keyboard", 0, "32.00")
	fx := newFixture(mouse, keyboard)

	v := New(TypeExport)
	v.Reason = "Damaged goods write-off"
	v.Lines = []Line{
		{ProductID: mouse.ID, Quantity: 10},
		{ProductID: keyboard.ID, Quantity: 2},
	}

	err := fx.svc.Create(ctx, v)
	require.Error(t, err)
	require.True(t, apperror.IsInsufficientStock(err))

	// every shortage is reported, not just the first
	appErr, _ := apperror.AsAppError(err)
	shortages := appErr.Details["items"].([]apperror.StockShortage)
	assert.Len(t, shortages, 2)
}

func TestCreate_ValidationFailures(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 10, "8.50")
	fx := newFixture(mouse)

	tests := []struct {
		name string
		prep func(v *Voucher)
	}{
		{"no reason", func(v *Voucher) {
			v.Reason = ""
			v.Lines = []Line{{ProductID: mouse.ID, Quantity: 1}}
		}},
		{"no lines", func(v *Voucher) {
			v.Reason = "x"
		}},
		{"duplicate product", func(v *Voucher) {
			v.Reason = "x"
			v.Lines = []Line{
				{ProductID: mouse.ID, Quantity: 1},
				{ProductID: mouse.ID, Quantity: 2},
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(TypeImport)
			tt.prep(v)
			err := fx.svc.Create(ctx, v)
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
		})
	}
}

func TestApprove_ImportAddsStockAndPostsExpense(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 10, "8.50")
	fx := newFixture(mouse)

	v := New(TypeImport)
	v.Reason = "Restock"
	v.Lines = []Line{{ProductID: mouse.ID, Quantity: 20, CostPrice: types.MustMoney("8.00")}}
	require.NoError(t, fx.svc.Create(ctx, v))

	approved, err := fx.svc.Approve(ctx, v.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, approved.Status)
	assert.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, int64(30), mouse.Quantity)

	require.Len(t, fx.history.entries, 1)
	entry := fx.history.entries[0]
	assert.Equal(t, int64(10), entry.QuantityBefore)
	assert.Equal(t, int64(20), entry.QuantityChange)
	assert.Equal(t, int64(30), entry.QuantityAfter)

	require.Len(t, fx.expenses.calls, 1)
	assert.True(t, fx.expenses.calls[0].Equal(types.MustMoney("160")))
}

func TestApprove_ExportSubtractsStockAndPostsExpense(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 10, "8.50")
	fx := newFixture(mouse)

	v := New(TypeExport)
	v.Reason = "Write-off"
	v.Lines = []Line{{ProductID: mouse.ID, Quantity: 4}}
	require.NoError(t, fx.svc.Create(ctx, v))

	approved, err := fx.svc.Approve(ctx, v.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, int64(6), mouse.Quantity)

	// exports expense at cost value, same as imports
	require.Len(t, fx.expenses.calls, 1)
	assert.True(t, fx.expenses.calls[0].Equal(types.MustMoney("34")))
}

func TestApprove_ExportRechecksStock(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 10, "8.50")
	fx := newFixture(mouse)

	v := New(TypeExport)
	v.Reason = "Write-off"
	v.Lines = []Line{{ProductID: mouse.ID, Quantity: 8}}
	require.NoError(t, fx.svc.Create(ctx, v))

	// stock dropped between creation and approval
	mouse.Quantity = 5

	_, err := fx.svc.Approve(ctx, v.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, int64(5), mouse.Quantity)
}

func TestApprove_NonPendingRejected(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 10, "8.50")
	fx := newFixture(mouse)

	v := New(TypeImport)
	v.Reason = "Restock"
	v.Lines = []Line{{ProductID: mouse.ID, Quantity: 1}}
	require.NoError(t, fx.svc.Create(ctx, v))

	_, err := fx.svc.Approve(ctx, v.ID)
	require.NoError(t, err)

	// approving again fails: approved is terminal
	_, err = fx.svc.Approve(ctx, v.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 10, "8.50")
	fx := newFixture(mouse)

	v := New(TypeImport)
	v.Reason = "Restock"
	v.Lines = []Line{{ProductID: mouse.ID, Quantity: 5}}
	require.NoError(t, fx.svc.Create(ctx, v))

	rejected, err := fx.svc.Reject(ctx, v.ID, "supplier invoice mismatch")
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Equal(t, "supplier invoice mismatch", rejected.RejectionReason)
	assert.NotNil(t, rejected.RejectedAt)

	// rejection never moves stock
	assert.Equal(t, int64(10), mouse.Quantity)

	// rejected is terminal
	_, err = fx.svc.Approve(ctx, v.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestReject_RequiresReason(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()

	_, err := fx.svc.Reject(ctx, id.New(), "")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCancel_PendingOnly(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 10, "8.50")
	fx := newFixture(mouse)

	v := New(TypeImport)
	v.Reason = "Restock"
	v.Lines = []Line{{ProductID: mouse.ID, Quantity: 5}}
	require.NoError(t, fx.svc.Create(ctx, v))

	cancelled, err := fx.svc.Cancel(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// cancelled is terminal too
	_, err = fx.svc.Cancel(ctx, v.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestUpdate_RecomputesTotal(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 10, "8.50")
	keyboard := testProduct("Keyboard", 10, "32.00")
	fx := newFixture(mouse, keyboard)

	v := New(TypeImport)
	v.Reason = "Restock"
	v.Lines = []Line{{ProductID: mouse.ID, Quantity: 2, CostPrice: types.MustMoney("8.00")}}
	require.NoError(t, fx.svc.Create(ctx, v))

	updated, err := fx.svc.Update(ctx, v.ID, "Restock and keyboards", "", []Line{
		{ProductID: keyboard.ID, Quantity: 3, CostPrice: types.MustMoney("30.00")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Restock and keyboards", updated.Reason)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, "Keyboard", updated.Lines[0].ProductName)
	assert.True(t, updated.TotalValue.Equal(types.MustMoney("90")))
	assert.Equal(t, v.Number, updated.Number)
}

func TestUpdate_ApprovedRejected(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 10, "8.50")
	fx := newFixture(mouse)

	v := New(TypeImport)
	v.Reason = "Restock"
	v.Lines = []Line{{ProductID: mouse.ID, Quantity: 1}}
	require.NoError(t, fx.svc.Create(ctx, v))
	_, err := fx.svc.Approve(ctx, v.ID)
	require.NoError(t, err)

	_, err = fx.svc.Update(ctx, v.ID, "changed", "", []Line{{ProductID: mouse.ID, Quantity: 2}})
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestDelete_PendingOnly(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 10, "8.50")
	fx := newFixture(mouse)

	v := New(TypeImport)
	v.Reason = "Restock"
	v.Lines = []Line{{ProductID: mouse.ID, Quantity: 1}}
	require.NoError(t, fx.svc.Create(ctx, v))

	require.NoError(t, fx.svc.Delete(ctx, v.ID))
	_, err := fx.svc.GetByID(ctx, v.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreateFromOrder(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 10, "8.50")
	fx := newFixture(mouse)
	orderID := id.New()
	fx.svc.SetOrderSource(&fakeOrderSource{orders: map[id.ID]*OrderInfo{
		orderID: {
			ID:     orderID,
			Status: "completed",
			Items:  []OrderItem{{ProductID: mouse.ID, Name: "Mouse", Quantity: 2}},
		},
	}})

	v, err := fx.svc.CreateFromOrder(ctx, orderID, "")
	require.NoError(t, err)

	assert.Equal(t, TypeExport, v.Type)
	assert.Equal(t, StatusPending, v.Status)
	assert.True(t, strings.HasPrefix(v.Number, "PX"))
	require.NotNil(t, v.OrderID)
	assert.Equal(t, orderID, *v.OrderID)
	assert.Contains(t, v.Reason, orderID.String())
	require.Len(t, v.Lines, 1)
	assert.Equal(t, int64(2), v.Lines[0].Quantity)
}

func TestCreateFromOrder_RequiresCompletedOrder(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 10, "8.50")
	fx := newFixture(mouse)
	orderID := id.New()
	fx.svc.SetOrderSource(&fakeOrderSource{orders: map[id.ID]*OrderInfo{
		orderID: {ID: orderID, Status: "processing"},
	}})

	_, err := fx.svc.CreateFromOrder(ctx, orderID, "")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidOrderStatus))
}
