package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/id"
	"shopcore/internal/core/types"
	"shopcore/internal/domain"
	"shopcore/internal/domain/catalogs/product"
	"shopcore/internal/domain/documents/voucher"
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

// fakeOrderRepo is an in-memory Repository.
type fakeOrderRepo struct {
	orders map[id.ID]*Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[id.ID]*Order)}
}

func (r *fakeOrderRepo) Create(ctx context.Context, o *Order) error {
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetByIDForUpdate(ctx context.Context, orderID id.ID) (*Order, error) {
	return r.GetByID(ctx, orderID)
}

func (r *fakeOrderRepo) Update(ctx context.Context, o *Order) error {
	if _, ok := r.orders[o.ID]; !ok {
		return apperror.NewNotFound("order", o.ID.String())
	}
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) List(ctx context.Context, filter Filter) (domain.ListResult[*Order], error) {
	var items []*Order
	for _, o := range r.orders {
		items = append(items, o)
	}
	return domain.ListResult[*Order]{Items: items, TotalCount: int64(len(items))}, nil
}

// fakeIncomePoster mimics the ledger's at-most-once income guard.
type fakeIncomePoster struct {
	posted map[id.ID]types.Money
	calls  int
}

func newFakeIncomePoster() *fakeIncomePoster {
	return &fakeIncomePoster{posted: make(map[id.ID]types.Money)}
}

func (p *fakeIncomePoster) PostOrderIncome(ctx context.Context, orderID id.ID, amount types.Money, paymentMethod, actor string) (bool, error) {
	p.calls++
	if _, ok := p.posted[orderID]; ok {
		return false, nil
	}
	p.posted[orderID] = amount
	return true, nil
}

// fakeVoucherCreator records export voucher requests.
type fakeVoucherCreator struct {
	orders []id.ID
}

func (c *fakeVoucherCreator) CreateFromOrder(ctx context.Context, orderID id.ID, reason string) (*voucher.Voucher, error) {
	c.orders = append(c.orders, orderID)
	return voucher.New(voucher.TypeExport), nil
}

type orderFixture struct {
	svc      *Service
	repo     *fakeOrderRepo
	income   *fakeIncomePoster
	vouchers *fakeVoucherCreator
}

func newFixture(ps ...*product.Product) *orderFixture {
	repo := newFakeOrderRepo()
	income := newFakeIncomePoster()
	vouchers := &fakeVoucherCreator{}
	svc := NewService(repo, newFakeProductRepo(ps...), income, vouchers, nopTxManager{})
	return &orderFixture{svc: svc, repo: repo, income: income, vouchers: vouchers}
}

func testProduct(name string, quantity int64, price string) *product.Product {
	return product.New(name, quantity, types.MustMoney("1.00"), types.MustMoney(price))
}

func testOrder(userID string, items ...Item) *Order {
	o := New(userID)
	o.Items = items
	o.ShippingAddress = ShippingAddress{Address: "1 Main St", City: "Hanoi"}
	o.PaymentMethod = "card"
	return o
}

func TestCreate_SnapshotsCatalogData(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 100, "19.99")
	keyboard := testProduct("Keyboard", 50, "79.99")
	fx := newFixture(mouse, keyboard)

	o := testOrder("customer-1",
		Item{ProductID: mouse.ID, Quantity: 2},
		Item{ProductID: keyboard.ID, Quantity: 1},
	)
	require.NoError(t, fx.svc.Create(ctx, o))

	assert.Equal(t, StatusPending, o.Status)
	assert.False(t, o.IsPaid)
	assert.Equal(t, "Mouse", o.Items[0].Name)
	assert.True(t, o.Items[0].Price.Equal(types.MustMoney("19.99")))
	assert.True(t, o.TotalPrice.Equal(types.MustMoney("119.97")))
}

func TestCreate_KeepsExplicitPrice(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 100, "19.99")
	fx := newFixture(mouse)

	o := testOrder("customer-1",
		Item{ProductID: mouse.ID, Quantity: 1, Price: types.MustMoney("15.00")},
	)
	require.NoError(t, fx.svc.Create(ctx, o))

	assert.True(t, o.Items[0].Price.Equal(types.MustMoney("15.00")))
	assert.True(t, o.TotalPrice.Equal(types.MustMoney("15.00")))
}

func TestCreate_ReportsAllShortages(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 1, "19.99")
	keyboard := testProduct("Keyboard", 0, "79.99")
	fx := newFixture(mouse, keyboard)

	o := testOrder("customer-1",
		Item{ProductID: mouse.ID, Quantity: 5},
		Item{ProductID: keyboard.ID, Quantity: 1},
	)
	err := fx.svc.Create(ctx, o)
	require.Error(t, err)
	require.True(t, apperror.IsInsufficientStock(err))

	appErr, _ := apperror.AsAppError(err)
	shortages := appErr.Details["items"].([]apperror.StockShortage)
	assert.Len(t, shortages, 2)
}

func TestCreate_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()

	o := testOrder("customer-1", Item{ProductID: id.New(), Quantity: 1})
	err := fx.svc.Create(ctx, o)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestMarkPaid_PostsIncomeOnce(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 100, "19.99")
	fx := newFixture(mouse)

	o := testOrder("customer-1", Item{ProductID: mouse.ID, Quantity: 2})
	require.NoError(t, fx.svc.Create(ctx, o))

	paid, err := fx.svc.MarkPaid(ctx, o.ID, &PaymentResult{ID: "gw-1", Status: "ok"})
	require.NoError(t, err)

	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	require.Len(t, fx.income.posted, 1)
	assert.True(t, fx.income.posted[o.ID].Equal(types.MustMoney("39.98")))

	// paying again is a no-op: flag stays, no second posting attempt
	again, err := fx.svc.MarkPaid(ctx, o.ID, &PaymentResult{ID: "gw-2"})
	require.NoError(t, err)
	assert.True(t, again.IsPaid)
	assert.Equal(t, 1, fx.income.calls)
}

func TestMarkPaid_CancelledOrderRejected(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 100, "19.99")
	fx := newFixture(mouse)

	o := testOrder("customer-1", Item{ProductID: mouse.ID, Quantity: 1})
	require.NoError(t, fx.svc.Create(ctx, o))
	_, err := fx.svc.Cancel(ctx, o.ID)
	require.NoError(t, err)

	_, err = fx.svc.MarkPaid(ctx, o.ID, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
	assert.Empty(t, fx.income.posted)
}

func TestSetStatus_Lifecycle(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 100, "19.99")
	fx := newFixture(mouse)

	o := testOrder("customer-1", Item{ProductID: mouse.ID, Quantity: 1})
	require.NoError(t, fx.svc.Create(ctx, o))

	updated, err := fx.svc.SetStatus(ctx, o.ID, StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, updated.Status)

	updated, err = fx.svc.SetStatus(ctx, o.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)

	// completion requested an export voucher
	require.Len(t, fx.vouchers.orders, 1)
	assert.Equal(t, o.ID, fx.vouchers.orders[0])
}

func TestSetStatus_UnknownStatus(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()

	_, err := fx.svc.SetStatus(ctx, id.New(), "shipped")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStatus))
}

func TestSetStatus_PendingStraightToCompleted(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 100, "19.99")
	fx := newFixture(mouse)

	o := testOrder("customer-1", Item{ProductID: mouse.ID, Quantity: 1})
	require.NoError(t, fx.svc.Create(ctx, o))

	updated, err := fx.svc.SetStatus(ctx, o.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)
	require.Len(t, fx.vouchers.orders, 1)
}

func TestSetStatus_ForbiddenTransition(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 100, "19.99")
	fx := newFixture(mouse)

	o := testOrder("customer-1", Item{ProductID: mouse.ID, Quantity: 1})
	require.NoError(t, fx.svc.Create(ctx, o))
	_, err := fx.svc.Cancel(ctx, o.ID)
	require.NoError(t, err)

	// cancelled is terminal
	_, err = fx.svc.SetStatus(ctx, o.ID, StatusProcessing)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestSetStatus_CompletedRepeatRejected(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 100, "19.99")
	fx := newFixture(mouse)

	o := testOrder("customer-1", Item{ProductID: mouse.ID, Quantity: 1})
	require.NoError(t, fx.svc.Create(ctx, o))
	_, err := fx.svc.SetStatus(ctx, o.ID, StatusProcessing)
	require.NoError(t, err)
	_, err = fx.svc.SetStatus(ctx, o.ID, StatusCompleted)
	require.NoError(t, err)
	require.Len(t, fx.vouchers.orders, 1)

	// repeating the terminal status is rejected and mints no second voucher
	_, err = fx.svc.SetStatus(ctx, o.ID, StatusCompleted)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
	assert.Len(t, fx.vouchers.orders, 1)
}

func TestSetStatus_SameStatusNoOp(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 100, "19.99")
	fx := newFixture(mouse)

	o := testOrder("customer-1", Item{ProductID: mouse.ID, Quantity: 1})
	require.NoError(t, fx.svc.Create(ctx, o))

	updated, err := fx.svc.SetStatus(ctx, o.ID, StatusPending)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, updated.Status)
}

func TestSetStatus_ProcessingPaidOrderPostsMissedIncome(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 100, "19.99")
	fx := newFixture(mouse)

	o := testOrder("customer-1", Item{ProductID: mouse.ID, Quantity: 1})
	require.NoError(t, fx.svc.Create(ctx, o))
	_, err := fx.svc.MarkPaid(ctx, o.ID, nil)
	require.NoError(t, err)

	_, err = fx.svc.SetStatus(ctx, o.ID, StatusProcessing)
	require.NoError(t, err)

	// the poster was consulted again but the guard kept it single
	require.Len(t, fx.income.posted, 1)
	assert.Equal(t, 2, fx.income.calls)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 100, "19.99")
	fx := newFixture(mouse)

	o := testOrder("customer-1", Item{ProductID: mouse.ID, Quantity: 1})
	require.NoError(t, fx.svc.Create(ctx, o))

	cancelled, err := fx.svc.Cancel(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// cancelling again is a no-op
	again, err := fx.svc.Cancel(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, again.Status)
}

func TestCancel_CompletedRejected(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 100, "19.99")
	fx := newFixture(mouse)

	o := testOrder("customer-1", Item{ProductID: mouse.ID, Quantity: 1})
	require.NoError(t, fx.svc.Create(ctx, o))
	_, err := fx.svc.SetStatus(ctx, o.ID, StatusProcessing)
	require.NoError(t, err)
	_, err = fx.svc.SetStatus(ctx, o.ID, StatusCompleted)
	require.NoError(t, err)

	_, err = fx.svc.Cancel(ctx, o.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeCannotCancelCompleted))
}

func TestGetOrderInfo(t *testing.T) {
	ctx := context.Background()
	mouse := testProduct("Mouse", 100, "19.99")
	fx := newFixture(mouse)

	o := testOrder("customer-1", Item{ProductID: mouse.ID, Quantity: 3})
	require.NoError(t, fx.svc.Create(ctx, o))

	info, err := fx.svc.GetOrderInfo(ctx, o.ID)
	require.NoError(t, err)

	assert.Equal(t, o.ID, info.ID)
	assert.Equal(t, "pending", info.Status)
	require.Len(t, info.Items, 1)
	assert.Equal(t, "Mouse", info.Items[0].Name)
	assert.Equal(t, int64(3), info.Items[0].Quantity)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusProcessing))
	assert.True(t, CanTransition(StatusPending, StatusCompleted))
	assert.True(t, CanTransition(StatusPending, StatusCancelled))
	assert.True(t, CanTransition(StatusProcessing, StatusCompleted))
	assert.True(t, CanTransition(StatusProcessing, StatusCancelled))

	assert.False(t, CanTransition(StatusCompleted, StatusProcessing))
	assert.False(t, CanTransition(StatusCancelled, StatusPending))

	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())

	assert.True(t, KnownStatus(StatusProcessing))
	assert.False(t, KnownStatus("shipped"))
}
