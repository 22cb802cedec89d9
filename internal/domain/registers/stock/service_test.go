package stock

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
)

// fakeProductRepo is an in-memory product.Repository for stock tests.
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

// fakeHistoryRepo collects appended entries.
type fakeHistoryRepo struct {
	entries []*HistoryEntry
}

func (r *fakeHistoryRepo) Append(ctx context.Context, entry *HistoryEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeHistoryRepo) ListByProduct(ctx context.Context, productID id.ID, filter HistoryFilter) ([]*HistoryEntry, error) {
	var out []*HistoryEntry
	for _, e := range r.entries {
		if e.ProductID == productID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) ListByVoucher(ctx context.Context, voucherID id.ID) ([]*HistoryEntry, error) {
	var out []*HistoryEntry
	for _, e := range r.entries {
		if e.VoucherID == voucherID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) List(ctx context.Context, filter HistoryFilter) (domain.ListResult[*HistoryEntry], error) {
	return domain.ListResult[*HistoryEntry]{Items: r.entries, TotalCount: int64(len(r.entries))}, nil
}

func testProduct(name string, quantity int64) *product.Product {
	return product.New(name, quantity, types.MustMoney("5.00"), types.MustMoney("9.99"))
}

func TestApplyDelta_Import(t *testing.T) {
	ctx := context.Background()
	p := testProduct("Mouse", 10)
	products := newFakeProductRepo(p)
	history := &fakeHistoryRepo{}
	svc := NewService(products, history)

	entry, err := svc.ApplyDelta(ctx, Delta{
		ProductID:     p.ID,
		Quantity:      25,
		VoucherType:   "import",
		VoucherID:     id.New(),
		VoucherNumber: "PN20260829001",
		Actor:         "tester",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10), entry.QuantityBefore)
	assert.Equal(t, int64(25), entry.QuantityChange)
	assert.Equal(t, int64(35), entry.QuantityAfter)
	assert.Equal(t, "Mouse", entry.ProductName)
	assert.Equal(t, int64(35), p.Quantity)
	require.Len(t, history.entries, 1)
}

func TestApplyDelta_ExportToZero(t *testing.T) {
	ctx := context.Background()
	p := testProduct("Mouse", 10)
	svc := NewService(newFakeProductRepo(p), &fakeHistoryRepo{})

	entry, err := svc.ApplyDelta(ctx, Delta{
		ProductID:     p.ID,
		Quantity:      -10,
		VoucherType:   "export",
		VoucherID:     id.New(),
		VoucherNumber: "PX20260829001",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), entry.QuantityAfter)
	assert.Equal(t, int64(0), p.Quantity)
}

func TestApplyDelta_NegativeStockRejected(t *testing.T) {
	ctx := context.Background()
	p := testProduct("Mouse", 3)
	history := &fakeHistoryRepo{}
	svc := NewService(newFakeProductRepo(p), history)

	_, err := svc.ApplyDelta(ctx, Delta{
		ProductID:     p.ID,
		Quantity:      -5,
		VoucherType:   "export",
		VoucherID:     id.New(),
		VoucherNumber: "PX20260829001",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNegativeStock))

	// nothing changed, nothing recorded
	assert.Equal(t, int64(3), p.Quantity)
	assert.Empty(t, history.entries)
}

func TestApplyDelta_ZeroQuantityRejected(t *testing.T) {
	ctx := context.Background()
	p := testProduct("Mouse", 3)
	svc := NewService(newFakeProductRepo(p), &fakeHistoryRepo{})

	_, err := svc.ApplyDelta(ctx, Delta{
		ProductID: p.ID,
		Quantity:  0,
		VoucherID: id.New(),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestApplyDelta_MissingVoucherRejected(t *testing.T) {
	ctx := context.Background()
	p := testProduct("Mouse", 3)
	svc := NewService(newFakeProductRepo(p), &fakeHistoryRepo{})

	_, err := svc.ApplyDelta(ctx, Delta{
		ProductID: p.ID,
		Quantity:  1,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestApplyDelta_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeProductRepo(), &fakeHistoryRepo{})

	_, err := svc.ApplyDelta(ctx, Delta{
		ProductID: id.New(),
		Quantity:  1,
		VoucherID: id.New(),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestProductHistory_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeProductRepo(), &fakeHistoryRepo{})

	_, err := svc.ProductHistory(ctx, id.New(), HistoryFilter{})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
