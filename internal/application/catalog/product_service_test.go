package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/memory"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDActive(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAllActive(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func newTestProduct(t *testing.T, name string, stock int64) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct("SKU-"+uuid.NewString()[:8], name, valueobject.NewMoneyUSDFromFloat(9.99), stock)
	require.NoError(t, err)
	return product
}

func TestProductService_GetProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the product with live ledger stock", func(t *testing.T) {
		repo := new(MockProductRepository)
		ledger := memory.NewStockLedger()
		service := NewProductService(repo, ledger, zap.NewNop())

		product := newTestProduct(t, "Widget", 10)
		ledger.SetStock(product.ID, 10)
		require.NoError(t, ledger.Reserve(ctx, product.ID, 4))
		repo.On("FindByIDActive", mock.Anything, product.ID).Return(product, nil)

		view, err := service.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, product.ID, view.ID)
		assert.Equal(t, "Widget", view.Name)
		assert.Equal(t, int64(6), view.Stock)
	})

	t.Run("falls back to the persisted stock column", func(t *testing.T) {
		repo := new(MockProductRepository)
		service := NewProductService(repo, memory.NewStockLedger(), zap.NewNop())

		product := newTestProduct(t, "Widget", 7)
		repo.On("FindByIDActive", mock.Anything, product.ID).Return(product, nil)

		view, err := service.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(7), view.Stock)
	})

	t.Run("unknown product", func(t *testing.T) {
		repo := new(MockProductRepository)
		service := NewProductService(repo, memory.NewStockLedger(), zap.NewNop())

		id := uuid.New()
		repo.On("FindByIDActive", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := service.GetProduct(ctx, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestProductService_ListProducts(t *testing.T) {
	ctx := context.Background()

	t.Run("pages active products and counts only active rows", func(t *testing.T) {
		repo := new(MockProductRepository)
		ledger := memory.NewStockLedger()
		service := NewProductService(repo, ledger, zap.NewNop())

		first := newTestProduct(t, "First", 3)
		second := newTestProduct(t, "Second", 5)
		ledger.SetStock(first.ID, 3)
		ledger.SetStock(second.ID, 5)

		filter := shared.DefaultFilter()
		repo.On("FindAllActive", mock.Anything, filter).Return([]catalog.Product{*first, *second}, nil)
		repo.On("Count", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
			active, ok := f.Filters["active"].(bool)
			return ok && active
		})).Return(int64(2), nil)

		page, err := service.ListProducts(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
		require.Len(t, page.Items, 2)
		assert.Equal(t, int64(3), page.Items[0].Stock)
		assert.Equal(t, int64(5), page.Items[1].Stock)
		repo.AssertExpectations(t)
	})
}
