package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductService serves the shopper-facing product read side. Only active
// products are visible; stock comes from the ledger so views reflect
// reservations made by carts that have not checked out yet.
type ProductService struct {
	productRepo catalog.ProductRepository
	ledger      inventory.Ledger
	logger      *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, ledger inventory.Ledger, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo: productRepo,
		ledger:      ledger,
		logger:      logger,
	}
}

// GetProduct returns one active product with its live stock
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (ProductView, error) {
	product, err := s.productRepo.FindByIDActive(ctx, id)
	if err != nil {
		return ProductView{}, err
	}
	return ToProductView(product, s.stockOf(ctx, product)), nil
}

// ListProducts returns a page of active products, newest first
func (s *ProductService) ListProducts(ctx context.Context, filter shared.Filter) (shared.Paginated[ProductView], error) {
	products, err := s.productRepo.FindAllActive(ctx, filter)
	if err != nil {
		return shared.Paginated[ProductView]{}, err
	}

	if filter.Filters == nil {
		filter.Filters = make(map[string]interface{})
	}
	filter.Filters["active"] = true
	total, err := s.productRepo.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[ProductView]{}, err
	}

	views := make([]ProductView, 0, len(products))
	for idx := range products {
		views = append(views, ToProductView(&products[idx], s.stockOf(ctx, &products[idx])))
	}
	return shared.NewPaginated(views, total, filter.Page, filter.PageSize), nil
}

// stockOf reads the ledger counter, falling back to the persisted column
// when the ledger has no entry for the product yet.
func (s *ProductService) stockOf(ctx context.Context, p *catalog.Product) int64 {
	stock, err := s.ledger.StockOf(ctx, p.ID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("ledger stock lookup failed",
				zap.String("product_id", p.ID.String()),
				zap.Error(err))
		}
		return p.Stock
	}
	return stock
}
