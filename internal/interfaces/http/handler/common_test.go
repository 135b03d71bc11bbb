package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cartapp "github.com/storefront/backend/internal/application/cart"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/application/keylock"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/memory"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// fakeProductRepo is a map-backed catalog.ProductRepository
type fakeProductRepo struct {
	products map[uuid.UUID]*catalog.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*catalog.Product)}
}

func (f *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) FindByIDActive(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, err := f.FindByID(ctx, id)
	if err != nil || !p.Active {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) FindBySKU(_ context.Context, sku string) (*catalog.Product, error) {
	for _, p := range f.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeProductRepo) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Product, error) {
	return f.collect(false), nil
}

func (f *fakeProductRepo) FindAllActive(_ context.Context, _ shared.Filter) ([]catalog.Product, error) {
	return f.collect(true), nil
}

func (f *fakeProductRepo) Save(_ context.Context, product *catalog.Product) error {
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductRepo) Count(_ context.Context, filter shared.Filter) (int64, error) {
	activeOnly, _ := filter.Filters["active"].(bool)
	return int64(len(f.collect(activeOnly))), nil
}

func (f *fakeProductRepo) collect(activeOnly bool) []catalog.Product {
	var result []catalog.Product
	for _, p := range f.products {
		if activeOnly && !p.Active {
			continue
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// fakePromotionRepo is a map-backed cart.PromotionRepository
type fakePromotionRepo struct {
	promotions map[string]*cart.Promotion
}

func (f *fakePromotionRepo) FindActiveByCode(_ context.Context, code string) (*cart.Promotion, error) {
	p, ok := f.promotions[code]
	if !ok || !p.Active {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

// fakeCartStore is an in-memory cart.Repository with snapshot semantics
type fakeCartStore struct {
	carts map[string][]byte
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: make(map[string][]byte)}
}

func (f *fakeCartStore) Find(_ context.Context, key cart.Key) (*cart.Cart, error) {
	payload, ok := f.carts[key.String()]
	if !ok {
		return nil, shared.ErrNotFound
	}
	var c cart.Cart
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (f *fakeCartStore) Save(_ context.Context, c *cart.Cart) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	f.carts[c.Key().String()] = payload
	return nil
}

func (f *fakeCartStore) Delete(_ context.Context, key cart.Key) error {
	delete(f.carts, key.String())
	return nil
}

// fakeOrderRepo is a map-backed order.Repository. Order writes carry their
// history row and cart removal, mirroring the transactional production
// implementation.
type fakeOrderRepo struct {
	orders  map[uuid.UUID]*order.PurchaseOrder
	history *fakeHistoryRepo
	carts   *fakeCartStore
}

func newFakeOrderRepo(history *fakeHistoryRepo, carts *fakeCartStore) *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:  make(map[uuid.UUID]*order.PurchaseOrder),
		history: history,
		carts:   carts,
	}
}

func (f *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*order.PurchaseOrder, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *o
	clone.Details = append([]order.Detail(nil), o.Details...)
	return &clone, nil
}

func (f *fakeOrderRepo) FindByAccount(_ context.Context, accountID string, _ shared.Filter) ([]order.PurchaseOrder, error) {
	var result []order.PurchaseOrder
	for _, o := range f.orders {
		if o.AccountID == accountID && o.Active {
			result = append(result, *o)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (f *fakeOrderRepo) CountByAccount(ctx context.Context, accountID string, filter shared.Filter) (int64, error) {
	orders, _ := f.FindByAccount(ctx, accountID, filter)
	return int64(len(orders)), nil
}

func (f *fakeOrderRepo) CreateFromCheckout(_ context.Context, o *order.PurchaseOrder, opening order.StatusHistory, source cart.Key) error {
	f.store(o)
	f.history.entries = append(f.history.entries, opening)
	delete(f.carts.carts, source.String())
	return nil
}

func (f *fakeOrderRepo) SaveWithHistory(_ context.Context, o *order.PurchaseOrder, entry order.StatusHistory) error {
	f.store(o)
	f.history.entries = append(f.history.entries, entry)
	return nil
}

func (f *fakeOrderRepo) store(o *order.PurchaseOrder) {
	clone := *o
	clone.Details = append([]order.Detail(nil), o.Details...)
	f.orders[o.ID] = &clone
}

// fakeHistoryRepo is an in-memory order.StatusHistoryRepository
type fakeHistoryRepo struct {
	entries []order.StatusHistory
}

func (f *fakeHistoryRepo) FindByOrder(_ context.Context, orderID uuid.UUID) ([]order.StatusHistory, error) {
	var result []order.StatusHistory
	for _, entry := range f.entries {
		if entry.OrderID == orderID {
			result = append(result, entry)
		}
	}
	return result, nil
}

// testServer wires the full HTTP stack over in-memory backends
type testServer struct {
	engine     *gin.Engine
	jwtService *auth.JWTService
	products   *fakeProductRepo
	promotions *fakePromotionRepo
	carts      *fakeCartStore
	orders     *fakeOrderRepo
	ledger     *memory.StockLedger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	products := newFakeProductRepo()
	promotions := &fakePromotionRepo{promotions: make(map[string]*cart.Promotion)}
	carts := newFakeCartStore()
	history := &fakeHistoryRepo{}
	orders := newFakeOrderRepo(history, carts)
	ledger := memory.NewStockLedger()
	locks := keylock.New()
	logger := zap.NewNop()

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars!!",
		AccessTokenExpiration: time.Hour,
		Issuer:                "storefront-test",
	})

	cartService := cartapp.NewCartService(carts, products, ledger, cartapp.NewPromotionEngine(promotions), locks, logger)
	orderService := orderapp.NewOrderService(orders, history, carts, ledger, orderapp.NewLoggingNotificationService(logger), locks, logger)
	productService := catalogapp.NewProductService(products, ledger, logger)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Session(config.CookieConfig{Path: "/", SameSite: "lax"}, 3600))
	engine.Use(middleware.OptionalAuth(jwtService))

	r := router.NewRouter(engine)
	r.Register(NewCartHandler(cartService))
	r.Register(NewOrderHandler(orderService))
	r.Register(NewProductHandler(productService))
	r.Register(NewSystemHandler(map[string]HealthCheck{
		"static": func(context.Context) error { return nil },
	}))
	r.Setup()

	return &testServer{
		engine:     engine,
		jwtService: jwtService,
		products:   products,
		promotions: promotions,
		carts:      carts,
		orders:     orders,
		ledger:     ledger,
	}
}

// seedProduct creates an active product with ledger stock
func (s *testServer) seedProduct(t *testing.T, name string, price float64, stock int64) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct("SKU-"+uuid.NewString()[:8], name, valueobject.NewMoneyUSDFromFloat(price), stock)
	require.NoError(t, err)
	require.NoError(t, s.products.Save(context.Background(), product))
	s.ledger.SetStock(product.ID, stock)
	return product
}

func (s *testServer) token(t *testing.T, accountID string, staff bool) string {
	t.Helper()
	token, _, err := s.jwtService.Generate(accountID, accountID, staff)
	require.NoError(t, err)
	return token
}

type requestOpts struct {
	sessionID string
	token     string
}

// do runs a JSON request through the engine and decodes the envelope
func (s *testServer) do(t *testing.T, method, path string, body any, opts requestOpts) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if opts.sessionID != "" {
		req.Header.Set(middleware.SessionIDHeader, opts.sessionID)
	}
	if opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.token)
	}

	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var envelope map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), "body: %s", rec.Body.String())
	}
	return rec, envelope
}

// errorCode digs the error code out of a response envelope
func errorCode(t *testing.T, envelope map[string]any) string {
	t.Helper()
	errObj, ok := envelope["error"].(map[string]any)
	require.True(t, ok, "expected error in envelope: %v", envelope)
	code, _ := errObj["code"].(string)
	return code
}

// dataOf returns the data object of a response envelope
func dataOf(t *testing.T, envelope map[string]any) map[string]any {
	t.Helper()
	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok, "expected data in envelope: %v", envelope)
	return data
}

func httpGet(s *testServer, t *testing.T, path string, opts requestOpts) (*httptest.ResponseRecorder, map[string]any) {
	return s.do(t, http.MethodGet, path, nil, opts)
}
