package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

func TestCartHandler_GetCart(t *testing.T) {
	t.Run("empty session cart", func(t *testing.T) {
		s := newTestServer(t)

		rec, envelope := httpGet(s, t, "/api/v1/cart", requestOpts{sessionID: "sess-1"})
		assert.Equal(t, http.StatusOK, rec.Code)
		data := dataOf(t, envelope)
		assert.Equal(t, "session", data["owner_kind"])
		assert.Empty(t, data["items"])
	})

	t.Run("a generated session still yields a cart view", func(t *testing.T) {
		s := newTestServer(t)

		rec, envelope := httpGet(s, t, "/api/v1/cart", requestOpts{})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Session-ID"))
		data := dataOf(t, envelope)
		assert.Equal(t, "session", data["owner_kind"])
	})

	t.Run("authenticated request resolves the account cart", func(t *testing.T) {
		s := newTestServer(t)
		token := s.token(t, "acct-1", false)

		rec, envelope := httpGet(s, t, "/api/v1/cart", requestOpts{sessionID: "sess-1", token: token})
		assert.Equal(t, http.StatusOK, rec.Code)
		data := dataOf(t, envelope)
		assert.Equal(t, "account", data["owner_kind"])
		assert.Equal(t, "acct-1", data["owner_id"])
	})
}

func TestCartHandler_AddItem(t *testing.T) {
	t.Run("adds a product to the session cart", func(t *testing.T) {
		s := newTestServer(t)
		product := s.seedProduct(t, "Widget", 9.99, 10)

		rec, envelope := s.do(t, http.MethodPost, "/api/v1/cart/items",
			map[string]any{"product_id": product.ID.String(), "quantity": 3},
			requestOpts{sessionID: "sess-1"})

		assert.Equal(t, http.StatusOK, rec.Code)
		data := dataOf(t, envelope)
		items := data["items"].([]any)
		require.Len(t, items, 1)
		item := items[0].(map[string]any)
		assert.Equal(t, "Widget", item["product_name"])
		assert.Equal(t, float64(3), item["quantity"])
	})

	t.Run("insufficient stock maps to 422", func(t *testing.T) {
		s := newTestServer(t)
		product := s.seedProduct(t, "Scarce", 5.00, 1)

		rec, envelope := s.do(t, http.MethodPost, "/api/v1/cart/items",
			map[string]any{"product_id": product.ID.String(), "quantity": 5},
			requestOpts{sessionID: "sess-1"})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, dto.ErrCodeInsufficientStock, errorCode(t, envelope))
	})

	t.Run("unknown product maps to 404", func(t *testing.T) {
		s := newTestServer(t)

		rec, envelope := s.do(t, http.MethodPost, "/api/v1/cart/items",
			map[string]any{"product_id": uuid.NewString(), "quantity": 1},
			requestOpts{sessionID: "sess-1"})

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, envelope))
	})

	t.Run("zero quantity fails binding", func(t *testing.T) {
		s := newTestServer(t)
		product := s.seedProduct(t, "Widget", 9.99, 10)

		rec, envelope := s.do(t, http.MethodPost, "/api/v1/cart/items",
			map[string]any{"product_id": product.ID.String(), "quantity": 0},
			requestOpts{sessionID: "sess-1"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeValidation, errorCode(t, envelope))
	})
}

func TestCartHandler_UpdateAndRemove(t *testing.T) {
	s := newTestServer(t)
	product := s.seedProduct(t, "Widget", 4.00, 10)

	_, envelope := s.do(t, http.MethodPost, "/api/v1/cart/items",
		map[string]any{"product_id": product.ID.String(), "quantity": 2},
		requestOpts{sessionID: "sess-1"})
	items := dataOf(t, envelope)["items"].([]any)
	itemID := items[0].(map[string]any)["id"].(string)

	t.Run("update quantity", func(t *testing.T) {
		rec, envelope := s.do(t, http.MethodPut, "/api/v1/cart/items/"+itemID,
			map[string]any{"quantity": 5}, requestOpts{sessionID: "sess-1"})
		assert.Equal(t, http.StatusOK, rec.Code)
		item := dataOf(t, envelope)["items"].([]any)[0].(map[string]any)
		assert.Equal(t, float64(5), item["quantity"])
	})

	t.Run("update on another session's cart is not found", func(t *testing.T) {
		rec, envelope := s.do(t, http.MethodPut, "/api/v1/cart/items/"+itemID,
			map[string]any{"quantity": 1}, requestOpts{sessionID: "sess-other"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, envelope))
	})

	t.Run("remove item", func(t *testing.T) {
		rec, envelope := s.do(t, http.MethodDelete, "/api/v1/cart/items/"+itemID, nil,
			requestOpts{sessionID: "sess-1"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, dataOf(t, envelope)["items"])
	})
}

func TestCartHandler_ApplyPromotion(t *testing.T) {
	s := newTestServer(t)
	product := s.seedProduct(t, "Widget", 100.00, 10)
	promo, err := cart.NewPromotion("SAVE10", decimal.NewFromInt(10), time.Now().Add(time.Hour))
	require.NoError(t, err)
	s.promotions.promotions["SAVE10"] = promo

	s.do(t, http.MethodPost, "/api/v1/cart/items",
		map[string]any{"product_id": product.ID.String(), "quantity": 1},
		requestOpts{sessionID: "sess-1"})

	t.Run("valid code discounts the total", func(t *testing.T) {
		rec, envelope := s.do(t, http.MethodPost, "/api/v1/cart/promotion",
			map[string]any{"code": "SAVE10"}, requestOpts{sessionID: "sess-1"})
		assert.Equal(t, http.StatusOK, rec.Code)
		data := dataOf(t, envelope)
		assert.Equal(t, "SAVE10", data["promotion_code"])
		assert.Equal(t, "90", data["total_price"])
	})

	t.Run("unknown code maps to 422", func(t *testing.T) {
		rec, envelope := s.do(t, http.MethodPost, "/api/v1/cart/promotion",
			map[string]any{"code": "NOPE"}, requestOpts{sessionID: "sess-1"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, dto.ErrCodeInvalidPromotion, errorCode(t, envelope))
	})
}

func TestCartHandler_ClearCart(t *testing.T) {
	s := newTestServer(t)
	product := s.seedProduct(t, "Widget", 4.00, 10)
	s.do(t, http.MethodPost, "/api/v1/cart/items",
		map[string]any{"product_id": product.ID.String(), "quantity": 4},
		requestOpts{sessionID: "sess-1"})

	rec, envelope := s.do(t, http.MethodDelete, "/api/v1/cart", nil, requestOpts{sessionID: "sess-1"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, dataOf(t, envelope)["items"])
}

func TestCartHandler_MergeOnLogin(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		s := newTestServer(t)
		rec, envelope := s.do(t, http.MethodPost, "/api/v1/cart/merge", nil, requestOpts{sessionID: "sess-1"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, errorCode(t, envelope))
	})

	t.Run("folds the session cart into the account cart", func(t *testing.T) {
		s := newTestServer(t)
		product := s.seedProduct(t, "Widget", 4.00, 10)
		s.do(t, http.MethodPost, "/api/v1/cart/items",
			map[string]any{"product_id": product.ID.String(), "quantity": 2},
			requestOpts{sessionID: "sess-1"})

		token := s.token(t, "acct-1", false)
		rec, envelope := s.do(t, http.MethodPost, "/api/v1/cart/merge", nil,
			requestOpts{sessionID: "sess-1", token: token})
		assert.Equal(t, http.StatusOK, rec.Code)

		data := dataOf(t, envelope)
		merged := data["cart"].(map[string]any)
		assert.Equal(t, "account", merged["owner_kind"])
		require.Len(t, merged["items"].([]any), 1)
		assert.Empty(t, data["dropped_items"])

		// The session cart is gone
		_, sessEnvelope := httpGet(s, t, "/api/v1/cart", requestOpts{sessionID: "sess-1"})
		assert.Empty(t, dataOf(t, sessEnvelope)["items"])
	})
}
