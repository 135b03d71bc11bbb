package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cartapp "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CartHandler handles shopping cart API endpoints. Authenticated requests
// operate on the durable account cart, anonymous ones on the session cart;
// the same routes serve both.
type CartHandler struct {
	BaseHandler
	cartService *cartapp.CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *cartapp.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// RegisterRoutes registers cart routes
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	carts := rg.Group("/cart")
	{
		carts.GET("", h.GetCart)
		carts.DELETE("", h.ClearCart)
		carts.POST("/items", h.AddItem)
		carts.PUT("/items/:itemId", h.UpdateItemQuantity)
		carts.DELETE("/items/:itemId", h.RemoveItem)
		carts.POST("/promotion", h.ApplyPromotion)
		carts.POST("/merge", middleware.RequireAuth(), h.MergeOnLogin)
	}
}

// cartKey resolves which cart the request operates on
func cartKey(c *gin.Context) (cart.Key, bool) {
	if accountID := middleware.GetAccountID(c); accountID != "" {
		return cart.AccountKey(accountID), true
	}
	if sessionID := middleware.GetSessionID(c); sessionID != "" {
		return cart.SessionKey(sessionID), true
	}
	return cart.Key{}, false
}

func (h *CartHandler) resolveKey(c *gin.Context) (cart.Key, bool) {
	key, ok := cartKey(c)
	if !ok {
		h.BadRequest(c, "No session or account identity on request")
	}
	return key, ok
}

// AddItemRequest represents the add-item request body
type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest represents the update-quantity request body
type UpdateItemRequest struct {
	Quantity int64 `json:"quantity" binding:"required,min=1"`
}

// ApplyPromotionRequest represents the promotion request body
type ApplyPromotionRequest struct {
	Code string `json:"code" binding:"required,max=50"`
}

// MergeResponse pairs the merged cart with the lines that were dropped
type MergeResponse struct {
	Cart    cartapp.CartView     `json:"cart"`
	Dropped []cartapp.DroppedLine `json:"dropped_items"`
}

// GetCart returns the current cart
func (h *CartHandler) GetCart(c *gin.Context) {
	key, ok := h.resolveKey(c)
	if !ok {
		return
	}

	view, err := h.cartService.GetCart(c.Request.Context(), key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// AddItem adds a product to the cart
func (h *CartHandler) AddItem(c *gin.Context) {
	key, ok := h.resolveKey(c)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	view, err := h.cartService.AddItem(c.Request.Context(), key, productID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// UpdateItemQuantity sets a cart item's quantity
func (h *CartHandler) UpdateItemQuantity(c *gin.Context) {
	key, ok := h.resolveKey(c)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	view, err := h.cartService.UpdateItemQuantity(c.Request.Context(), key, itemID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// RemoveItem deletes a cart item
func (h *CartHandler) RemoveItem(c *gin.Context) {
	key, ok := h.resolveKey(c)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	view, err := h.cartService.RemoveItem(c.Request.Context(), key, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// ClearCart empties the cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	key, ok := h.resolveKey(c)
	if !ok {
		return
	}

	view, err := h.cartService.ClearCart(c.Request.Context(), key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// ApplyPromotion applies a promotion code to the cart
func (h *CartHandler) ApplyPromotion(c *gin.Context) {
	key, ok := h.resolveKey(c)
	if !ok {
		return
	}

	var req ApplyPromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	view, err := h.cartService.ApplyPromotion(c.Request.Context(), key, req.Code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// MergeOnLogin folds the session cart into the authenticated account cart
func (h *CartHandler) MergeOnLogin(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	sessionID := middleware.GetSessionID(c)
	if sessionID == "" {
		h.BadRequest(c, "No session identity on request")
		return
	}

	view, dropped, err := h.cartService.MergeOnLogin(c.Request.Context(), sessionID, accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if dropped == nil {
		dropped = []cartapp.DroppedLine{}
	}
	h.Success(c, MergeResponse{Cart: view, Dropped: dropped})
}
