package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// OrderHandler handles checkout and order lifecycle API endpoints. Every
// route requires an authenticated account.
type OrderHandler struct {
	BaseHandler
	orderService *orderapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *orderapp.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders", middleware.RequireAuth())
	{
		orders.POST("/checkout", h.Checkout)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.POST("/:id/status", h.TransitionStatus)
	}
}

// actor builds the service-level actor from the request context
func actor(c *gin.Context) orderapp.Actor {
	return orderapp.Actor{
		AccountID: middleware.GetAccountID(c),
		SessionID: middleware.GetSessionID(c),
		Staff:     middleware.IsStaff(c),
	}
}

// Checkout converts the account cart into an order
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req orderapp.CheckoutInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	view, err := h.orderService.Checkout(c.Request.Context(), actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, view)
}

// ListOrders returns the account's orders, newest first
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	page, err := h.orderService.ListOrders(c.Request.Context(), actor(c), req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetOrder returns one order; ?history=true includes the audit trail
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}
	includeHistory := c.Query("history") == "true"

	view, err := h.orderService.GetOrder(c.Request.Context(), actor(c), orderID, includeHistory)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// TransitionStatus moves an order along its lifecycle
func (h *OrderHandler) TransitionStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req orderapp.TransitionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	view, err := h.orderService.TransitionStatus(c.Request.Context(), actor(c), orderID, order.Status(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}
