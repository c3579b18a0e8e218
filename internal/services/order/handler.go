package order

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"food-marketplace/internal/auth"
	"food-marketplace/internal/logger"
	"food-marketplace/internal/models"
	"food-marketplace/internal/web"
)

// Handler handles HTTP requests for orders
type Handler struct {
	service *Service
	logger  *logger.Logger
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

type singleDishRequest struct {
	DishID   uuid.UUID `json:"dish_id"`
	Quantity *int      `json:"quantity"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

type listResponse struct {
	Orders []models.Order `json:"orders"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// Checkout handles POST /cart/checkout
func (h *Handler) Checkout(c *gin.Context) {
	customer, ok := principal(c)
	if !ok {
		return
	}

	placement, err := h.service.Checkout(c.Request.Context(), customer.ID)
	if err != nil {
		web.WriteError(c, h.logger, "checkout_failed", err)
		return
	}
	c.JSON(http.StatusCreated, placement)
}

// CreateOrder handles POST /orders
func (h *Handler) CreateOrder(c *gin.Context) {
	customer, ok := principal(c)
	if !ok {
		return
	}

	h.logger.Debug("order_received", "Received order creation request", web.RequestID(c), map[string]interface{}{
		"content_length": c.Request.ContentLength,
		"remote_addr":    c.ClientIP(),
	})

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.WriteStatus(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	order, err := h.service.CreateFromExplicitItems(c.Request.Context(), customer.ID, req)
	if err != nil {
		web.WriteError(c, h.logger, "order_creation_failed", err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// BuyNow handles POST /orders/single
func (h *Handler) BuyNow(c *gin.Context) {
	customer, ok := principal(c)
	if !ok {
		return
	}

	var req singleDishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.WriteStatus(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if req.DishID == uuid.Nil {
		web.WriteError(c, h.logger, "validation_failed", models.Validation("dish_id", "is required"))
		return
	}
	quantity := models.ItemRequest{DishID: req.DishID, Quantity: req.Quantity}.QuantityOrDefault()

	placement, err := h.service.BuyNow(c.Request.Context(), customer.ID, req.DishID, quantity)
	if err != nil {
		web.WriteError(c, h.logger, "order_creation_failed", err)
		return
	}
	c.JSON(http.StatusCreated, placement)
}

// ListMine handles GET /orders/mine
func (h *Handler) ListMine(c *gin.Context) {
	customer, ok := principal(c)
	if !ok {
		return
	}

	page := web.Pagination(c)
	orders, err := h.service.ListForCustomer(c.Request.Context(), customer.ID, page)
	if err != nil {
		web.WriteError(c, h.logger, "order_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Orders: orders, Limit: page.Limit, Offset: page.Offset})
}

// ListRestaurant handles GET /orders/restaurant?status=
func (h *Handler) ListRestaurant(c *gin.Context) {
	owner, ok := principal(c)
	if !ok {
		return
	}

	page := web.Pagination(c)
	orders, err := h.service.ListForRestaurantOwner(c.Request.Context(), owner.ID, c.Query("status"), page)
	if err != nil {
		web.WriteError(c, h.logger, "order_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Orders: orders, Limit: page.Limit, Offset: page.Offset})
}

// GetOrder handles GET /orders/:id
func (h *Handler) GetOrder(c *gin.Context) {
	p, orderID, ok := h.target(c)
	if !ok {
		return
	}

	order, err := h.service.Get(c.Request.Context(), orderID, p)
	if err != nil {
		web.WriteError(c, h.logger, "order_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetHistory handles GET /orders/:id/history
func (h *Handler) GetHistory(c *gin.Context) {
	p, orderID, ok := h.target(c)
	if !ok {
		return
	}

	history, err := h.service.History(c.Request.Context(), orderID, p)
	if err != nil {
		web.WriteError(c, h.logger, "order_history_failed", err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// UpdateStatus handles PATCH /orders/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	owner, orderID, ok := h.target(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.WriteStatus(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	order, err := h.service.UpdateStatus(c.Request.Context(), orderID, owner, req.Status, req.Notes)
	if err != nil {
		web.WriteError(c, h.logger, "order_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Cancel handles POST /orders/:id/cancel
func (h *Handler) Cancel(c *gin.Context) {
	customer, orderID, ok := h.target(c)
	if !ok {
		return
	}

	order, err := h.service.Cancel(c.Request.Context(), orderID, customer)
	if err != nil {
		web.WriteError(c, h.logger, "order_cancel_failed", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) target(c *gin.Context) (models.Principal, uuid.UUID, bool) {
	p, ok := principal(c)
	if !ok {
		return p, uuid.Nil, false
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		web.WriteError(c, h.logger, "validation_failed", models.Validation("id", "must be a valid uuid"))
		return p, uuid.Nil, false
	}
	return p, orderID, true
}

func principal(c *gin.Context) (models.Principal, bool) {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		web.WriteStatus(c, http.StatusUnauthorized, "authentication required")
	}
	return p, ok
}
