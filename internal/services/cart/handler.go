package cart

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"food-marketplace/internal/auth"
	"food-marketplace/internal/logger"
	"food-marketplace/internal/models"
	"food-marketplace/internal/web"
)

// Handler serves the customer's cart
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

// itemRequest is the body of the add/decrease/remove endpoints. A missing
// quantity means 1.
type itemRequest struct {
	DishID   uuid.UUID `json:"dish_id"`
	Quantity *int      `json:"quantity"`
}

func (r itemRequest) quantity() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

// Register mounts the cart routes on a customer-only group
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.GetCart)
	rg.DELETE("", h.ClearCart)
	rg.POST("/add-item", h.AddItem)
	rg.POST("/decrease-item", h.DecreaseItem)
	rg.POST("/remove-item", h.RemoveItem)
}

// GetCart handles GET /cart
func (h *Handler) GetCart(c *gin.Context) {
	customer, ok := auth.PrincipalFrom(c)
	if !ok {
		web.WriteStatus(c, http.StatusUnauthorized, "authentication required")
		return
	}

	view, err := h.service.GetOrCreateCart(c.Request.Context(), customer.ID)
	if err != nil {
		web.WriteError(c, h.logger, "cart_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddItem handles POST /cart/add-item
func (h *Handler) AddItem(c *gin.Context) {
	customer, req, ok := h.bind(c)
	if !ok {
		return
	}

	view, err := h.service.AddItem(c.Request.Context(), customer.ID, req.DishID, req.quantity())
	if err != nil {
		web.WriteError(c, h.logger, "cart_add_failed", err)
		return
	}

	h.logger.Info("cart_item_added", "Item added to cart", web.RequestID(c), map[string]interface{}{
		"cart_id":  view.ID.String(),
		"dish_id":  req.DishID.String(),
		"quantity": req.quantity(),
	})
	c.JSON(http.StatusOK, view)
}

// DecreaseItem handles POST /cart/decrease-item
func (h *Handler) DecreaseItem(c *gin.Context) {
	customer, req, ok := h.bind(c)
	if !ok {
		return
	}

	view, err := h.service.DecreaseItem(c.Request.Context(), customer.ID, req.DishID, req.quantity())
	if err != nil {
		web.WriteError(c, h.logger, "cart_decrease_failed", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveItem handles POST /cart/remove-item
func (h *Handler) RemoveItem(c *gin.Context) {
	customer, req, ok := h.bind(c)
	if !ok {
		return
	}

	view, err := h.service.RemoveItem(c.Request.Context(), customer.ID, req.DishID)
	if err != nil {
		web.WriteError(c, h.logger, "cart_remove_failed", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ClearCart handles DELETE /cart
func (h *Handler) ClearCart(c *gin.Context) {
	customer, ok := auth.PrincipalFrom(c)
	if !ok {
		web.WriteStatus(c, http.StatusUnauthorized, "authentication required")
		return
	}

	view, err := h.service.ClearCart(c.Request.Context(), customer.ID)
	if err != nil {
		web.WriteError(c, h.logger, "cart_clear_failed", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) bind(c *gin.Context) (models.Principal, itemRequest, bool) {
	var req itemRequest
	customer, ok := auth.PrincipalFrom(c)
	if !ok {
		web.WriteStatus(c, http.StatusUnauthorized, "authentication required")
		return customer, req, false
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("validation_failed", "Failed to parse request body", web.RequestID(c), map[string]interface{}{
			"error": err.Error(),
		})
		web.WriteStatus(c, http.StatusBadRequest, "Invalid JSON format")
		return customer, req, false
	}
	if req.DishID == uuid.Nil {
		web.WriteError(c, h.logger, "validation_failed", models.Validation("dish_id", "is required"))
		return customer, req, false
	}
	return customer, req, true
}
