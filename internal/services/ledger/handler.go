package ledger

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"food-marketplace/internal/auth"
	"food-marketplace/internal/logger"
	"food-marketplace/internal/models"
	"food-marketplace/internal/web"
)

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

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OpenForOrder handles POST /orders/:id/transaction
func (h *Handler) OpenForOrder(c *gin.Context) {
	customer, ok := auth.PrincipalFrom(c)
	if !ok {
		web.WriteStatus(c, http.StatusUnauthorized, "authentication required")
		return
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		web.WriteError(c, h.logger, "validation_failed", models.Validation("id", "must be a valid uuid"))
		return
	}

	txn, err := h.service.Open(c.Request.Context(), orderID, customer.ID)
	if err != nil {
		web.WriteError(c, h.logger, "transaction_open_failed", err)
		return
	}

	h.logger.Info("transaction_opened", "Transaction opened", web.RequestID(c), map[string]interface{}{
		"order_id":  orderID.String(),
		"reference": txn.Reference,
		"amount":    txn.Amount.String(),
	})
	c.JSON(http.StatusCreated, txn)
}

// SetStatus handles POST /transactions/:reference/status
func (h *Handler) SetStatus(c *gin.Context) {
	caller, ok := auth.PrincipalFrom(c)
	if !ok {
		web.WriteStatus(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.WriteStatus(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	status, err := models.ParseTransactionStatus("status", req.Status)
	if err != nil {
		web.WriteError(c, h.logger, "validation_failed", err)
		return
	}

	txn, err := h.service.MarkStatusByReference(c.Request.Context(), c.Param("reference"), status, caller.Actor())
	if err != nil {
		web.WriteError(c, h.logger, "transaction_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, txn)
}
