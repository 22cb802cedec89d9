package handlers

import (
	"github.com/gin-gonic/gin"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/id"
	"shopcore/internal/domain/payment"
	"shopcore/internal/infrastructure/http/v1/dto"
)

// PaymentHandler handles payment session endpoints.
type PaymentHandler struct {
	*BaseHandler
	service *payment.Service
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(base *BaseHandler, service *payment.Service) *PaymentHandler {
	return &PaymentHandler{BaseHandler: base, service: service}
}

// Begin handles POST /payments.
func (h *PaymentHandler) Begin(c *gin.Context) {
	var req dto.BeginPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	orderID, err := id.Parse(req.OrderID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid order id").WithDetail("field", "orderId"))
		return
	}

	session, err := h.service.Begin(c.Request.Context(), orderID, req.Method)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, session)
}

// Resolve handles POST /payments/:id/resolve.
func (h *PaymentHandler) Resolve(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.ResolvePaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	session, err := h.service.Resolve(c.Request.Context(), sessionID, req.Succeeded, req.GatewayID, req.GatewayStatus)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, session)
}

// GetByID handles GET /payments/:id.
func (h *PaymentHandler) GetByID(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	session, err := h.service.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, session)
}
