package handlers

import (
	"github.com/gin-gonic/gin"

	"shopcore/internal/core/apperror"
	shopcontext "shopcore/internal/core/context"
	"shopcore/internal/domain/auth"
	"shopcore/internal/domain/documents/order"
	"shopcore/internal/infrastructure/http/v1/dto"
)

// OrderHandler handles order endpoints.
type OrderHandler struct {
	*BaseHandler
	service *order.Service
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service *order.Service) *OrderHandler {
	return &OrderHandler{BaseHandler: base, service: service}
}

// Create handles POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), o); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, o)
}

// GetByID handles GET /orders/:id. Customers only see their own orders.
func (h *OrderHandler) GetByID(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	o, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if !h.canViewOrder(c, o) {
		h.Error(c, apperror.NewForbidden("order belongs to another user"))
		return
	}
	h.OK(c, o)
}

// Pay handles POST /orders/:id/pay.
func (h *OrderHandler) Pay(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.PayOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.MarkPaid(c.Request.Context(), orderID, req.ToPaymentResult())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// SetStatus handles PUT /orders/:id/status.
func (h *OrderHandler) SetStatus(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.SetOrderStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.SetStatus(c.Request.Context(), orderID, order.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// Cancel handles POST /orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	existing, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if !h.canViewOrder(c, existing) {
		h.Error(c, apperror.NewForbidden("order belongs to another user"))
		return
	}

	o, err := h.service.Cancel(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// List handles GET /orders. Customers are scoped to their own orders;
// managers and admins may list across users.
func (h *OrderHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	filter := order.Filter{
		Limit:    h.ParseIntQuery(c, "limit", 50),
		Offset:   h.ParseIntQuery(c, "offset", 0),
		FromDate: h.ParseDateQuery(c, "fromDate"),
		ToDate:   h.ParseDateQuery(c, "toDate"),
	}
	if st := c.Query("status"); st != "" {
		os := order.Status(st)
		filter.Status = &os
	}
	if raw := c.Query("isPaid"); raw != "" {
		paid := raw == "true"
		filter.IsPaid = &paid
	}

	if shopcontext.HasCapability(ctx, auth.CapOrderManage) {
		filter.UserID = c.Query("userId")
	} else {
		filter.UserID = h.GetUserID(c)
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result))
}

func (h *OrderHandler) canViewOrder(c *gin.Context, o *order.Order) bool {
	ctx := c.Request.Context()
	if shopcontext.HasCapability(ctx, auth.CapOrderManage) {
		return true
	}
	return o.UserID == h.GetUserID(c)
}
