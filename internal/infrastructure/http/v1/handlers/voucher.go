package handlers

import (
	"github.com/gin-gonic/gin"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/id"
	"shopcore/internal/domain/documents/voucher"
	"shopcore/internal/infrastructure/http/v1/dto"
)

// VoucherHandler handles inventory voucher endpoints.
type VoucherHandler struct {
	*BaseHandler
	service *voucher.Service
}

// NewVoucherHandler creates a new voucher handler.
func NewVoucherHandler(base *BaseHandler, service *voucher.Service) *VoucherHandler {
	return &VoucherHandler{BaseHandler: base, service: service}
}

// Create handles POST /vouchers.
func (h *VoucherHandler) Create(c *gin.Context) {
	var req dto.CreateVoucherRequest
	if !h.BindJSON(c, &req) {
		return
	}

	v := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), v); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, v)
}

// CreateFromOrder handles POST /vouchers/from-order.
func (h *VoucherHandler) CreateFromOrder(c *gin.Context) {
	var req dto.VoucherFromOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	orderID, err := id.Parse(req.OrderID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid order id").WithDetail("field", "orderId"))
		return
	}

	v, err := h.service.CreateFromOrder(c.Request.Context(), orderID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, v)
}

// GetByID handles GET /vouchers/:id.
func (h *VoucherHandler) GetByID(c *gin.Context) {
	voucherID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	v, err := h.service.GetByID(c.Request.Context(), voucherID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// Update handles PUT /vouchers/:id. Only pending vouchers accept updates.
func (h *VoucherHandler) Update(c *gin.Context) {
	voucherID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateVoucherRequest
	if !h.BindJSON(c, &req) {
		return
	}

	v, err := h.service.Update(c.Request.Context(), voucherID, req.Reason, req.Notes, req.Lines())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// Delete handles DELETE /vouchers/:id.
func (h *VoucherHandler) Delete(c *gin.Context) {
	voucherID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), voucherID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Approve handles POST /vouchers/:id/approve.
func (h *VoucherHandler) Approve(c *gin.Context) {
	voucherID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	v, err := h.service.Approve(c.Request.Context(), voucherID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// Reject handles POST /vouchers/:id/reject.
func (h *VoucherHandler) Reject(c *gin.Context) {
	voucherID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.RejectVoucherRequest
	if !h.BindJSON(c, &req) {
		return
	}

	v, err := h.service.Reject(c.Request.Context(), voucherID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// Cancel handles POST /vouchers/:id/cancel.
func (h *VoucherHandler) Cancel(c *gin.Context) {
	voucherID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	v, err := h.service.Cancel(c.Request.Context(), voucherID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// List handles GET /vouchers.
func (h *VoucherHandler) List(c *gin.Context) {
	filter := voucher.Filter{
		Search:   c.Query("search"),
		Limit:    h.ParseIntQuery(c, "limit", 50),
		Offset:   h.ParseIntQuery(c, "offset", 0),
		FromDate: h.ParseDateQuery(c, "fromDate"),
		ToDate:   h.ParseDateQuery(c, "toDate"),
	}
	if t := c.Query("type"); t != "" {
		vt := voucher.Type(t)
		filter.Type = &vt
	}
	if st := c.Query("status"); st != "" {
		vs := voucher.Status(st)
		filter.Status = &vs
	}
	if raw := c.Query("orderId"); raw != "" {
		orderID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid order id").WithDetail("param", "orderId"))
			return
		}
		filter.OrderID = &orderID
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result))
}
