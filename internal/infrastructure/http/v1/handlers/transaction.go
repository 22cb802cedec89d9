package handlers

import (
	"github.com/gin-gonic/gin"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/id"
	"shopcore/internal/domain/finance"
	"shopcore/internal/infrastructure/http/v1/dto"
)

// TransactionHandler handles finance ledger endpoints.
type TransactionHandler struct {
	*BaseHandler
	service *finance.Service
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(base *BaseHandler, service *finance.Service) *TransactionHandler {
	return &TransactionHandler{BaseHandler: base, service: service}
}

// Create handles POST /transactions - a manual ledger posting.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req dto.CreateTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t := req.ToEntity()
	t.CreatedBy = h.GetUserID(c)

	if err := h.service.Post(c.Request.Context(), t); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, t)
}

// GetByID handles GET /transactions/:id.
func (h *TransactionHandler) GetByID(c *gin.Context) {
	txnID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	t, err := h.service.GetByID(c.Request.Context(), txnID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// List handles GET /transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	filter := finance.Filter{
		Limit:    h.ParseIntQuery(c, "limit", 50),
		Offset:   h.ParseIntQuery(c, "offset", 0),
		FromDate: h.ParseDateQuery(c, "fromDate"),
		ToDate:   h.ParseDateQuery(c, "toDate"),
	}
	if t := c.Query("type"); t != "" {
		tt := finance.TxnType(t)
		filter.Type = &tt
	}
	if cat := c.Query("category"); cat != "" {
		tc := finance.Category(cat)
		filter.Category = &tc
	}
	if raw := c.Query("orderId"); raw != "" {
		orderID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid order id").WithDetail("param", "orderId"))
			return
		}
		filter.OrderID = &orderID
	}
	if raw := c.Query("voucherId"); raw != "" {
		voucherID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid voucher id").WithDetail("param", "voucherId"))
			return
		}
		filter.VoucherID = &voucherID
	}
	if raw := c.Query("autoCreated"); raw != "" {
		auto := raw == "true"
		filter.AutoCreated = &auto
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result))
}

// Summary handles GET /transactions/summary.
func (h *TransactionHandler) Summary(c *gin.Context) {
	filter := finance.SummaryFilter{
		FromDate: h.ParseDateQuery(c, "fromDate"),
		ToDate:   h.ParseDateQuery(c, "toDate"),
	}
	sum, err := h.service.Summary(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sum)
}

// Breakdown handles GET /transactions/breakdown.
func (h *TransactionHandler) Breakdown(c *gin.Context) {
	filter := finance.SummaryFilter{
		FromDate: h.ParseDateQuery(c, "fromDate"),
		ToDate:   h.ParseDateQuery(c, "toDate"),
	}
	rows, err := h.service.CategoryBreakdown(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"categories": rows})
}
