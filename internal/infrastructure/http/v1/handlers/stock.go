package handlers

import (
	"github.com/gin-gonic/gin"

	"shopcore/internal/domain/registers/stock"
	"shopcore/internal/infrastructure/http/v1/dto"
)

// StockHandler handles stock history endpoints.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

func (h *StockHandler) historyFilter(c *gin.Context) stock.HistoryFilter {
	filter := stock.HistoryFilter{
		FromDate: h.ParseDateQuery(c, "fromDate"),
		ToDate:   h.ParseDateQuery(c, "toDate"),
		Limit:    h.ParseIntQuery(c, "limit", 50),
		Offset:   h.ParseIntQuery(c, "offset", 0),
	}
	if t := c.Query("voucherType"); t != "" {
		filter.VoucherType = &t
	}
	return filter
}

// History handles GET /stock/history.
func (h *StockHandler) History(c *gin.Context) {
	result, err := h.service.History(c.Request.Context(), h.historyFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result))
}

// ProductHistory handles GET /products/:id/stock-history.
func (h *StockHandler) ProductHistory(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	entries, err := h.service.ProductHistory(c.Request.Context(), productID, h.historyFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}

// VoucherHistory handles GET /vouchers/:id/stock-history.
func (h *StockHandler) VoucherHistory(c *gin.Context) {
	voucherID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	entries, err := h.service.VoucherHistory(c.Request.Context(), voucherID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}
