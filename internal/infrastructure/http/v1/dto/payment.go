package dto

// BeginPaymentRequest opens a payment session for an order.
type BeginPaymentRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Method  string `json:"method" binding:"required"`
}

// ResolvePaymentRequest closes a session with the gateway verdict.
type ResolvePaymentRequest struct {
	Succeeded     bool   `json:"succeeded"`
	GatewayID     string `json:"gatewayId,omitempty"`
	GatewayStatus string `json:"gatewayStatus,omitempty"`
}
