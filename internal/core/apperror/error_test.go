package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactories(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"validation", NewValidation("bad"), CodeValidation, http.StatusBadRequest},
		{"not found", NewNotFound("product", "abc"), CodeNotFound, http.StatusNotFound},
		{"invalid transition", NewInvalidTransition("voucher", "approved", "approve"), CodeInvalidTransition, http.StatusUnprocessableEntity},
		{"invalid status", NewInvalidStatus("shipped"), CodeInvalidStatus, http.StatusUnprocessableEntity},
		{"invalid order status", NewInvalidOrderStatus("o1", "pending"), CodeInvalidOrderStatus, http.StatusUnprocessableEntity},
		{"cannot cancel completed", NewCannotCancelCompleted("o1"), CodeCannotCancelCompleted, http.StatusUnprocessableEntity},
		{"concurrent modification", NewConcurrentModification("order", "o1"), CodeConcurrentModification, http.StatusConflict},
		{"unauthorized", NewUnauthorized("nope"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", NewForbidden("nope"), CodeForbidden, http.StatusForbidden},
		{"conflict", NewConflict("dup"), CodeConflict, http.StatusConflict},
		{"duplicate", NewDuplicate("product", "sku", "X"), CodeDuplicate, http.StatusConflict},
		{"internal", NewInternal(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}
}

func TestInsufficientStock_EnumeratesAllShortages(t *testing.T) {
	err := NewInsufficientStock([]StockShortage{
		{ProductID: "p1", ProductName: "Mouse", Requested: 10, Available: 3},
		{ProductID: "p2", ProductName: "Keyboard", Requested: 5, Available: 0},
	})

	require.Equal(t, CodeInsufficientStock, err.Code)
	assert.Contains(t, err.Message, "Mouse (requested 10, available 3)")
	assert.Contains(t, err.Message, "Keyboard (requested 5, available 0)")

	items, ok := err.Details["items"].([]StockShortage)
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestNegativeStock_Message(t *testing.T) {
	err := NewNegativeStock("p1", 3, -5)

	assert.Equal(t, CodeNegativeStock, err.Code)
	assert.Contains(t, err.Message, "3-5")
	assert.Equal(t, int64(3), err.Details["before"])
	assert.Equal(t, int64(-5), err.Details["delta"])
}

func TestAsAppError_ThroughWrapping(t *testing.T) {
	inner := NewNotFound("order", "o1")
	wrapped := fmt.Errorf("load order: %w", inner)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, appErr.Code)

	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(wrapped))
}

func TestGetHTTPStatus_Fallback(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("plain")))
}

func TestWithDetailAndCause(t *testing.T) {
	cause := errors.New("root cause")
	err := NewValidation("bad field").
		WithDetail("field", "name").
		WithCause(cause)

	assert.Equal(t, "name", err.Details["field"])
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "root cause")
}

func TestIsCodeHelpers(t *testing.T) {
	assert.True(t, IsInvalidTransition(NewInvalidTransition("order", "cancelled", "pay")))
	assert.True(t, IsInsufficientStock(NewInsufficientStock(nil)))
	assert.True(t, IsConcurrentModification(NewConcurrentModification("product", "p1")))
	assert.False(t, IsNotFound(NewValidation("x")))
	assert.False(t, IsCode(nil, CodeNotFound))
}
