package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/id"
	"shopcore/internal/core/types"
)

func validSession() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id.New(),
		OrderID:   id.New(),
		Amount:    types.MustMoney("49.99"),
		Method:    "card",
		Status:    SessionOpen,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(15 * time.Minute),
	}
}

func TestSessionValidate(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, validSession().Validate(ctx))

	s := validSession()
	s.OrderID = id.ID{}
	assert.True(t, apperror.IsCode(s.Validate(ctx), apperror.CodeValidation))

	s = validSession()
	s.Amount = types.Zero()
	assert.True(t, apperror.IsCode(s.Validate(ctx), apperror.CodeValidation))

	s = validSession()
	s.Amount = types.MustMoney("-1")
	assert.True(t, apperror.IsCode(s.Validate(ctx), apperror.CodeValidation))

	s = validSession()
	s.Method = ""
	assert.True(t, apperror.IsCode(s.Validate(ctx), apperror.CodeValidation))
}

func TestSessionIsExpired(t *testing.T) {
	s := validSession()

	assert.False(t, s.IsExpired(s.ExpiresAt.Add(-time.Second)))
	assert.False(t, s.IsExpired(s.ExpiresAt))
	assert.True(t, s.IsExpired(s.ExpiresAt.Add(time.Second)))
}
