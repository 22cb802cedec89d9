package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTService(ttl time.Duration) *JWTService {
	cfg := DefaultJWTConfig("test-secret")
	cfg.AccessTokenTTL = ttl
	return NewJWTService(cfg)
}

func TestJWT_RoundTrip(t *testing.T) {
	svc := testJWTService(15 * time.Minute)

	roles := []string{RoleManager}
	caps := CapabilitiesFor(roles)
	token, expiresAt, err := svc.GenerateAccessToken("user-1", "m@shop.local", roles, caps, false)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", uc.UserID)
	assert.Equal(t, "m@shop.local", uc.Email)
	assert.Equal(t, roles, uc.Roles)
	assert.Equal(t, caps, uc.Capabilities)
	assert.False(t, uc.IsAdmin)
}

func TestJWT_AdminFlagSurvives(t *testing.T) {
	svc := testJWTService(15 * time.Minute)

	token, _, err := svc.GenerateAccessToken("admin-1", "a@shop.local", []string{RoleAdmin}, nil, true)
	require.NoError(t, err)

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, uc.IsAdmin)
}

func TestJWT_WrongSecretRejected(t *testing.T) {
	svc := testJWTService(15 * time.Minute)
	other := NewJWTService(DefaultJWTConfig("different-secret"))

	token, _, err := svc.GenerateAccessToken("user-1", "m@shop.local", nil, nil, false)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWT_ExpiredTokenRejected(t *testing.T) {
	svc := testJWTService(-1 * time.Minute)

	token, _, err := svc.GenerateAccessToken("user-1", "m@shop.local", nil, nil, false)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWT_GarbageRejected(t *testing.T) {
	svc := testJWTService(15 * time.Minute)

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestCapabilitiesFor(t *testing.T) {
	caps := CapabilitiesFor([]string{RoleManager})
	assert.Contains(t, caps, CapProductWrite)
	assert.Contains(t, caps, CapVoucherApprove)
	assert.NotContains(t, caps, CapFinanceWrite)

	assert.Empty(t, CapabilitiesFor([]string{RoleCustomer}))
	assert.Empty(t, CapabilitiesFor(nil))

	// duplicates collapse
	caps = CapabilitiesFor([]string{RoleManager, RoleManager})
	seen := map[string]int{}
	for _, c := range caps {
		seen[c]++
	}
	for c, n := range seen {
		assert.Equal(t, 1, n, c)
	}
}
