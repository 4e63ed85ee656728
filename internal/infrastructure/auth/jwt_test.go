package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteworks/backend/internal/infrastructure/config"
)

func testService(expiration time.Duration) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-for-unit-tests-0123456789",
		AccessTokenExpiration: expiration,
		Issuer:                "siteworks-backend",
	})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := testService(15 * time.Minute)
	userID := uuid.New()

	token, expiresAt, err := svc.GenerateToken(GenerateTokenInput{
		UserID:       userID,
		Username:     "ravi",
		Capabilities: []string{"purchase_order:approve1", "cash_voucher:approve"},
	})
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	parsed, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
	assert.Equal(t, "ravi", claims.Username)
	assert.True(t, claims.HasCapability("cash_voucher:approve"))
	assert.False(t, claims.HasCapability("cash_voucher:suspend"))
}

func TestJWTService_ValidateErrors(t *testing.T) {
	svc := testService(15 * time.Minute)

	t.Run("rejects garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		expired := testService(-time.Minute)
		token, _, err := expired.GenerateToken(GenerateTokenInput{UserID: uuid.New()})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("rejects token signed with another secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "another-secret-entirely-9876543210abcdef",
			AccessTokenExpiration: 15 * time.Minute,
			Issuer:                "siteworks-backend",
		})
		token, _, err := other.GenerateToken(GenerateTokenInput{UserID: uuid.New()})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestCapabilityRegistry(t *testing.T) {
	registry := NewCapabilityRegistry()
	actor := uuid.New()

	assert.False(t, registry.HasCapability(actor, "purchase_order:approve1"))

	registry.Grant(actor, []string{"purchase_order:approve1"})
	assert.True(t, registry.HasCapability(actor, "purchase_order:approve1"))
	assert.False(t, registry.HasCapability(actor, "purchase_order:approve2"))

	// a fresh grant replaces the previous set
	registry.Grant(actor, []string{"purchase_order:approve2"})
	assert.False(t, registry.HasCapability(actor, "purchase_order:approve1"))
	assert.True(t, registry.HasCapability(actor, "purchase_order:approve2"))
}
