package service

import (
	"testing"
	"time"

	"balance-ledger/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key-0123456789abcdef", time.Hour, "balance-ledger")

	caps := domain.Capabilities{CanAllowNegative: true, CanEdit: true}
	token, expiry, err := svc.Generate("op1", caps, "agent-a", "north")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "op1", claims.Username)
	assert.Equal(t, "agent-a", claims.AgentName)
	assert.Equal(t, "north", claims.Branch)
	assert.True(t, claims.Capabilities.CanAllowNegative)
	assert.True(t, claims.Capabilities.CanEdit)
}

func TestJWTTokenService_CapabilitiesDefaultFalse(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key-0123456789abcdef", time.Hour, "balance-ledger")

	token, _, err := svc.Generate("op2", domain.Capabilities{}, "agent-b", "south")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.False(t, claims.Capabilities.CanAllowNegative)
	assert.False(t, claims.Capabilities.CanEdit)
}

func TestJWTTokenService_RejectsWrongSecret(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key-0123456789abcdef", time.Hour, "balance-ledger")
	other := NewJWTTokenService("another-secret-key-fedcba98765432", time.Hour, "balance-ledger")

	token, _, err := svc.Generate("op1", domain.Capabilities{}, "agent-a", "north")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key-0123456789abcdef", -time.Minute, "balance-ledger")

	token, _, err := svc.Generate("op1", domain.Capabilities{}, "agent-a", "north")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_RejectsGarbage(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key-0123456789abcdef", time.Hour, "balance-ledger")

	_, err := svc.Validate("not.a.token")
	assert.Error(t, err)
}
