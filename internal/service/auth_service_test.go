package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certiva/certiva-backend/internal/config"
)

func testAuthService() *AuthService {
	return NewAuthService(&config.Config{
		JWTSecret: "test-secret-do-not-use",
		JWTExpiry: time.Hour,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	svc := testAuthService()
	subject := uuid.New()

	token, err := svc.GenerateToken(subject, RoleExaminer)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, RoleExaminer, claims.Role)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, subject, id)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := testAuthService().GenerateToken(uuid.New(), RoleStudent)
	require.NoError(t, err)

	other := NewAuthService(&config.Config{
		JWTSecret: "another-secret",
		JWTExpiry: time.Hour,
	})

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := testAuthService().ValidateToken("not.a.token")
	assert.Error(t, err)
}
