package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt"

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	svc := NewJWTService(testSecret, "1h")

	token, expiresAt, err := svc.GenerateAccessToken("operator-1", "payroll_admin")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Greater(t, expiresAt, time.Now().Unix())

	userID, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "operator-1", userID)
}

func TestGenerateAccessToken_InvalidExpiration(t *testing.T) {
	svc := NewJWTService(testSecret, "soon")

	_, _, err := svc.GenerateAccessToken("operator-1", "payroll_admin")
	assert.Error(t, err)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	svc := NewJWTService(testSecret, "1h").(*JWTService)
	svc.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }

	token, _, err := svc.GenerateAccessToken("operator-1", "payroll_admin")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateAccessToken_WrongType(t *testing.T) {
	svc := NewJWTService(testSecret, "1h")

	_, token, err := svc.JWTAuth().Encode(map[string]interface{}{
		"user_id": "operator-1",
		"type":    "refresh",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_OtherSecret(t *testing.T) {
	issuer := NewJWTService("another-secret", "1h")
	token, _, err := issuer.GenerateAccessToken("operator-1", "payroll_admin")
	require.NoError(t, err)

	_, err = NewJWTService(testSecret, "1h").ValidateAccessToken(token)
	assert.Error(t, err)
}
