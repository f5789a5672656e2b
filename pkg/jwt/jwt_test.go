package jwt

import (
	"testing"
	"time"

	"clinic-appointment-server/config"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims Claims, secret string) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() Claims {
	return Claims{
		UserID:    uuid.New(),
		Email:     "doctor@clinic.test",
		RoleID:    2,
		TokenType: AccessToken,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(15 * time.Minute)),
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		},
	}
}

func TestValidateToken(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: testSecret})
	claims := validClaims()

	parsed, err := svc.ValidateToken(signToken(t, claims, testSecret))
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, parsed.UserID)
	assert.Equal(t, claims.Email, parsed.Email)
	assert.Equal(t, claims.RoleID, parsed.RoleID)
	assert.Equal(t, AccessToken, parsed.TokenType)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: testSecret})

	_, err := svc.ValidateToken(signToken(t, validClaims(), "other-secret"))
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: testSecret})
	claims := validClaims()
	claims.ExpiresAt = jwtlib.NewNumericDate(time.Now().Add(-time.Minute))

	_, err := svc.ValidateToken(signToken(t, claims, testSecret))
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongAlgorithm(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: testSecret})

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, validClaims())
	signed, err := token.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)
}
