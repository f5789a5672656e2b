package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clinic-appointment-server/config"
	"clinic-appointment-server/pkg/jwt"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signTestToken(t *testing.T, userID uuid.UUID, roleID int, tokenType jwt.TokenType) string {
	t.Helper()
	claims := jwt.Claims{
		UserID:    userID,
		Email:     "user@clinic.test",
		RoleID:    roleID,
		TokenType: tokenType,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestAuthenticate(t *testing.T) {
	m := NewAuthMiddleware(jwt.NewJWTService(config.JWTConfig{Secret: testSecret}))
	userID := uuid.New()

	var gotUserID uuid.UUID
	var gotRoleID int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserIDFromContext(r.Context())
		gotRoleID, _ = GetRoleIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, userID, 3, jwt.AccessToken))
	rec := httptest.NewRecorder()

	m.Authenticate(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotUserID)
	assert.Equal(t, 3, gotRoleID)
}

func TestAuthenticateRejects(t *testing.T) {
	m := NewAuthMiddleware(jwt.NewJWTService(config.JWTConfig{Secret: testSecret}))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "Token abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"refresh token", "Bearer " + signTestToken(t, uuid.New(), 3, jwt.RefreshToken)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			m.Authenticate(next).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	m := NewAuthMiddleware(jwt.NewJWTService(config.JWTConfig{Secret: testSecret}))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	protected := m.Authenticate(RequireDoctor(next))

	req := httptest.NewRequest(http.MethodPatch, "/appointments/123/confirm", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, uuid.New(), 2, jwt.AccessToken))
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPatch, "/appointments/123/confirm", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, uuid.New(), 3, jwt.AccessToken))
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
