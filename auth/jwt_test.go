package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheels/config"
	"wheels/models"
)

func newService() *JWTService {
	return NewJWTService(config.JWTConfig{Secret: "test-secret", ExpiryMinutes: 5})
}

func TestTokenRoundTrip(t *testing.T) {
	s := newService()
	token, err := s.GenerateToken("u1", "Ana", models.RoleDriver)
	require.NoError(t, err)

	sess, err := s.Session(token)
	require.NoError(t, err)
	assert.Equal(t, models.Session{UserID: "u1", Role: models.RoleDriver, Name: "Ana"}, sess)
}

func TestTokenRejectsOtherSecret(t *testing.T) {
	token, err := newService().GenerateToken("u1", "Ana", models.RoleRider)
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{Secret: "other", ExpiryMinutes: 5})
	_, err = other.Session(token)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	s := NewJWTService(config.JWTConfig{Secret: "test-secret", ExpiryMinutes: -1})
	token, err := s.GenerateToken("u1", "Ana", models.RoleRider)
	require.NoError(t, err)
	_, err = s.Session(token)
	assert.Error(t, err)
}

func TestGenerateTokenValidatesRole(t *testing.T) {
	_, err := newService().GenerateToken("u1", "Ana", models.Role("admin"))
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	s := newService()
	var seen models.Session
	h := s.Middleware(RequireRole(models.RoleDriver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = SessionFrom(r.Context())
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rider, _ := s.GenerateToken("r1", "Luis", models.RoleRider)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+rider)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	driver, _ := s.GenerateToken("d1", "Ana", models.RoleDriver)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+driver)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "d1", seen.UserID)
}
