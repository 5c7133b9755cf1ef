package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

type authServiceMock struct {
	resp *models.AuthResponse
	err  error
}

func (m *authServiceMock) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	return m.resp, m.err
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	return m.resp, m.err
}

func TestAuthHandlerLoginSetsCookie(t *testing.T) {
	svc := &authServiceMock{resp: &models.AuthResponse{Token: "signed", ExpiresAt: time.Now().Add(time.Hour), User: models.UserInfo{ID: "u1"}}}
	h := NewAuthHandler(svc, CookieConfig{Name: "token", Secure: true})

	payload, _ := json.Marshal(models.LoginRequest{StudentID: "11223344", Password: "secret1"})
	c, w := newGinContext(http.MethodPost, "/auth/login", payload)

	h.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Equal(t, "signed", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
}

func TestAuthHandlerRegisterCreated(t *testing.T) {
	svc := &authServiceMock{resp: &models.AuthResponse{Token: "signed", ExpiresAt: time.Now().Add(time.Hour)}}
	h := NewAuthHandler(svc, CookieConfig{})

	payload, _ := json.Marshal(models.RegisterRequest{Name: "Ama Mensah", Email: "ama@example.com", StudentID: "11223344", Password: "secret1"})
	c, w := newGinContext(http.MethodPost, "/auth/register", payload)

	h.Register(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, w.Result().Cookies(), 1)
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{err: appErrors.ErrInvalidCredentials}, CookieConfig{})
	payload, _ := json.Marshal(models.LoginRequest{StudentID: "11223344", Password: "wrong"})
	c, w := newGinContext(http.MethodPost, "/auth/login", payload)

	h.Login(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestAuthHandlerLogoutClearsCookie(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{}, CookieConfig{Name: "session"})
	c, w := newGinContext(http.MethodPost, "/auth/logout", nil)

	h.Logout(c)
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestAuthHandlerMe(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{}, CookieConfig{})

	c, w := newGinContext(http.MethodGet, "/auth/me", nil)
	h.Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newGinContext(http.MethodGet, "/auth/me", nil)
	withIdentity(c, studentIdentity)
	h.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Identity
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &got))
	assert.Equal(t, *studentIdentity, got)
}
