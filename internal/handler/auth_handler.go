package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/response"
)

type authService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	cookie  CookieConfig
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookie CookieConfig) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	return &AuthHandler{service: svc, cookie: cookie}
}

func (h *AuthHandler) setSession(c *gin.Context, res *models.AuthResponse) {
	maxAge := int(time.Until(res.ExpiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, res.Token, maxAge, "/", "", h.cookie.Secure, true)
}

// Register godoc
// @Summary Register a student account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := bindJSON(c, &req, "invalid registration payload"); err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setSession(c, res)
	response.Created(c, res)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by student id or email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := bindJSON(c, &req, "invalid login payload"); err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setSession(c, res)
	response.JSON(c, http.StatusOK, res, nil)
}

// Logout godoc
// @Summary Logout current session
// @Description Clears the session cookie
// @Tags Authentication
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	response.NoContent(c)
}

// Me godoc
// @Summary Current identity
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, identity, nil)
}
