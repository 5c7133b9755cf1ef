package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/internal/middleware"
	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/response"
)

type userService interface {
	Profile(ctx context.Context, identity *models.Identity) (*models.UserInfo, error)
	UpdateProfile(ctx context.Context, identity *models.Identity, req dto.UpdateProfileRequest) (*models.UserInfo, error)
	List(ctx context.Context, query dto.UserListQuery) ([]models.UserInfo, *models.Pagination, error)
	ChangeRole(ctx context.Context, actor *models.Identity, req dto.ChangeRoleRequest) (*models.UserInfo, error)
}

type roleLister interface {
	List(ctx context.Context) ([]models.Role, error)
}

// UserHandler covers self-service profiles and admin user management.
type UserHandler struct {
	users userService
	roles roleLister
}

// NewUserHandler constructs the handler.
func NewUserHandler(users userService, roles roleLister) *UserHandler {
	return &UserHandler{users: users, roles: roles}
}

// Profile godoc
// @Summary Current user profile
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /profile [get]
func (h *UserHandler) Profile(c *gin.Context) {
	info, err := h.users.Profile(c.Request.Context(), identityFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// UpdateProfile godoc
// @Summary Update current user profile
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body dto.UpdateProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := bindJSON(c, &req, "invalid profile payload"); err != nil {
		response.Error(c, err)
		return
	}
	info, err := h.users.UpdateProfile(c.Request.Context(), identityFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param search query string false "Name, email or student id"
// @Param role query string false "Role name"
// @Param limit query int false "Page size"
// @Param skip query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	var query dto.UserListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	users, pagination, err := h.users.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination, middleware.ExtractMeta(c))
}

// ChangeRole godoc
// @Summary Assign a role
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.ChangeRoleRequest true "Role payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users [put]
func (h *UserHandler) ChangeRole(c *gin.Context) {
	var req dto.ChangeRoleRequest
	if err := bindJSON(c, &req, "invalid role payload"); err != nil {
		response.Error(c, err)
		return
	}
	info, err := h.users.ChangeRole(c.Request.Context(), identityFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// Roles godoc
// @Summary List roles
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/roles [get]
func (h *UserHandler) Roles(c *gin.Context) {
	roles, err := h.roles.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roles, nil)
}
