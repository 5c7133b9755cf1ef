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

type announcementService interface {
	Create(ctx context.Context, identity *models.Identity, req dto.CreateAnnouncementRequest) (*models.Announcement, error)
	List(ctx context.Context, query dto.AnnouncementListQuery) ([]models.Announcement, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Announcement, error)
	Headers(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, identity *models.Identity, req dto.CreateCategoryRequest) (*models.Category, error)
	ToggleLike(ctx context.Context, identity *models.Identity, id string, req dto.LikeRequest) (*models.Announcement, error)
	AddComment(ctx context.Context, identity *models.Identity, id string, req dto.CommentRequest) (*models.Announcement, error)
	AddReply(ctx context.Context, identity *models.Identity, id string, req dto.ReplyRequest) (*models.Announcement, error)
	Update(ctx context.Context, identity *models.Identity, id string, req dto.UpdateAnnouncementRequest) (*models.Announcement, error)
	Delete(ctx context.Context, identity *models.Identity, id string) error
}

// AnnouncementHandler serves the announcement board.
type AnnouncementHandler struct {
	service announcementService
}

// NewAnnouncementHandler constructs the handler.
func NewAnnouncementHandler(svc announcementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: svc}
}

// List godoc
// @Summary List announcements
// @Description Newest first, optionally filtered by header
// @Tags Announcements
// @Produce json
// @Param header query string false "Header filter"
// @Param limit query int false "Page size"
// @Param skip query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	var query dto.AnnouncementListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get announcement
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /announcements/{id} [get]
func (h *AnnouncementHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Headers godoc
// @Summary List announcement headers
// @Tags Announcements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /announcements/headers [get]
func (h *AnnouncementHandler) Headers(c *gin.Context) {
	categories, err := h.service.Headers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}

// Create godoc
// @Summary Publish announcement
// @Description Requires the src or admin role
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body dto.CreateAnnouncementRequest true "Announcement payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req dto.CreateAnnouncementRequest
	if err := bindJSON(c, &req, "invalid announcement payload"); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.Create(c.Request.Context(), identityFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Edit announcement
// @Description Allowed for the author or an admin
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path string true "Announcement ID"
// @Param payload body dto.UpdateAnnouncementRequest true "Announcement payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /announcements/{id} [put]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	var req dto.UpdateAnnouncementRequest
	if err := bindJSON(c, &req, "invalid announcement payload"); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.Update(c.Request.Context(), identityFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete announcement
// @Tags Announcements
// @Param id path string true "Announcement ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), identityFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Like godoc
// @Summary Like or unlike
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path string true "Announcement ID"
// @Param payload body dto.LikeRequest true "Like payload"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id}/like [post]
func (h *AnnouncementHandler) Like(c *gin.Context) {
	var req dto.LikeRequest
	if err := bindJSON(c, &req, "invalid like payload"); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.ToggleLike(c.Request.Context(), identityFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Comment godoc
// @Summary Comment on an announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path string true "Announcement ID"
// @Param payload body dto.CommentRequest true "Comment payload"
// @Success 201 {object} response.Envelope
// @Router /announcements/{id}/comments [post]
func (h *AnnouncementHandler) Comment(c *gin.Context) {
	var req dto.CommentRequest
	if err := bindJSON(c, &req, "invalid comment payload"); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.AddComment(c.Request.Context(), identityFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Reply godoc
// @Summary Reply to a comment
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path string true "Announcement ID"
// @Param payload body dto.ReplyRequest true "Reply payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /announcements/{id}/replies [post]
func (h *AnnouncementHandler) Reply(c *gin.Context) {
	var req dto.ReplyRequest
	if err := bindJSON(c, &req, "invalid reply payload"); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.AddReply(c.Request.Context(), identityFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// CreateCategory godoc
// @Summary Register an announcement header
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body dto.CreateCategoryRequest true "Category payload"
// @Success 201 {object} response.Envelope
// @Router /admin/announcement-categories [post]
func (h *AnnouncementHandler) CreateCategory(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if err := bindJSON(c, &req, "invalid category payload"); err != nil {
		response.Error(c, err)
		return
	}
	category, err := h.service.CreateCategory(c.Request.Context(), identityFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}
