package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/pkg/response"
)

type uploadService interface {
	Upload(ctx context.Context, filename string, r io.Reader, size int64) (*dto.UploadResponse, error)
	OpenSigned(ctx context.Context, token string) (io.ReadCloser, string, error)
}

// UploadHandler stores student card images and serves signed downloads.
type UploadHandler struct {
	service uploadService
}

// NewUploadHandler constructs the handler.
func NewUploadHandler(svc uploadService) *UploadHandler {
	return &UploadHandler{service: svc}
}

// Upload godoc
// @Summary Upload a file
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image or PDF"
// @Success 201 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /uploads [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	src, header, err := formFile(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer src.Close()

	res, err := h.service.Upload(c.Request.Context(), header.Filename, src, header.Size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Download godoc
// @Summary Download a stored file via a signed token
// @Tags Uploads
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{token} [get]
func (h *UploadHandler) Download(c *gin.Context) {
	body, contentType, err := h.service.OpenSigned(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "private, no-store")
	c.DataFromReader(http.StatusOK, -1, contentType, body, nil)
}
