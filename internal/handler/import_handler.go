package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/pkg/response"
)

type importService interface {
	ImportFile(ctx context.Context, filename string, r io.Reader, size int64) (*models.ImportResult, error)
	Enqueue(ctx context.Context, actor *models.Identity, filename string, r io.Reader, size int64) (*models.ImportJob, error)
	GetJob(ctx context.Context, id string) (*dto.ImportJobResponse, error)
}

// ImportHandler accepts ledger workbooks.
type ImportHandler struct {
	service importService
}

// NewImportHandler constructs the handler.
func NewImportHandler(svc importService) *ImportHandler {
	return &ImportHandler{service: svc}
}

// Upload godoc
// @Summary Import ledger workbook
// @Description Upserts ledger entries by contract number. With async=true the file is queued.
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx or csv workbook"
// @Param async query bool false "Process in the background"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /admin/imports [post]
func (h *ImportHandler) Upload(c *gin.Context) {
	src, header, err := formFile(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer src.Close()

	if queryBool(c, "async") {
		job, err := h.service.Enqueue(c.Request.Context(), identityFromContext(c), header.Filename, src, header.Size)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Accepted(c, job)
		return
	}

	result, err := h.service.ImportFile(c.Request.Context(), header.Filename, src, header.Size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Status godoc
// @Summary Import job status
// @Tags Imports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/imports/{id} [get]
func (h *ImportHandler) Status(c *gin.Context) {
	job, err := h.service.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}
