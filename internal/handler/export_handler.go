package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/service"
	"github.com/noah-isme/student-portal-api/pkg/export"
	"github.com/noah-isme/student-portal-api/pkg/response"
)

type exportService interface {
	ExportAccounts(ctx context.Context, rawStatus, rawFormat string) (*service.ExportFile, error)
	ExportUsers(ctx context.Context, rawFormat string) (*service.ExportFile, error)
}

// ExportHandler serves ledger and user downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Accounts godoc
// @Summary Export ledger entries
// @Tags Exports
// @Produce octet-stream
// @Param status query string false "Filter by status"
// @Param format query string false "xlsx, csv, pdf or json"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/export/accounts [get]
func (h *ExportHandler) Accounts(c *gin.Context) {
	file, err := h.service.ExportAccounts(c.Request.Context(), c.Query("status"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, file)
}

// Users godoc
// @Summary Export users
// @Tags Exports
// @Produce octet-stream
// @Param format query string false "xlsx, csv, pdf or json"
// @Success 200 {file} file
// @Router /admin/export/users [get]
func (h *ExportHandler) Users(c *gin.Context) {
	file, err := h.service.ExportUsers(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, file)
}

func writeExport(c *gin.Context, file *service.ExportFile) {
	if file.Format == export.FormatJSON {
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, file.ContentType, file.Data)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
