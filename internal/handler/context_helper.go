package handler

import (
	"mime/multipart"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/middleware"
	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

func identityFromContext(c *gin.Context) *models.Identity {
	return middleware.CurrentIdentity(c)
}

func bindJSON(c *gin.Context, dest interface{}, message string) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	return nil
}

// formFile opens the multipart "file" field. Callers close the returned file.
func formFile(c *gin.Context) (multipart.File, *multipart.FileHeader, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	src, err := header.Open()
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	return src, header, nil
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}
