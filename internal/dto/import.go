package dto

import "github.com/noah-isme/student-portal-api/internal/models"

// ImportJobResponse reports an asynchronous import with a short-lived link to
// the uploaded source file.
type ImportJobResponse struct {
	models.ImportJob
	SourceURL       string `json:"sourceUrl,omitempty"`
	SourceExpiresAt string `json:"sourceExpiresAt,omitempty"`
}
