package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/export"
)

var (
	accountExportHeaders = []string{"Full Names", "Contract Number", "Course of Study", "Bank Name", "Account Number", "Student ID", "Status", "Confirmation Date", "Signature", "Created At", "Updated At"}
	userExportHeaders    = []string{"Name", "Email", "Student ID", "Role", "Student Card URL", "Created At", "Updated At"}
)

type accountExportSource interface {
	ListAll(ctx context.Context, status models.AccountStatus) ([]models.AccountLedgerEntry, error)
}

type userExportSource interface {
	ListAll(ctx context.Context) ([]models.User, error)
}

// ExportFile is a rendered export ready to be sent to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Format      export.Format
	Data        []byte
}

// ExportService renders ledger and user exports.
type ExportService struct {
	accounts  accountExportSource
	users     userExportSource
	renderers map[export.Format]export.Renderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. renderers defaults to export.Renderers().
func NewExportService(accounts accountExportSource, users userExportSource, renderers map[export.Format]export.Renderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderers == nil {
		renderers = export.Renderers()
	}
	return &ExportService{accounts: accounts, users: users, renderers: renderers, logger: logger, now: time.Now}
}

// ExportAccounts renders the ledger, optionally restricted to one status.
func (s *ExportService) ExportAccounts(ctx context.Context, rawStatus, rawFormat string) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be one of xlsx, csv, pdf, json")
	}
	status := models.AccountStatus(strings.ToLower(strings.TrimSpace(rawStatus)))
	if status != "" && !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be one of pending, confirmed, erroneous")
	}
	entries, err := s.accounts.ListAll(ctx, status)
	if err != nil {
		return nil, internalError(err, "failed to load accounts")
	}

	data := export.Dataset{Headers: accountExportHeaders, Rows: make([]map[string]string, 0, len(entries))}
	for _, e := range entries {
		data.Rows = append(data.Rows, map[string]string{
			"Full Names":        e.Fullnames,
			"Contract Number":   e.ContractNumber,
			"Course of Study":   e.CourseOfStudy,
			"Bank Name":         e.BankName,
			"Account Number":    e.AccountNumber,
			"Student ID":        deref(e.StudentID),
			"Status":            string(e.Status),
			"Confirmation Date": formatTime(e.ConfirmationDate),
			"Signature":         deref(e.Signature),
			"Created At":        e.CreatedAt.UTC().Format(time.RFC3339),
			"Updated At":        e.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	scope := string(status)
	if scope == "" {
		scope = "all"
	}
	return s.render("accounts", "Account Ledger", format, data, map[string]interface{}{"status": scope})
}

// ExportUsers renders every registered user.
func (s *ExportService) ExportUsers(ctx context.Context, rawFormat string) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be one of xlsx, csv, pdf, json")
	}
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, internalError(err, "failed to load users")
	}
	data := export.Dataset{Headers: userExportHeaders, Rows: make([]map[string]string, 0, len(users))}
	for _, u := range users {
		data.Rows = append(data.Rows, map[string]string{
			"Name":             u.Name,
			"Email":            u.Email,
			"Student ID":       u.StudentID,
			"Role":             string(u.Role()),
			"Student Card URL": deref(u.StudentCardURL),
			"Created At":       u.CreatedAt.UTC().Format(time.RFC3339),
			"Updated At":       u.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return s.render("users", "Users", format, data, nil)
}

func (s *ExportService) render(kind, title string, format export.Format, data export.Dataset, extra map[string]interface{}) (*ExportFile, error) {
	now := s.now().UTC()
	file := &ExportFile{
		Filename:    fmt.Sprintf("%s_export_%s.%s", kind, now.Format("2006-01-02"), format),
		ContentType: format.ContentType(),
		Format:      format,
	}

	if format == export.FormatJSON {
		payload := map[string]interface{}{
			"data":       data.Rows,
			"total":      len(data.Rows),
			"exportedAt": now.Format(time.RFC3339),
		}
		for k, v := range extra {
			payload[k] = v
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, internalError(err, "failed to encode export")
		}
		file.Data = body
		return file, nil
	}

	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be one of xlsx, csv, pdf, json")
	}
	body, err := renderer.Render(data, title)
	if err != nil {
		return nil, internalError(err, "failed to render export")
	}
	file.Data = body
	s.logger.Info("export rendered", zap.String("kind", kind), zap.String("format", string(format)), zap.Int("rows", len(data.Rows)))
	return file, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
