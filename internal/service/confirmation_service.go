package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/middleware/requestid"
)

const (
	confirmSuccessMessage = "Account confirmed successfully!"
	confirmMismatch       = "Provided data does not match verification records."
	confirmStatusCorrect  = "correct"
)

type ledgerConfirmer interface {
	FindByContractNumber(ctx context.Context, contractNumber string) (*models.AccountLedgerEntry, error)
	ConfirmPending(ctx context.Context, c models.AccountConfirmation) (*models.AccountLedgerEntry, error)
}

// ConfirmationService lets a student confirm the bank details held for their contract.
type ConfirmationService struct {
	repo      ledgerConfirmer
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewConfirmationService constructs the service.
func NewConfirmationService(repo ledgerConfirmer, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *ConfirmationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &ConfirmationService{repo: repo, validator: validate, metrics: metrics, logger: logger, now: time.Now}
}

// Confirm checks the submitted bank details against the ledger and, when they
// match a pending entry, marks it confirmed with the caller's signature.
func (s *ConfirmationService) Confirm(ctx context.Context, identity *models.Identity, req dto.ConfirmAccountRequest) (*dto.ConfirmAccountResponse, error) {
	if identity == nil {
		s.metrics.RecordConfirmation("unauthenticated")
		return nil, appErrors.ErrUnauthorized
	}
	req.ContractNumber = strings.TrimSpace(req.ContractNumber)
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.BankName = strings.TrimSpace(req.BankName)
	req.AccountNumber = strings.TrimSpace(req.AccountNumber)
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordConfirmation("invalid")
		return nil, validationError(err, "invalid confirmation payload")
	}

	entry, err := s.repo.FindByContractNumber(ctx, req.ContractNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordConfirmation("not_found")
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account record not found")
		}
		s.metrics.RecordConfirmation("error")
		return nil, internalError(err, "failed to load account record")
	}
	if err := s.checkPending(entry); err != nil {
		return nil, err
	}
	if strings.TrimSpace(entry.BankName) != req.BankName || strings.TrimSpace(entry.AccountNumber) != req.AccountNumber {
		s.metrics.RecordConfirmation("mismatch")
		s.logger.Info("confirmation mismatch",
			zap.String("contract_number", req.ContractNumber),
			zap.String("user_id", identity.ID),
			zap.String("request_id", requestid.FromContext(ctx)),
		)
		return nil, appErrors.Clone(appErrors.ErrForbidden, confirmMismatch)
	}

	confirmed, err := s.repo.ConfirmPending(ctx, models.AccountConfirmation{
		ContractNumber:   entry.ContractNumber,
		StudentID:        req.StudentID,
		Signature:        makeSignature(identity.Name),
		ConfirmationDate: s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.resolveLostRace(ctx, entry.ContractNumber)
		}
		s.metrics.RecordConfirmation("error")
		return nil, internalError(err, "failed to confirm account")
	}

	s.metrics.RecordConfirmation("confirmed")
	s.logger.Info("account confirmed",
		zap.String("contract_number", confirmed.ContractNumber),
		zap.String("user_id", identity.ID),
		zap.String("request_id", requestid.FromContext(ctx)),
	)
	return &dto.ConfirmAccountResponse{
		Success: true,
		Message: confirmSuccessMessage,
		Status:  confirmStatusCorrect,
		Account: confirmed,
	}, nil
}

func (s *ConfirmationService) checkPending(entry *models.AccountLedgerEntry) error {
	switch entry.Status {
	case models.AccountStatusPending:
		return nil
	case models.AccountStatusConfirmed:
		s.metrics.RecordConfirmation("already_confirmed")
		return appErrors.Clone(appErrors.ErrConflict, "account already confirmed")
	default:
		s.metrics.RecordConfirmation("not_pending")
		return appErrors.Clone(appErrors.ErrConflict, "account is not awaiting confirmation")
	}
}

// resolveLostRace runs after the conditional update matched nothing: another
// request changed or removed the row between the read and the write.
func (s *ConfirmationService) resolveLostRace(ctx context.Context, contractNumber string) error {
	current, err := s.repo.FindByContractNumber(ctx, contractNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordConfirmation("not_found")
			return appErrors.Clone(appErrors.ErrNotFound, "account record not found")
		}
		s.metrics.RecordConfirmation("error")
		return internalError(err, "failed to load account record")
	}
	if err := s.checkPending(current); err != nil {
		return err
	}
	s.metrics.RecordConfirmation("error")
	return internalError(errors.New("pending entry not updated"), "failed to confirm account")
}

// makeSignature derives "{first initial}.{last name}" in lower case. Single
// word names are returned as-is, lower-cased.
func makeSignature(name string) string {
	parts := strings.Fields(strings.ToLower(name))
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	first := []rune(parts[0])
	return string(first[0]) + "." + parts[len(parts)-1]
}
