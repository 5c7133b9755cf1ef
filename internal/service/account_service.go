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
	"github.com/noah-isme/student-portal-api/internal/repository"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

type accountLedger interface {
	FindByID(ctx context.Context, id string) (*models.AccountLedgerEntry, error)
	List(ctx context.Context, filter models.AccountFilter) ([]models.AccountLedgerEntry, int, error)
	StatusCounts(ctx context.Context) (models.StatusCounts, error)
	TransitionStatus(ctx context.Context, id string, from, to models.AccountStatus, confirmation *models.AccountConfirmation) (*models.AccountLedgerEntry, error)
	Update(ctx context.Context, entry *models.AccountLedgerEntry, expected models.AccountStatus) error
	Delete(ctx context.Context, id string) error
}

// AccountService backs the admin ledger console.
type AccountService struct {
	repo      accountLedger
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAccountService constructs an AccountService.
func NewAccountService(repo accountLedger, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &AccountService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// List returns a page of ledger entries, the pagination window and per-status totals.
func (s *AccountService) List(ctx context.Context, query dto.AccountListQuery) (*dto.AccountListResponse, *models.Pagination, error) {
	status := models.AccountStatus(strings.ToLower(strings.TrimSpace(query.Status)))
	if status != "" && !status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "status must be one of pending, confirmed, erroneous")
	}
	limit, skip := normalizePage(query.Limit, query.Skip, 0, 0)
	entries, total, err := s.repo.List(ctx, models.AccountFilter{
		Status: status,
		Search: strings.TrimSpace(query.Search),
		Limit:  limit,
		Skip:   skip,
	})
	if err != nil {
		return nil, nil, internalError(err, "failed to list accounts")
	}
	counts, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, nil, internalError(err, "failed to count accounts")
	}
	return &dto.AccountListResponse{Accounts: entries, StatusCounts: counts}, models.NewPagination(limit, skip, total), nil
}

// Get returns a single entry.
func (s *AccountService) Get(ctx context.Context, id string) (*models.AccountLedgerEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, internalError(err, "failed to load account")
	}
	return entry, nil
}

// Update rewrites an entry on behalf of an admin. A status change must follow
// the ledger state machine, and the write only lands if the entry still has
// the status it was read with.
func (s *AccountService) Update(ctx context.Context, actor *models.Identity, id string, req dto.UpdateAccountRequest) (*models.AccountLedgerEntry, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.Fullnames = strings.TrimSpace(req.Fullnames)
	req.ContractNumber = strings.TrimSpace(req.ContractNumber)
	req.CourseOfStudy = strings.TrimSpace(req.CourseOfStudy)
	req.BankName = strings.TrimSpace(req.BankName)
	req.AccountNumber = strings.TrimSpace(req.AccountNumber)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid account payload")
	}

	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	expected := entry.Status
	if req.Status != "" && req.Status != entry.Status {
		if !entry.Status.CanTransitionTo(req.Status) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "status cannot change from "+string(entry.Status)+" to "+string(req.Status))
		}
		entry.Status = req.Status
		if req.Status == models.AccountStatusConfirmed {
			now := s.now().UTC()
			signature := makeSignature(actor.Name)
			entry.ConfirmationDate = &now
			entry.Signature = &signature
		}
	}
	entry.Fullnames = req.Fullnames
	entry.ContractNumber = req.ContractNumber
	entry.CourseOfStudy = req.CourseOfStudy
	entry.BankName = req.BankName
	entry.AccountNumber = req.AccountNumber
	if req.StudentID != nil {
		trimmed := strings.TrimSpace(*req.StudentID)
		entry.StudentID = &trimmed
	}

	if err := s.repo.Update(ctx, entry, expected); err != nil {
		if constraint, ok := repository.UniqueViolation(err); ok && constraint == repository.AccountLedgerContractKey {
			return nil, appErrors.Clone(appErrors.ErrConflict, "contract number already belongs to another account")
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.staleWrite(ctx, entry.ID)
		}
		return nil, internalError(err, "failed to update account")
	}
	s.logger.Info("account updated",
		zap.String("account_id", entry.ID),
		zap.String("status", string(entry.Status)),
		zap.String("actor_id", actor.ID),
	)
	return entry, nil
}

// staleWrite explains a guarded write that matched no row.
func (s *AccountService) staleWrite(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return appErrors.Clone(appErrors.ErrConflict, "account changed while it was being edited")
}

// Delete removes an entry.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return internalError(err, "failed to delete account")
	}
	return nil
}

// SetStatus confirms or rejects a pending entry on behalf of an admin. Confirming
// stamps the date and the admin's signature.
func (s *AccountService) SetStatus(ctx context.Context, actor *models.Identity, req dto.UpdateAccountStatusRequest) (*models.AccountLedgerEntry, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.AccountID = strings.TrimSpace(req.AccountID)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid status payload")
	}
	entry, err := s.Get(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if !entry.Status.CanTransitionTo(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "status cannot change from "+string(entry.Status)+" to "+string(req.Status))
	}

	var confirmation *models.AccountConfirmation
	if req.Status == models.AccountStatusConfirmed {
		confirmation = &models.AccountConfirmation{
			ContractNumber:   entry.ContractNumber,
			Signature:        makeSignature(actor.Name),
			ConfirmationDate: s.now().UTC(),
		}
	}
	updated, err := s.repo.TransitionStatus(ctx, entry.ID, entry.Status, req.Status, confirmation)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "account status changed concurrently")
		}
		return nil, internalError(err, "failed to update account status")
	}
	s.logger.Info("account status changed",
		zap.String("account_id", updated.ID),
		zap.String("from", string(entry.Status)),
		zap.String("to", string(updated.Status)),
		zap.String("actor_id", actor.ID),
	)
	return updated, nil
}
