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

type confirmationService interface {
	Confirm(ctx context.Context, identity *models.Identity, req dto.ConfirmAccountRequest) (*dto.ConfirmAccountResponse, error)
}

type accountService interface {
	List(ctx context.Context, query dto.AccountListQuery) (*dto.AccountListResponse, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.AccountLedgerEntry, error)
	Update(ctx context.Context, actor *models.Identity, id string, req dto.UpdateAccountRequest) (*models.AccountLedgerEntry, error)
	Delete(ctx context.Context, id string) error
	SetStatus(ctx context.Context, actor *models.Identity, req dto.UpdateAccountStatusRequest) (*models.AccountLedgerEntry, error)
}

// AccountHandler exposes the account ledger.
type AccountHandler struct {
	confirmations confirmationService
	accounts      accountService
}

// NewAccountHandler constructs the handler.
func NewAccountHandler(confirmations confirmationService, accounts accountService) *AccountHandler {
	return &AccountHandler{confirmations: confirmations, accounts: accounts}
}

// Confirm godoc
// @Summary Confirm bank details
// @Description Confirms a pending ledger entry when the submitted bank details match
// @Tags Accounts
// @Accept json
// @Produce json
// @Param payload body dto.ConfirmAccountRequest true "Confirmation payload"
// @Success 200 {object} dto.ConfirmAccountResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /accounts/confirm [post]
func (h *AccountHandler) Confirm(c *gin.Context) {
	identity := identityFromContext(c)
	if identity == nil {
		response.PlainError(c, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required"))
		return
	}
	var req dto.ConfirmAccountRequest
	if err := bindJSON(c, &req, "invalid confirmation payload"); err != nil {
		response.PlainError(c, err)
		return
	}
	res, err := h.confirmations.Confirm(c.Request.Context(), identity, req)
	if err != nil {
		response.PlainError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, res)
}

// List godoc
// @Summary List ledger entries
// @Tags Accounts
// @Produce json
// @Param status query string false "pending, confirmed or erroneous"
// @Param search query string false "Name, contract or student id"
// @Param limit query int false "Page size"
// @Param skip query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /admin/accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	var query dto.AccountListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	res, pagination, err := h.accounts.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "statusCounts", res.StatusCounts)
	response.JSON(c, http.StatusOK, res.Accounts, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get ledger entry
// @Tags Accounts
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/accounts/{id} [get]
func (h *AccountHandler) Get(c *gin.Context) {
	entry, err := h.accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Update godoc
// @Summary Update ledger entry
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body dto.UpdateAccountRequest true "Entry payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/accounts/{id} [put]
func (h *AccountHandler) Update(c *gin.Context) {
	var req dto.UpdateAccountRequest
	if err := bindJSON(c, &req, "invalid account payload"); err != nil {
		response.Error(c, err)
		return
	}
	entry, err := h.accounts.Update(c.Request.Context(), identityFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Delete godoc
// @Summary Delete ledger entry
// @Tags Accounts
// @Param id path string true "Entry ID"
// @Success 204
// @Router /admin/accounts/{id} [delete]
func (h *AccountHandler) Delete(c *gin.Context) {
	if err := h.accounts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetStatus godoc
// @Summary Change ledger entry status
// @Tags Accounts
// @Accept json
// @Produce json
// @Param payload body dto.UpdateAccountStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/accounts/status [put]
func (h *AccountHandler) SetStatus(c *gin.Context) {
	var req dto.UpdateAccountStatusRequest
	if err := bindJSON(c, &req, "invalid status payload"); err != nil {
		response.Error(c, err)
		return
	}
	entry, err := h.accounts.SetStatus(c.Request.Context(), identityFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}
