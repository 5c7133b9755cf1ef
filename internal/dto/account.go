package dto

import "github.com/noah-isme/student-portal-api/internal/models"

// ConfirmAccountRequest is submitted by a student confirming their bank details.
type ConfirmAccountRequest struct {
	ContractNumber string `json:"contractNumber" validate:"required,contract_number"`
	StudentID      string `json:"studentId" validate:"required,student_id"`
	BankName       string `json:"bankName" validate:"required,min=3"`
	AccountNumber  string `json:"accountNumber" validate:"required"`
}

// ConfirmAccountResponse is returned when a confirmation succeeds.
type ConfirmAccountResponse struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	Status  string                     `json:"status"`
	Account *models.AccountLedgerEntry `json:"account,omitempty"`
}

// UpdateAccountRequest rewrites an entry from the admin console.
type UpdateAccountRequest struct {
	Fullnames      string               `json:"fullnames" validate:"required"`
	ContractNumber string               `json:"contractNumber" validate:"required,contract_number"`
	CourseOfStudy  string               `json:"courseOfStudy"`
	BankName       string               `json:"bankName" validate:"required"`
	AccountNumber  string               `json:"accountNumber" validate:"required"`
	StudentID      *string              `json:"studentId"`
	Status         models.AccountStatus `json:"status" validate:"omitempty,oneof=pending confirmed erroneous"`
}

// UpdateAccountStatusRequest moves an entry through the status machine.
type UpdateAccountStatusRequest struct {
	AccountID string               `json:"accountId" validate:"required"`
	Status    models.AccountStatus `json:"status" validate:"required,oneof=pending confirmed erroneous"`
}

// AccountListQuery captures the admin listing query string.
type AccountListQuery struct {
	Status string `form:"status"`
	Search string `form:"search"`
	Limit  int    `form:"limit"`
	Skip   int    `form:"skip"`
}

// AccountListResponse bundles a page of entries with per-status totals.
type AccountListResponse struct {
	Accounts     []models.AccountLedgerEntry `json:"accounts"`
	StatusCounts models.StatusCounts         `json:"statusCounts"`
}
