package models

import "time"

// AccountStatus is the ledger entry lifecycle state.
type AccountStatus string

const (
	AccountStatusPending   AccountStatus = "pending"
	AccountStatusConfirmed AccountStatus = "confirmed"
	AccountStatusErroneous AccountStatus = "erroneous"
)

// Valid reports whether s is a known status.
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusPending, AccountStatusConfirmed, AccountStatusErroneous:
		return true
	}
	return false
}

// CanTransitionTo allows only pending to confirmed or pending to erroneous.
func (s AccountStatus) CanTransitionTo(next AccountStatus) bool {
	return s == AccountStatusPending && (next == AccountStatusConfirmed || next == AccountStatusErroneous)
}

// AccountLedgerEntry is one bank-detail row awaiting student confirmation.
type AccountLedgerEntry struct {
	ID               string        `db:"id" json:"id"`
	Fullnames        string        `db:"fullnames" json:"fullnames"`
	ContractNumber   string        `db:"contract_number" json:"contractNumber"`
	CourseOfStudy    string        `db:"course_of_study" json:"courseOfStudy"`
	BankName         string        `db:"bank_name" json:"bankName"`
	AccountNumber    string        `db:"account_number" json:"accountNumber"`
	ConfirmationDate *time.Time    `db:"confirmation_date" json:"confirmationDate,omitempty"`
	StudentID        *string       `db:"student_id" json:"studentId,omitempty"`
	Signature        *string       `db:"signature" json:"signature,omitempty"`
	Status           AccountStatus `db:"status" json:"status"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updatedAt"`
}

// AccountFilter drives the admin ledger listing.
type AccountFilter struct {
	Status AccountStatus
	Search string
	Limit  int
	Skip   int
}

// StatusCounts maps each status to its row count.
type StatusCounts map[AccountStatus]int

// AccountConfirmation is the set of fields written by a successful confirmation.
type AccountConfirmation struct {
	ContractNumber   string
	StudentID        string
	Signature        string
	ConfirmationDate time.Time
}
