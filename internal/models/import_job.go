package models

import "time"

// ImportStatus captures background import lifecycle states.
type ImportStatus string

const (
	ImportStatusQueued    ImportStatus = "queued"
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
)

// ImportJob tracks an asynchronous ledger import.
type ImportJob struct {
	ID           string       `db:"id" json:"id"`
	Filename     string       `db:"filename" json:"filename"`
	StoredKey    string       `db:"stored_key" json:"-"`
	Status       ImportStatus `db:"status" json:"status"`
	Imported     int          `db:"imported" json:"imported"`
	Skipped      int          `db:"skipped" json:"skipped"`
	ErrorMessage *string      `db:"error_message" json:"errorMessage,omitempty"`
	CreatedBy    *string      `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
	StartedAt    *time.Time   `db:"started_at" json:"startedAt,omitempty"`
	FinishedAt   *time.Time   `db:"finished_at" json:"finishedAt,omitempty"`
}

// LedgerImportRow is one normalised spreadsheet row ready for upsert.
type LedgerImportRow struct {
	Fullnames        string     `db:"fullnames"`
	ContractNumber   string     `db:"contract_number"`
	CourseOfStudy    string     `db:"course_of_study"`
	BankName         string     `db:"bank_name"`
	AccountNumber    string     `db:"account_number"`
	ConfirmationDate *time.Time `db:"confirmation_date"`
	StudentID        *string    `db:"student_id"`
	Signature        *string    `db:"signature"`
}

// ImportResult summarises an import run.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
