package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-portal-api/internal/models"
)

const accountColumns = `id, fullnames, contract_number, course_of_study, bank_name, account_number, confirmation_date, student_id, signature, status, created_at, updated_at`

// AccountLedgerContractKey is the unique index on contract numbers.
const AccountLedgerContractKey = "account_ledger_contract_number_key"

// AccountRepository persists the account ledger.
type AccountRepository struct {
	db *sqlx.DB
	sb squirrel.StatementBuilderType
}

// NewAccountRepository constructs an AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db, sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

// FindByContractNumber returns the entry keyed by the trimmed contract number.
func (r *AccountRepository) FindByContractNumber(ctx context.Context, contractNumber string) (*models.AccountLedgerEntry, error) {
	const query = `SELECT ` + accountColumns + ` FROM account_ledger WHERE contract_number = $1`
	var entry models.AccountLedgerEntry
	if err := r.db.GetContext(ctx, &entry, query, strings.TrimSpace(contractNumber)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find account by contract number: %w", err)
	}
	return &entry, nil
}

// FindByID returns the entry with the given id.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.AccountLedgerEntry, error) {
	const query = `SELECT ` + accountColumns + ` FROM account_ledger WHERE id = $1`
	var entry models.AccountLedgerEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return &entry, nil
}

func accountWhere(filter models.AccountFilter) squirrel.And {
	where := squirrel.And{}
	if filter.Status != "" {
		where = append(where, squirrel.Eq{"status": string(filter.Status)})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		term := "%" + s + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"fullnames": term},
			squirrel.ILike{"contract_number": term},
			squirrel.ILike{"student_id": term},
			squirrel.ILike{"bank_name": term},
		})
	}
	return where
}

// List returns a page of entries matching the filter with the total count.
func (r *AccountRepository) List(ctx context.Context, filter models.AccountFilter) ([]models.AccountLedgerEntry, int, error) {
	where := accountWhere(filter)
	listQuery, args, err := r.sb.Select(accountColumns).
		From("account_ledger").
		Where(where).
		OrderBy("created_at DESC", "contract_number").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Skip)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list accounts: %w", err)
	}
	entries := make([]models.AccountLedgerEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}

	countQuery, countArgs, err := r.sb.Select("COUNT(*)").From("account_ledger").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count accounts: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}
	return entries, total, nil
}

// ListAll returns every entry, optionally restricted to one status, for exports.
func (r *AccountRepository) ListAll(ctx context.Context, status models.AccountStatus) ([]models.AccountLedgerEntry, error) {
	query, args, err := r.sb.Select(accountColumns).
		From("account_ledger").
		Where(accountWhere(models.AccountFilter{Status: status})).
		OrderBy("created_at DESC", "contract_number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build export accounts: %w", err)
	}
	entries := make([]models.AccountLedgerEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list all accounts: %w", err)
	}
	return entries, nil
}

// StatusCounts returns the number of entries per status.
func (r *AccountRepository) StatusCounts(ctx context.Context) (models.StatusCounts, error) {
	const query = `SELECT status, COUNT(*) AS count FROM account_ledger GROUP BY status`
	var rows []struct {
		Status models.AccountStatus `db:"status"`
		Count  int                  `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count accounts by status: %w", err)
	}
	counts := models.StatusCounts{
		models.AccountStatusPending:   0,
		models.AccountStatusConfirmed: 0,
		models.AccountStatusErroneous: 0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ConfirmPending atomically moves a pending entry to confirmed. It returns
// sql.ErrNoRows when no pending entry matched, letting the caller decide
// between not-found and already-confirmed.
func (r *AccountRepository) ConfirmPending(ctx context.Context, c models.AccountConfirmation) (*models.AccountLedgerEntry, error) {
	const query = `UPDATE account_ledger
SET confirmation_date = $2, student_id = $3, signature = $4, status = 'confirmed', updated_at = $2
WHERE contract_number = $1 AND status = 'pending'
RETURNING ` + accountColumns
	var entry models.AccountLedgerEntry
	if err := r.db.GetContext(ctx, &entry, query, c.ContractNumber, c.ConfirmationDate, c.StudentID, c.Signature); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("confirm account: %w", err)
	}
	return &entry, nil
}

// TransitionStatus moves an entry from one status to another only if it is
// still in the expected status. Confirmation details are written when given.
func (r *AccountRepository) TransitionStatus(ctx context.Context, id string, from, to models.AccountStatus, confirmation *models.AccountConfirmation) (*models.AccountLedgerEntry, error) {
	now := time.Now().UTC()
	update := r.sb.Update("account_ledger").
		Set("status", string(to)).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": string(from)}).
		Suffix("RETURNING " + accountColumns)
	if confirmation != nil {
		update = update.
			Set("confirmation_date", confirmation.ConfirmationDate).
			Set("signature", confirmation.Signature)
	}
	query, args, err := update.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build transition account: %w", err)
	}
	var entry models.AccountLedgerEntry
	if err := r.db.GetContext(ctx, &entry, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("transition account status: %w", err)
	}
	return &entry, nil
}

// Update rewrites an entry only while it is still in the expected status.
// It returns sql.ErrNoRows when the row is gone or its status has moved on.
func (r *AccountRepository) Update(ctx context.Context, entry *models.AccountLedgerEntry, expected models.AccountStatus) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE account_ledger
SET fullnames = $3, contract_number = $4, course_of_study = $5, bank_name = $6, account_number = $7,
	confirmation_date = $8, student_id = $9, signature = $10, status = $11, updated_at = $12
WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query,
		entry.ID, string(expected),
		entry.Fullnames, entry.ContractNumber, entry.CourseOfStudy, entry.BankName, entry.AccountNumber,
		entry.ConfirmationDate, entry.StudentID, entry.Signature, string(entry.Status), entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return expectAffected(res, "update account")
}

// Delete removes an entry.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM account_ledger WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return expectAffected(res, "delete account")
}

// Upsert inserts a ledger row keyed by contract number or refreshes the
// existing one, resetting it to pending. Unless overwriteConfirmed is set,
// confirmed rows are left untouched and applied is false.
func (r *AccountRepository) Upsert(ctx context.Context, row models.LedgerImportRow, overwriteConfirmed bool) (applied bool, err error) {
	query := `INSERT INTO account_ledger (id, fullnames, contract_number, course_of_study, bank_name, account_number, confirmation_date, student_id, signature, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending', $10, $10)
ON CONFLICT (contract_number) DO UPDATE SET
    fullnames = EXCLUDED.fullnames,
    course_of_study = EXCLUDED.course_of_study,
    bank_name = EXCLUDED.bank_name,
    account_number = EXCLUDED.account_number,
    confirmation_date = EXCLUDED.confirmation_date,
    student_id = EXCLUDED.student_id,
    signature = EXCLUDED.signature,
    status = 'pending',
    updated_at = EXCLUDED.updated_at`
	if !overwriteConfirmed {
		query += `
WHERE account_ledger.status <> 'confirmed'`
	}

	res, err := r.db.ExecContext(ctx, query,
		uuid.NewString(),
		row.Fullnames,
		row.ContractNumber,
		row.CourseOfStudy,
		row.BankName,
		row.AccountNumber,
		row.ConfirmationDate,
		row.StudentID,
		row.Signature,
		time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("upsert account %s: %w", row.ContractNumber, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert account rows affected: %w", err)
	}
	return affected > 0, nil
}
