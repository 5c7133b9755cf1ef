package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/models"
)

var accountRowColumns = []string{"id", "fullnames", "contract_number", "course_of_study", "bank_name", "account_number", "confirmation_date", "student_id", "signature", "status", "created_at", "updated_at"}

func TestAccountFindByContractNumberTrims(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM account_ledger WHERE contract_number = $1")).
		WithArgs("202211001706").
		WillReturnRows(sqlmock.NewRows(accountRowColumns).
			AddRow("a1", "Ada Lovelace", "202211001706", "CS", "GCB", "0011", nil, nil, nil, "pending", now, now))

	entry, err := repo.FindByContractNumber(context.Background(), " 202211001706 ")
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusPending, entry.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountConfirmPendingUsesConditionalUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	when := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE contract_number = $1 AND status = 'pending'")).
		WithArgs("202211001706", when, "1234567", "a.lovelace").
		WillReturnRows(sqlmock.NewRows(accountRowColumns).
			AddRow("a1", "Ada Lovelace", "202211001706", "CS", "GCB", "0011", when, "1234567", "a.lovelace", "confirmed", when, when))

	entry, err := repo.ConfirmPending(context.Background(), models.AccountConfirmation{
		ContractNumber: "202211001706", StudentID: "1234567", Signature: "a.lovelace", ConfirmationDate: when,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusConfirmed, entry.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountConfirmPendingNoMatch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE account_ledger")).
		WillReturnRows(sqlmock.NewRows(accountRowColumns))

	_, err := repo.ConfirmPending(context.Background(), models.AccountConfirmation{ContractNumber: "202211001706"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAccountUpsertProtectsConfirmedRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE account_ledger.status <> 'confirmed'")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := repo.Upsert(context.Background(), models.LedgerImportRow{ContractNumber: "202211001706"}, false)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountUpsertOverwrite(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec(`ON CONFLICT \(contract_number\) DO UPDATE SET[\s\S]*updated_at = EXCLUDED.updated_at$`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := repo.Upsert(context.Background(), models.LedgerImportRow{ContractNumber: "202211001707"}, true)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestAccountStatusCountsFillsMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("pending", 4).AddRow("confirmed", 2))

	counts, err := repo.StatusCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, counts[models.AccountStatusPending])
	assert.Equal(t, 2, counts[models.AccountStatusConfirmed])
	assert.Equal(t, 0, counts[models.AccountStatusErroneous])
}

func TestAccountListBuildsFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	now := time.Now()
	mock.ExpectQuery(`FROM account_ledger WHERE \(status = \$1 AND \(fullnames ILIKE \$2 OR contract_number ILIKE \$3 OR student_id ILIKE \$4 OR bank_name ILIKE \$5\)\) ORDER BY created_at DESC, contract_number LIMIT 20 OFFSET 40`).
		WithArgs("pending", "%ada%", "%ada%", "%ada%", "%ada%").
		WillReturnRows(sqlmock.NewRows(accountRowColumns).
			AddRow("a1", "Ada", "202211001706", "CS", "GCB", "0011", nil, nil, nil, "pending", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM account_ledger WHERE")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(41))

	entries, total, err := repo.List(context.Background(), models.AccountFilter{Status: models.AccountStatusPending, Search: "ada", Limit: 20, Skip: 40})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 41, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountTransitionStatusRequiresExpectedState(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery(`UPDATE account_ledger SET status = \$1, updated_at = \$2 WHERE id = \$3 AND status = \$4 RETURNING`).
		WithArgs("erroneous", sqlmock.AnyArg(), "a1", "pending").
		WillReturnRows(sqlmock.NewRows(accountRowColumns))

	_, err := repo.TransitionStatus(context.Background(), "a1", models.AccountStatusPending, models.AccountStatusErroneous, nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM account_ledger WHERE id = $1")).
		WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "nope"), sql.ErrNoRows)
}

func TestAccountUpdateGuardsOnExpectedStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	entry := &models.AccountLedgerEntry{ID: "a1", Fullnames: "Ada Lovelace", ContractNumber: "202211001706", Status: models.AccountStatusErroneous}
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = $2")).
		WithArgs("a1", "pending", "Ada Lovelace", "202211001706", "", "", "", nil, nil, nil, "erroneous", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), entry, models.AccountStatusPending))

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = $2")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Update(context.Background(), entry, models.AccountStatusPending)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
