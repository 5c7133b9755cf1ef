package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

type stubLedger struct {
	entries       map[string]*models.AccountLedgerEntry
	findErr       error
	confirmErr    error
	confirmCalls  int
	beforeConfirm func(map[string]*models.AccountLedgerEntry)
}

func newStubLedger(entries ...models.AccountLedgerEntry) *stubLedger {
	s := &stubLedger{entries: make(map[string]*models.AccountLedgerEntry)}
	for i := range entries {
		e := entries[i]
		s.entries[e.ContractNumber] = &e
	}
	return s
}

func (s *stubLedger) FindByContractNumber(ctx context.Context, contractNumber string) (*models.AccountLedgerEntry, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	e, ok := s.entries[contractNumber]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *e
	return &copy, nil
}

func (s *stubLedger) ConfirmPending(ctx context.Context, c models.AccountConfirmation) (*models.AccountLedgerEntry, error) {
	s.confirmCalls++
	if s.beforeConfirm != nil {
		s.beforeConfirm(s.entries)
	}
	if s.confirmErr != nil {
		return nil, s.confirmErr
	}
	e, ok := s.entries[c.ContractNumber]
	if !ok || e.Status != models.AccountStatusPending {
		return nil, sql.ErrNoRows
	}
	date := c.ConfirmationDate
	studentID := c.StudentID
	signature := c.Signature
	e.ConfirmationDate = &date
	e.StudentID = &studentID
	e.Signature = &signature
	e.Status = models.AccountStatusConfirmed
	copy := *e
	return &copy, nil
}

func pendingEntry(contract string) models.AccountLedgerEntry {
	return models.AccountLedgerEntry{
		ID:             "acc-" + contract,
		Fullnames:      "Ama Kofi Mensah",
		ContractNumber: contract,
		CourseOfStudy:  "BSc Computer Science",
		BankName:       "GCB Bank",
		AccountNumber:  "1234567890",
		Status:         models.AccountStatusPending,
	}
}

func studentIdentity() *models.Identity {
	return &models.Identity{ID: "user-1", Name: "Ama Kofi Mensah", Email: "ama@example.edu", Role: models.RoleStudent}
}

func confirmRequest(contract string) dto.ConfirmAccountRequest {
	return dto.ConfirmAccountRequest{
		ContractNumber: contract,
		StudentID:      "2211017",
		BankName:       "GCB Bank",
		AccountNumber:  "1234567890",
	}
}

func TestConfirmationServiceConfirmThenConflict(t *testing.T) {
	ledger := newStubLedger(pendingEntry("202211001706"), pendingEntry("202211001707"))
	metrics := NewMetricsService()
	svc := NewConfirmationService(ledger, nil, metrics, nil)
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	resp, err := svc.Confirm(context.Background(), studentIdentity(), confirmRequest("202211001706"))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "correct", resp.Status)
	assert.Equal(t, "Account confirmed successfully!", resp.Message)
	require.NotNil(t, resp.Account)
	assert.Equal(t, models.AccountStatusConfirmed, resp.Account.Status)

	stored := ledger.entries["202211001706"]
	assert.Equal(t, models.AccountStatusConfirmed, stored.Status)
	require.NotNil(t, stored.Signature)
	assert.Equal(t, "a.mensah", *stored.Signature)
	require.NotNil(t, stored.StudentID)
	assert.Equal(t, "2211017", *stored.StudentID)
	require.NotNil(t, stored.ConfirmationDate)
	assert.True(t, stored.ConfirmationDate.Equal(fixed))

	_, err = svc.Confirm(context.Background(), studentIdentity(), confirmRequest("202211001706"))
	require.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Equal(t, 1, ledger.confirmCalls)

	assert.Equal(t, models.AccountStatusPending, ledger.entries["202211001707"].Status)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.confirmations.WithLabelValues("confirmed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.confirmations.WithLabelValues("already_confirmed")))
}

func TestConfirmationServiceTrimsBeforeComparing(t *testing.T) {
	entry := pendingEntry("202211001706")
	entry.BankName = "GCB Bank "
	ledger := newStubLedger(entry)
	svc := NewConfirmationService(ledger, nil, nil, nil)

	req := confirmRequest(" 202211001706 ")
	req.BankName = "  GCB Bank"
	req.AccountNumber = "1234567890  "
	resp, err := svc.Confirm(context.Background(), studentIdentity(), req)
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestConfirmationServiceMismatch(t *testing.T) {
	ledger := newStubLedger(pendingEntry("202211001706"))
	svc := NewConfirmationService(ledger, nil, nil, nil)

	req := confirmRequest("202211001706")
	req.AccountNumber = "0000000000"
	_, err := svc.Confirm(context.Background(), studentIdentity(), req)
	require.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Equal(t, "Provided data does not match verification records.", appErrors.FromError(err).Message)
	assert.Equal(t, 0, ledger.confirmCalls)
	assert.Equal(t, models.AccountStatusPending, ledger.entries["202211001706"].Status)
}

func TestConfirmationServiceErrors(t *testing.T) {
	erroneous := pendingEntry("202211001799")
	erroneous.Status = models.AccountStatusErroneous

	tests := []struct {
		name     string
		identity *models.Identity
		req      dto.ConfirmAccountRequest
		ledger   *stubLedger
		want     *appErrors.Error
	}{
		{"unauthenticated", nil, confirmRequest("202211001706"), newStubLedger(pendingEntry("202211001706")), appErrors.ErrUnauthorized},
		{"short contract number", studentIdentity(), confirmRequest("20221100170"), newStubLedger(), appErrors.ErrValidation},
		{"bad student id", studentIdentity(), func() dto.ConfirmAccountRequest {
			r := confirmRequest("202211001706")
			r.StudentID = "12ab"
			return r
		}(), newStubLedger(), appErrors.ErrValidation},
		{"missing bank name", studentIdentity(), func() dto.ConfirmAccountRequest {
			r := confirmRequest("202211001706")
			r.BankName = "  "
			return r
		}(), newStubLedger(), appErrors.ErrValidation},
		{"unknown contract", studentIdentity(), confirmRequest("202211009999"), newStubLedger(), appErrors.ErrNotFound},
		{"erroneous entry", studentIdentity(), confirmRequest("202211001799"), newStubLedger(erroneous), appErrors.ErrConflict},
		{"storage failure", studentIdentity(), confirmRequest("202211001706"), &stubLedger{findErr: errors.New("db down")}, appErrors.ErrInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewConfirmationService(tc.ledger, nil, nil, nil)
			_, err := svc.Confirm(context.Background(), tc.identity, tc.req)
			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.want.Status, appErrors.FromError(err).Status)
			assert.Equal(t, 0, tc.ledger.confirmCalls)
		})
	}
}

func TestConfirmationServiceInternalErrorHidesCause(t *testing.T) {
	svc := NewConfirmationService(&stubLedger{findErr: errors.New("pq: connection refused")}, nil, nil, nil)
	_, err := svc.Confirm(context.Background(), studentIdentity(), confirmRequest("202211001706"))
	appErr := appErrors.FromError(err)
	assert.NotContains(t, appErr.Message, "connection refused")
}

func TestConfirmationServiceLostRace(t *testing.T) {
	ledger := newStubLedger(pendingEntry("202211001706"))
	ledger.beforeConfirm = func(entries map[string]*models.AccountLedgerEntry) {
		entries["202211001706"].Status = models.AccountStatusConfirmed
	}
	svc := NewConfirmationService(ledger, nil, nil, nil)

	_, err := svc.Confirm(context.Background(), studentIdentity(), confirmRequest("202211001706"))
	require.ErrorIs(t, err, appErrors.ErrConflict)

	ledger = newStubLedger(pendingEntry("202211001706"))
	ledger.beforeConfirm = func(entries map[string]*models.AccountLedgerEntry) {
		delete(entries, "202211001706")
	}
	svc = NewConfirmationService(ledger, nil, nil, nil)
	_, err = svc.Confirm(context.Background(), studentIdentity(), confirmRequest("202211001706"))
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestMakeSignature(t *testing.T) {
	cases := map[string]string{
		"John Doe":               "j.doe",
		"  Mary   Jane Watson  ": "m.watson",
		"KWAME NKRUMAH":          "k.nkrumah",
		"Cher":                   "cher",
		"":                       "",
	}
	for in, want := range cases {
		assert.Equal(t, want, makeSignature(in), in)
	}
}
