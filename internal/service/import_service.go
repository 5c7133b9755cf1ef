package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/jobs"
	"github.com/noah-isme/student-portal-api/pkg/middleware/requestid"
	"github.com/noah-isme/student-portal-api/pkg/spreadsheet"
	"github.com/noah-isme/student-portal-api/pkg/storage"
)

// Ledger spreadsheet column order.
const (
	colFullnames = iota
	colContractNumber
	colCourseOfStudy
	colBankName
	colAccountNumber
	colConfirmationDate
	colStudentID
	colSignature
)

const importFolder = "imports"

var importDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"01-02-06",
	"02-01-2006",
}

type ledgerUpserter interface {
	Upsert(ctx context.Context, row models.LedgerImportRow, overwriteConfirmed bool) (bool, error)
}

type importJobStore interface {
	Create(ctx context.Context, job *models.ImportJob) error
	FindByID(ctx context.Context, id string) (*models.ImportJob, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, result models.ImportResult) error
	MarkFailed(ctx context.Context, id string, result models.ImportResult, message string) error
}

type sourceSigner interface {
	Generate(subject, key string) (string, time.Time, error)
}

// ImportServiceConfig tunes import limits and the background worker pool.
type ImportServiceConfig struct {
	MaxFileSize        int64
	OverwriteConfirmed bool
	Workers            int
	MaxRetries         int
	QueueBuffer        int
	RetryDelay         time.Duration
	APIPrefix          string
}

// ImportService loads ledger spreadsheets, inline or through the job queue.
type ImportService struct {
	ledger  ledgerUpserter
	jobs    importJobStore
	store   storage.ObjectStore
	signer  sourceSigner
	metrics *MetricsService
	logger  *zap.Logger
	cfg     ImportServiceConfig
	queue   *jobs.Queue[string]
}

// importFailure carries the rows committed before an import stopped.
type importFailure struct {
	result models.ImportResult
	row    int
	err    error
}

func (f *importFailure) Error() string {
	return fmt.Sprintf("import stopped at row %d after %d rows: %v", f.row, f.result.Imported, f.err)
}

func (f *importFailure) Unwrap() error { return f.err }

// NewImportService constructs the service and its worker queue. The queue
// only runs after Start.
func NewImportService(ledger ledgerUpserter, jobStore importJobStore, store storage.ObjectStore, signer sourceSigner, metrics *MetricsService, logger *zap.Logger, cfg ImportServiceConfig) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 << 20
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	s := &ImportService{
		ledger:  ledger,
		jobs:    jobStore,
		store:   store,
		signer:  signer,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
	s.queue = jobs.NewQueue("ledger-import", s.process, jobs.QueueConfig[string]{
		Workers:     cfg.Workers,
		BufferSize:  cfg.QueueBuffer,
		MaxRetries:  cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
		OnExhausted: s.exhausted,
		Logger:      logger,
	})
	return s
}

// Start launches the import workers.
func (s *ImportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for in-flight imports to finish.
func (s *ImportService) Stop() {
	s.queue.Stop()
}

// ImportFile parses the uploaded spreadsheet and upserts every row.
func (s *ImportService) ImportFile(ctx context.Context, filename string, r io.Reader, size int64) (*models.ImportResult, error) {
	if err := s.checkUpload(filename, r, size); err != nil {
		return nil, err
	}
	rows, err := s.readRows(io.LimitReader(r, s.cfg.MaxFileSize+1), filename)
	if err != nil {
		return nil, err
	}
	result, err := s.ImportRows(ctx, rows)
	if err != nil {
		var failure *importFailure
		if errors.As(err, &failure) {
			return &failure.result, internalError(err, fmt.Sprintf("import stopped at row %d; %d rows were saved", failure.row, failure.result.Imported))
		}
		return nil, internalError(err, "failed to import spreadsheet")
	}
	s.logger.Info("ledger imported", zap.String("filename", filename), zap.Int("imported", result.Imported), zap.Int("skipped", result.Skipped))
	return result, nil
}

func (s *ImportService) checkUpload(filename string, r io.Reader, size int64) error {
	if r == nil || size <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if size > s.cfg.MaxFileSize {
		return appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	switch strings.ToLower(path.Ext(filename)) {
	case ".xlsx", ".xlsm", ".csv":
		return nil
	}
	return appErrors.Clone(appErrors.ErrUnsupportedMedia, "only .xlsx and .csv files can be imported")
}

func (s *ImportService) readRows(r io.Reader, filename string) ([][]string, error) {
	rows, err := spreadsheet.ReadRows(r, filename)
	if err != nil {
		if errors.Is(err, spreadsheet.ErrUnsupportedFormat) {
			return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, "only .xlsx and .csv files can be imported")
		}
		if errors.Is(err, spreadsheet.ErrEmptyWorkbook) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "workbook has no sheets")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "spreadsheet could not be read")
	}
	return rows, nil
}

// ImportRows upserts the data rows, skipping the header. Each row commits on
// its own, so a failure keeps the rows already written.
func (s *ImportService) ImportRows(ctx context.Context, rows [][]string) (*models.ImportResult, error) {
	result := models.ImportResult{}
	if len(rows) <= 1 {
		return &result, nil
	}
	for i, raw := range rows[1:] {
		row, ok := parseLedgerRow(raw)
		if !ok {
			result.Skipped++
			continue
		}
		applied, err := s.ledger.Upsert(ctx, row, s.cfg.OverwriteConfirmed)
		if err != nil {
			s.metrics.RecordImport(result.Imported, result.Skipped)
			return nil, &importFailure{result: result, row: i + 2, err: err}
		}
		if applied {
			result.Imported++
		} else {
			result.Skipped++
		}
	}
	s.metrics.RecordImport(result.Imported, result.Skipped)
	return &result, nil
}

// parseLedgerRow maps a spreadsheet row onto a ledger row. Rows without a
// contract number are rejected.
func parseLedgerRow(raw []string) (models.LedgerImportRow, bool) {
	row := models.LedgerImportRow{
		Fullnames:      spreadsheet.Cell(raw, colFullnames),
		ContractNumber: spreadsheet.Cell(raw, colContractNumber),
		CourseOfStudy:  spreadsheet.Cell(raw, colCourseOfStudy),
		BankName:       spreadsheet.Cell(raw, colBankName),
		AccountNumber:  spreadsheet.Cell(raw, colAccountNumber),
	}
	if row.ContractNumber == "" {
		return row, false
	}
	row.ConfirmationDate = parseImportDate(spreadsheet.Cell(raw, colConfirmationDate))
	if v := spreadsheet.Cell(raw, colStudentID); v != "" {
		row.StudentID = &v
	}
	if v := spreadsheet.Cell(raw, colSignature); v != "" {
		row.Signature = &v
	}
	return row, true
}

// parseImportDate accepts the common textual layouts and Excel serial numbers.
// Anything else is treated as empty.
func parseImportDate(v string) *time.Time {
	if v == "" {
		return nil
	}
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t
		}
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// Enqueue stores the upload and schedules a background import.
func (s *ImportService) Enqueue(ctx context.Context, actor *models.Identity, filename string, r io.Reader, size int64) (*models.ImportJob, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.checkUpload(filename, r, size); err != nil {
		return nil, err
	}
	obj, err := s.store.Put(ctx, storage.NewKey(importFolder, filename), importContentType(filename), io.LimitReader(r, s.cfg.MaxFileSize+1))
	if err != nil {
		return nil, internalError(err, "failed to store import file")
	}
	job := &models.ImportJob{
		Filename:  path.Base(filename),
		StoredKey: obj.Key,
		Status:    models.ImportStatusQueued,
		CreatedBy: &actor.ID,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		_ = s.store.Delete(ctx, obj.Key)
		return nil, internalError(err, "failed to create import job")
	}
	if err := s.queue.Enqueue(jobs.Job[string]{ID: job.ID, Payload: job.ID}); err != nil {
		_ = s.jobs.MarkFailed(ctx, job.ID, models.ImportResult{}, "import queue unavailable")
		return nil, appErrors.Wrap(err, "QUEUE_UNAVAILABLE", http.StatusServiceUnavailable, "import queue unavailable")
	}
	s.metrics.RecordImportJob(string(models.ImportStatusQueued))
	s.logger.Info("import job queued",
		zap.String("job_id", job.ID),
		zap.String("filename", job.Filename),
		zap.String("actor_id", actor.ID),
		zap.String("request_id", requestid.FromContext(ctx)),
	)
	return job, nil
}

func importContentType(filename string) string {
	if strings.EqualFold(path.Ext(filename), ".csv") {
		return "text/csv"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (s *ImportService) process(ctx context.Context, job jobs.Job[string]) error {
	record, err := s.jobs.FindByID(ctx, job.Payload)
	if err != nil {
		return fmt.Errorf("load import job: %w", err)
	}
	if err := s.jobs.MarkRunning(ctx, record.ID); err != nil {
		return fmt.Errorf("mark import running: %w", err)
	}
	s.metrics.RecordImportJob(string(models.ImportStatusRunning))

	src, err := s.store.Open(ctx, record.StoredKey)
	if err != nil {
		return fmt.Errorf("open import source: %w", err)
	}
	data, err := io.ReadAll(src)
	_ = src.Close()
	if err != nil {
		return fmt.Errorf("read import source: %w", err)
	}
	rows, err := spreadsheet.ReadRows(bytes.NewReader(data), record.Filename)
	if err != nil {
		return fmt.Errorf("parse import source: %w", err)
	}
	result, err := s.ImportRows(ctx, rows)
	if err != nil {
		return err
	}
	if err := s.jobs.MarkCompleted(ctx, record.ID, *result); err != nil {
		return fmt.Errorf("mark import completed: %w", err)
	}
	s.metrics.RecordImportJob(string(models.ImportStatusCompleted))
	s.logger.Info("import job completed", zap.String("job_id", record.ID), zap.Int("imported", result.Imported), zap.Int("skipped", result.Skipped))
	return nil
}

func (s *ImportService) exhausted(_ context.Context, job jobs.Job[string], cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var result models.ImportResult
	var failure *importFailure
	if errors.As(cause, &failure) {
		result = failure.result
	}
	if err := s.jobs.MarkFailed(ctx, job.Payload, result, cause.Error()); err != nil {
		s.logger.Error("failed to record import failure", zap.String("job_id", job.Payload), zap.Error(err))
	}
	s.metrics.RecordImportJob(string(models.ImportStatusFailed))
}

// GetJob reports an import job with a signed link to its source file.
func (s *ImportService) GetJob(ctx context.Context, id string) (*dto.ImportJobResponse, error) {
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "import job not found")
		}
		return nil, internalError(err, "failed to load import job")
	}
	resp := &dto.ImportJobResponse{ImportJob: *job}
	if s.signer != nil && job.StoredKey != "" {
		token, expiresAt, err := s.signer.Generate(job.ID, job.StoredKey)
		if err != nil {
			s.logger.Warn("failed to sign import source", zap.String("job_id", job.ID), zap.Error(err))
			return resp, nil
		}
		resp.SourceURL = strings.TrimRight(s.cfg.APIPrefix, "/") + "/files/" + token
		resp.SourceExpiresAt = expiresAt.UTC().Format(time.RFC3339)
	}
	return resp, nil
}
