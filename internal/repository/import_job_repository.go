package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-portal-api/internal/models"
)

const importJobColumns = `id, filename, stored_key, status, imported, skipped, error_message, created_by, created_at, started_at, finished_at`

// ImportJobRepository tracks asynchronous ledger imports.
type ImportJobRepository struct {
	db *sqlx.DB
}

// NewImportJobRepository constructs an ImportJobRepository.
func NewImportJobRepository(db *sqlx.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

// Create persists a queued job.
func (r *ImportJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ImportStatusQueued
	}
	job.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO import_jobs (id, filename, stored_key, status, imported, skipped, created_by, created_at) VALUES (:id, :filename, :stored_key, :status, :imported, :skipped, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create import job: %w", err)
	}
	return nil
}

// FindByID returns a job by id.
func (r *ImportJobRepository) FindByID(ctx context.Context, id string) (*models.ImportJob, error) {
	const query = `SELECT ` + importJobColumns + ` FROM import_jobs WHERE id = $1`
	var job models.ImportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find import job: %w", err)
	}
	return &job, nil
}

// MarkRunning flags the job as started.
func (r *ImportJobRepository) MarkRunning(ctx context.Context, id string) error {
	const query = `UPDATE import_jobs SET status = $2, started_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ImportStatusRunning, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark import running: %w", err)
	}
	return nil
}

// MarkCompleted stores the final counts.
func (r *ImportJobRepository) MarkCompleted(ctx context.Context, id string, result models.ImportResult) error {
	const query = `UPDATE import_jobs SET status = $2, imported = $3, skipped = $4, error_message = NULL, finished_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ImportStatusCompleted, result.Imported, result.Skipped, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark import completed: %w", err)
	}
	return nil
}

// MarkFailed records the failure with the rows committed before it.
func (r *ImportJobRepository) MarkFailed(ctx context.Context, id string, result models.ImportResult, message string) error {
	const query = `UPDATE import_jobs SET status = $2, imported = $3, skipped = $4, error_message = $5, finished_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ImportStatusFailed, result.Imported, result.Skipped, message, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark import failed: %w", err)
	}
	return nil
}
