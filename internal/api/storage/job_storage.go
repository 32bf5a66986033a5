package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/philjnicholls/sendtokindle/internal/api/domain"
	"github.com/philjnicholls/sendtokindle/internal/api/model"
	"github.com/philjnicholls/sendtokindle/shared/postgresql"
)

// JobStorage handles job rows for the API service. The API inserts QUEUED
// rows, reads them back and backs out rows whose publish failed; all later
// mutation belongs to the worker that claims the job.
type JobStorage struct {
	db *sqlx.DB
}

// NewJobStorage creates a new JobStorage instance
func NewJobStorage(pg *postgresql.Client) *JobStorage {
	return &JobStorage{db: pg.GetDB()}
}

// CreateJob persists a new job record.
func (s *JobStorage) CreateJob(ctx context.Context, job *model.Job) error {
	query := `
		INSERT INTO jobs (
			job_id, url, html, title, recipient_email, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.JobID,
		job.URL,
		job.HTML,
		job.Title,
		job.RecipientEmail,
		job.Status,
		job.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// DeleteJob removes a job row. Used to back out a QUEUED row whose queue
// message could not be published; a worker never deletes rows.
func (s *JobStorage) DeleteJob(ctx context.Context, jobID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	return nil
}

// GetJobByID retrieves a job record by id.
func (s *JobStorage) GetJobByID(ctx context.Context, jobID string) (*model.Job, error) {
	query := `
		SELECT
			job_id, url, html, title, recipient_email, status,
			COALESCE(error_kind, '') AS error_kind,
			COALESCE(error_message, '') AS error_message,
			created_at, completed_at
		FROM jobs
		WHERE job_id = $1
	`

	var job model.Job
	err := s.db.GetContext(ctx, &job, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}
