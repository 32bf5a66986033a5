package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/philjnicholls/sendtokindle/internal/worker/domain"
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// ClaimJob transitions a job from QUEUED to RUNNING with an optimistic
// update and returns its immutable snapshot. A redelivered id whose row is
// no longer QUEUED yields ErrJobAlreadyClaimed so the caller can drop the
// duplicate without requeueing.
func (s *Storage) ClaimJob(ctx context.Context, jobID, workerID string) (*domain.Job, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    worker_id = $2,
		    started_at = NOW()
		WHERE job_id = $3
		  AND status = $4
		RETURNING job_id, COALESCE(url, ''), COALESCE(html, ''), COALESCE(title, ''), recipient_email, created_at
	`

	var job domain.Job
	err := s.db.QueryRowContext(ctx, query, domain.JobStatusRunning, workerID, jobID, domain.JobStatusQueued).Scan(
		&job.JobID,
		&job.URL,
		&job.HTML,
		&job.Title,
		&job.RecipientEmail,
		&job.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Failed to claim job - already claimed or not found",
				slog.String("job_id", jobID),
				slog.String("worker_id", workerID),
			)
			return nil, domain.ErrJobAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	job.Status = domain.JobStatusRunning

	s.logger.Info("Job claimed successfully",
		slog.String("job_id", jobID),
		slog.String("worker_id", workerID),
	)

	return &job, nil
}

// ReleaseJob reverts an interrupted claim so the row is claimable again on
// redelivery. Only this worker's own RUNNING claim is reverted; rows in any
// other state are left alone.
func (s *Storage) ReleaseJob(ctx context.Context, jobID, workerID string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    worker_id = NULL,
		    started_at = NULL
		WHERE job_id = $2
		  AND status = $3
		  AND worker_id = $4
	`

	if _, err := s.db.ExecContext(ctx, query, domain.JobStatusQueued, jobID, domain.JobStatusRunning, workerID); err != nil {
		return fmt.Errorf("failed to release job: %w", err)
	}

	s.logger.Info("Job claim released",
		slog.String("job_id", jobID),
		slog.String("worker_id", workerID),
	)

	return nil
}

// MarkSucceeded records the terminal SUCCEEDED state.
func (s *Storage) MarkSucceeded(ctx context.Context, jobID string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    completed_at = NOW()
		WHERE job_id = $2
	`

	if _, err := s.db.ExecContext(ctx, query, domain.JobStatusSucceeded, jobID); err != nil {
		return fmt.Errorf("failed to mark job succeeded: %w", err)
	}

	s.logger.Info("Job status updated",
		slog.String("job_id", jobID),
		slog.String("status", domain.JobStatusSucceeded),
	)

	return nil
}

// MarkFailed records the terminal FAILED state with the failing stage's
// error kind and message.
func (s *Storage) MarkFailed(ctx context.Context, jobID, errorKind, errorMessage string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    error_kind = $2,
		    error_message = $3,
		    completed_at = NOW()
		WHERE job_id = $4
	`

	if _, err := s.db.ExecContext(ctx, query, domain.JobStatusFailed, errorKind, errorMessage, jobID); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}

	s.logger.Info("Job status updated",
		slog.String("job_id", jobID),
		slog.String("status", domain.JobStatusFailed),
		slog.String("error_kind", errorKind),
	)

	return nil
}
