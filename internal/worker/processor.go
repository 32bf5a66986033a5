package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/philjnicholls/sendtokindle/internal/pipeline"
	"github.com/philjnicholls/sendtokindle/internal/stage"
	"github.com/philjnicholls/sendtokindle/internal/worker/domain"
)

// execution carries the artifacts flowing between stages of one job.
type execution struct {
	job      *domain.Job
	article  *stage.Article
	document *stage.Document
}

// processJob claims the job, runs the three stages strictly in order and
// records the terminal state. The returned error drives the ack/nack
// decision in the worker loop.
func (w *Worker) processJob(ctx context.Context, msg *domain.JobMessage) error {
	w.logger.Info("Processing job",
		slog.String("job_id", msg.JobID),
		slog.String("worker_id", w.workerID),
	)

	job, err := w.store.ClaimJob(ctx, msg.JobID, w.workerID)
	if err != nil {
		if errors.Is(err, domain.ErrJobAlreadyClaimed) {
			// Redelivered duplicate; drop it
			w.logger.Warn("Job already claimed, skipping",
				slog.String("job_id", msg.JobID),
			)
			return fmt.Errorf("job already claimed: %w", err)
		}
		// Database error - could be transient
		return domain.NewRetryableError(fmt.Errorf("failed to claim job: %w", err))
	}

	exec := &execution{job: job}

	err = w.runner.Run(ctx, w.buildStages(exec))
	if err != nil {
		// Shutdown or connection loss mid-stage is not a stage failure.
		// Release the claim so the broker's redelivery finds a QUEUED row.
		if ctx.Err() != nil {
			w.releaseJob(job.JobID)
			return domain.NewRetryableError(fmt.Errorf("job interrupted: %w", err))
		}

		var stageErr *domain.StageError
		if errors.As(err, &stageErr) {
			if markErr := w.store.MarkFailed(ctx, job.JobID, stageErr.Kind, stageErr.Err.Error()); markErr != nil {
				w.logger.Error("Failed to record job failure",
					slog.String("job_id", job.JobID),
					slog.String("error", markErr.Error()),
				)
			}
			return err
		}
		// Should not happen: every stage wraps its error with a kind
		if markErr := w.store.MarkFailed(ctx, job.JobID, "", err.Error()); markErr != nil {
			w.logger.Error("Failed to record job failure",
				slog.String("job_id", job.JobID),
				slog.String("error", markErr.Error()),
			)
		}
		return err
	}

	if err := w.store.MarkSucceeded(ctx, job.JobID); err != nil {
		// The email already went out; keep the ACK so the job is not rerun
		w.logger.Error("Failed to record job success",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
	}

	w.logger.Info("Job pipeline completed",
		slog.String("job_id", job.JobID),
		slog.String("title", exec.article.Title),
	)

	return nil
}

// releaseJob reverts a claim after an interrupted run. The worker context
// is already canceled at this point, so the update runs on its own bounded
// context.
func (w *Worker) releaseJob(jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.store.ReleaseJob(ctx, jobID, w.workerID); err != nil {
		w.logger.Error("Failed to release interrupted job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
}

// buildStages assembles the ordered stage descriptors for one job. Each
// stage reads its input from and writes its output to the shared execution.
func (w *Worker) buildStages(exec *execution) []pipeline.Stage {
	return []pipeline.Stage{
		{
			Name: "extraction",
			Run: func(ctx context.Context) error {
				var err error
				if exec.job.URL != "" {
					exec.article, err = w.extraction.Scrape(ctx, exec.job.URL)
				} else {
					exec.article, err = w.extraction.ScrapeHTML(ctx, exec.job.HTML, exec.job.Title)
				}
				return err
			},
			Wrap: func(err error) error {
				return domain.NewStageError(domain.ErrorKindExtraction, err)
			},
		},
		{
			Name: "conversion",
			Run: func(ctx context.Context) error {
				var err error
				exec.document, err = w.conversion.Convert(ctx, exec.article.Title, exec.article.Content)
				return err
			},
			Wrap: func(err error) error {
				return domain.NewStageError(domain.ErrorKindConversion, err)
			},
		},
		{
			Name: "delivery",
			Run: func(ctx context.Context) error {
				msg := &stage.Message{
					Sender:   stage.Address{Email: w.senderEmail, Name: w.senderName},
					To:       []stage.Address{{Email: exec.job.RecipientEmail}},
					Subject:  exec.article.Title,
					BodyText: exec.article.Text,
					Attachments: []stage.Attachment{
						{
							Name: attachmentName(exec.article.Title),
							File: exec.document.File,
						},
					},
				}
				_, err := w.delivery.Send(ctx, msg)
				return err
			},
			Wrap: func(err error) error {
				return domain.NewStageError(domain.ErrorKindDelivery, err)
			},
		},
	}
}

var attachmentNameRe = regexp.MustCompile(`[^A-Za-z0-9 ]+`)

// attachmentName derives the attachment filename from the article title,
// stripped to characters the e-reader filesystem accepts.
func attachmentName(title string) string {
	name := attachmentNameRe.ReplaceAllString(title, "")
	if name == "" {
		name = "article"
	}
	return name + ".mobi"
}
