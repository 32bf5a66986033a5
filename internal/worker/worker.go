package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/philjnicholls/sendtokindle/internal/pipeline"
	"github.com/philjnicholls/sendtokindle/internal/stage"
	"github.com/philjnicholls/sendtokindle/internal/worker/domain"
	"github.com/philjnicholls/sendtokindle/shared/rabbitmq"
)

// JobStore is the job-state surface the worker needs. The worker is the
// sole mutator of a claimed job's status, error and completion time.
type JobStore interface {
	ClaimJob(ctx context.Context, jobID, workerID string) (*domain.Job, error)
	ReleaseJob(ctx context.Context, jobID, workerID string) error
	MarkSucceeded(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID, errorKind, errorMessage string) error
}

// Extractor is the extraction stage contract.
type Extractor interface {
	Scrape(ctx context.Context, url string) (*stage.Article, error)
	ScrapeHTML(ctx context.Context, html, title string) (*stage.Article, error)
}

// Converter is the conversion stage contract.
type Converter interface {
	Convert(ctx context.Context, title, content string) (*stage.Document, error)
}

// Sender is the delivery stage contract.
type Sender interface {
	Send(ctx context.Context, msg *stage.Message) (string, error)
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	RabbitClient  *rabbitmq.Client
	Store         JobStore
	Extraction    Extractor
	Conversion    Converter
	Delivery      Sender
	Concurrency   int
	PrefetchCount int
	StageTimeout  time.Duration
	SenderEmail   string
	SenderName    string
}

// Worker drains the queue and runs the three-stage pipeline per job.
type Worker struct {
	logger        *slog.Logger
	rabbitClient  *rabbitmq.Client
	store         JobStore
	extraction    Extractor
	conversion    Converter
	delivery      Sender
	runner        *pipeline.Runner
	concurrency   int
	prefetchCount int
	senderEmail   string
	senderName    string
	workerID      string
	jobsChan      chan *domain.JobMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "worker"
	}

	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = cfg.Concurrency
	}

	return &Worker{
		logger:        cfg.Logger,
		rabbitClient:  cfg.RabbitClient,
		store:         cfg.Store,
		extraction:    cfg.Extraction,
		conversion:    cfg.Conversion,
		delivery:      cfg.Delivery,
		runner:        pipeline.NewRunner(cfg.StageTimeout, cfg.Logger),
		concurrency:   cfg.Concurrency,
		prefetchCount: prefetch,
		senderEmail:   cfg.SenderEmail,
		senderName:    cfg.SenderName,
		workerID:      fmt.Sprintf("%s-%s", hostname, uuid.New().String()[:8]),
		jobsChan:      make(chan *domain.JobMessage),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming and processing jobs until ctx is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to setup consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)

	w.startMessageDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
