package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philjnicholls/sendtokindle/internal/pipeline"
	"github.com/philjnicholls/sendtokindle/internal/stage"
	"github.com/philjnicholls/sendtokindle/internal/worker/domain"
)

type fakeStore struct {
	job *domain.Job

	claimErr     error
	claimedBy    string
	released     []string
	succeeded    []string
	failedKind   string
	failedReason string
	failed       []string
}

func (f *fakeStore) ClaimJob(_ context.Context, jobID, workerID string) (*domain.Job, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	f.claimedBy = workerID
	job := *f.job
	job.JobID = jobID
	job.Status = domain.JobStatusRunning
	return &job, nil
}

func (f *fakeStore) ReleaseJob(_ context.Context, jobID, _ string) error {
	f.released = append(f.released, jobID)
	return nil
}

func (f *fakeStore) MarkSucceeded(_ context.Context, jobID string) error {
	f.succeeded = append(f.succeeded, jobID)
	return nil
}

func (f *fakeStore) MarkFailed(_ context.Context, jobID, errorKind, errorMessage string) error {
	f.failed = append(f.failed, jobID)
	f.failedKind = errorKind
	f.failedReason = errorMessage
	return nil
}

type fakeExtractor struct {
	article   *stage.Article
	err       error
	calls     int
	htmlCalls int
	lastURL   string
	lastHTML  string
	lastTitle string
}

func (f *fakeExtractor) Scrape(_ context.Context, url string) (*stage.Article, error) {
	f.calls++
	f.lastURL = url
	return f.article, f.err
}

func (f *fakeExtractor) ScrapeHTML(_ context.Context, html, title string) (*stage.Article, error) {
	f.htmlCalls++
	f.lastHTML = html
	f.lastTitle = title
	return f.article, f.err
}

type fakeConverter struct {
	document *stage.Document
	err      error
	calls    int
}

func (f *fakeConverter) Convert(_ context.Context, _, _ string) (*stage.Document, error) {
	f.calls++
	return f.document, f.err
}

type fakeSender struct {
	err   error
	calls int
	sent  []*stage.Message
}

func (f *fakeSender) Send(_ context.Context, msg *stage.Message) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "queued for delivery", nil
}

type workerEnv struct {
	worker    *Worker
	store     *fakeStore
	extractor *fakeExtractor
	converter *fakeConverter
	sender    *fakeSender
}

func newWorkerEnv() *workerEnv {
	env := &workerEnv{
		store: &fakeStore{
			job: &domain.Job{
				URL:            "https://example.com/a",
				RecipientEmail: "u@kindle.example",
				CreatedAt:      time.Now().UTC(),
			},
		},
		extractor: &fakeExtractor{
			article: &stage.Article{Title: "A", Content: "<p>x</p>", Text: "x"},
		},
		converter: &fakeConverter{
			document: &stage.Document{File: []byte{0x4d, 0x4f, 0x42, 0x49}},
		},
		sender: &fakeSender{},
	}

	env.worker = NewWorker(&Config{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:        env.store,
		Extraction:   env.extractor,
		Conversion:   env.converter,
		Delivery:     env.sender,
		Concurrency:  1,
		StageTimeout: time.Second,
		SenderEmail:  "delivery@sendtokindle.example",
		SenderName:   "Send To Kindle",
	})

	return env
}

const testJobID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

func TestProcessJob_AllStagesSucceed(t *testing.T) {
	env := newWorkerEnv()

	err := env.worker.processJob(context.Background(), &domain.JobMessage{JobID: testJobID})

	require.NoError(t, err)

	assert.Equal(t, 1, env.extractor.calls)
	assert.Equal(t, "https://example.com/a", env.extractor.lastURL)
	assert.Equal(t, 1, env.converter.calls)
	assert.Equal(t, 1, env.sender.calls)

	// Exactly one delivery with the conversion output attached
	require.Len(t, env.sender.sent, 1)
	msg := env.sender.sent[0]
	require.Len(t, msg.To, 1)
	assert.Equal(t, "u@kindle.example", msg.To[0].Email)
	assert.Equal(t, "A", msg.Subject)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "A.mobi", msg.Attachments[0].Name)
	assert.Equal(t, env.converter.document.File, msg.Attachments[0].File)

	assert.Equal(t, []string{testJobID}, env.store.succeeded)
	assert.Empty(t, env.store.failed)
}

func TestProcessJob_ExtractionFails(t *testing.T) {
	env := newWorkerEnv()
	env.extractor.article = nil
	env.extractor.err = errors.New("no readable article content extracted")

	err := env.worker.processJob(context.Background(), &domain.JobMessage{JobID: testJobID})

	require.Error(t, err)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.ErrorKindExtraction, stageErr.Kind)

	// Later stages never run for a failed job
	assert.Equal(t, 0, env.converter.calls)
	assert.Equal(t, 0, env.sender.calls)

	assert.Equal(t, []string{testJobID}, env.store.failed)
	assert.Equal(t, domain.ErrorKindExtraction, env.store.failedKind)
	assert.Empty(t, env.store.succeeded)

	// Stage failures are terminal, never requeued
	assert.False(t, env.worker.shouldRequeueJob(err))
}

func TestProcessJob_ConversionFails(t *testing.T) {
	env := newWorkerEnv()
	env.converter.document = nil
	env.converter.err = errors.New("converter produced no output")

	err := env.worker.processJob(context.Background(), &domain.JobMessage{JobID: testJobID})

	require.Error(t, err)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.ErrorKindConversion, stageErr.Kind)

	assert.Equal(t, 1, env.extractor.calls)
	assert.Equal(t, 0, env.sender.calls)
	assert.Equal(t, domain.ErrorKindConversion, env.store.failedKind)
}

func TestProcessJob_DeliveryFails(t *testing.T) {
	env := newWorkerEnv()
	env.sender.err = errors.New("relay authentication failed")

	err := env.worker.processJob(context.Background(), &domain.JobMessage{JobID: testJobID})

	require.Error(t, err)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.ErrorKindDelivery, stageErr.Kind)
	assert.Equal(t, domain.ErrorKindDelivery, env.store.failedKind)
	assert.Empty(t, env.store.succeeded)
}

func TestProcessJob_InlineHTMLJob(t *testing.T) {
	env := newWorkerEnv()
	env.store.job.URL = ""
	env.store.job.HTML = "<p>hello</p>"
	env.store.job.Title = "Hello"

	err := env.worker.processJob(context.Background(), &domain.JobMessage{JobID: testJobID})

	require.NoError(t, err)
	assert.Equal(t, 0, env.extractor.calls)
	assert.Equal(t, 1, env.extractor.htmlCalls)
	assert.Equal(t, "<p>hello</p>", env.extractor.lastHTML)
	assert.Equal(t, "Hello", env.extractor.lastTitle)
}

func TestProcessJob_AlreadyClaimed(t *testing.T) {
	env := newWorkerEnv()
	env.store.claimErr = domain.ErrJobAlreadyClaimed

	err := env.worker.processJob(context.Background(), &domain.JobMessage{JobID: testJobID})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrJobAlreadyClaimed)
	assert.Equal(t, 0, env.extractor.calls)

	// Duplicate deliveries are dropped, not requeued
	assert.False(t, env.worker.shouldRequeueJob(err))
}

func TestProcessJob_TransientClaimError(t *testing.T) {
	env := newWorkerEnv()
	env.store.claimErr = errors.New("connection reset by peer")

	err := env.worker.processJob(context.Background(), &domain.JobMessage{JobID: testJobID})

	require.Error(t, err)

	var retryable *domain.RetryableError
	assert.ErrorAs(t, err, &retryable)
	assert.True(t, env.worker.shouldRequeueJob(err))
}

// blockingExtractor parks until the stage context ends, like an in-flight
// RPC interrupted by shutdown or by the per-stage deadline.
type blockingExtractor struct{}

func (b *blockingExtractor) Scrape(ctx context.Context, _ string) (*stage.Article, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *blockingExtractor) ScrapeHTML(ctx context.Context, _, _ string) (*stage.Article, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestProcessJob_CanceledDuringStage(t *testing.T) {
	env := newWorkerEnv()
	env.worker.extraction = &blockingExtractor{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := env.worker.processJob(ctx, &domain.JobMessage{JobID: testJobID})

	require.Error(t, err)

	// Interruption is not a stage failure and must not be recorded as one
	var retryable *domain.RetryableError
	require.ErrorAs(t, err, &retryable)
	assert.Empty(t, env.store.failed)
	assert.Empty(t, env.store.succeeded)

	// The claim is released and the message requeued for redelivery
	assert.Equal(t, []string{testJobID}, env.store.released)
	assert.True(t, env.worker.shouldRequeueJob(err))
	assert.Equal(t, 0, env.sender.calls)
}

func TestProcessJob_StageTimeoutIsTerminal(t *testing.T) {
	env := newWorkerEnv()
	env.worker.extraction = &blockingExtractor{}
	env.worker.runner = pipeline.NewRunner(20*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := env.worker.processJob(context.Background(), &domain.JobMessage{JobID: testJobID})

	require.Error(t, err)

	// A stage blowing its own deadline is a real stage failure
	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.ErrorKindExtraction, stageErr.Kind)
	assert.Equal(t, []string{testJobID}, env.store.failed)
	assert.Empty(t, env.store.released)
	assert.False(t, env.worker.shouldRequeueJob(err))
}

func TestAttachmentName(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"A", "A.mobi"},
		{"Hello, World!", "Hello World.mobi"},
		{"Ünïcödé", "ncd.mobi"},
		{"***", "article.mobi"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, attachmentName(tt.title))
		})
	}
}
