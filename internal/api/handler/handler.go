package handler

import (
	"context"
	"log/slog"

	"github.com/philjnicholls/sendtokindle/internal/api/model"
	"github.com/philjnicholls/sendtokindle/internal/stage"
)

// UserStore is the user lookup surface the handlers need.
type UserStore interface {
	FindByToken(ctx context.Context, token string) (*model.User, error)
	Save(ctx context.Context, user *model.User) error
	Verify(ctx context.Context, email, emailToken string) (*model.User, bool, error)
}

// JobStore persists and reads job records. DeleteJob backs out a row whose
// queue message could not be published.
type JobStore interface {
	CreateJob(ctx context.Context, job *model.Job) error
	GetJobByID(ctx context.Context, jobID string) (*model.Job, error)
	DeleteJob(ctx context.Context, jobID string) error
}

// Publisher publishes a message body to the work queue.
type Publisher interface {
	Publish(ctx context.Context, body []byte, contentType string) error
}

// PageChecker performs the fail-fast reachability check on a submitted URL.
type PageChecker interface {
	Check(ctx context.Context, url string) error
}

// Mailer sends outgoing email through the delivery stage service.
type Mailer interface {
	Send(ctx context.Context, msg *stage.Message) (string, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger      *slog.Logger
	Users       UserStore
	Jobs        JobStore
	Queue       Publisher
	PageChecker PageChecker
	Mailer      Mailer
	BaseURL     string
	SenderEmail string
	SenderName  string
}

// Handler handles all HTTP requests for the API service.
type Handler struct {
	logger      *slog.Logger
	users       UserStore
	jobs        JobStore
	queue       Publisher
	pageChecker PageChecker
	mailer      Mailer
	baseURL     string
	senderEmail string
	senderName  string
}

// NewHandler creates a new Handler instance
func NewHandler(deps *Dependencies) *Handler {
	return &Handler{
		logger:      deps.Logger,
		users:       deps.Users,
		jobs:        deps.Jobs,
		queue:       deps.Queue,
		pageChecker: deps.PageChecker,
		mailer:      deps.Mailer,
		baseURL:     deps.BaseURL,
		senderEmail: deps.SenderEmail,
		senderName:  deps.SenderName,
	}
}
