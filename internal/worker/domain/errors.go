package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found in the database
	ErrJobNotFound = errors.New("job not found")

	// ErrJobAlreadyClaimed is returned when a redelivered job id points at a
	// row that is no longer in QUEUED status
	ErrJobAlreadyClaimed = errors.New("job already claimed or not in QUEUED status")
)

// StageError carries the error kind recorded on the job when a pipeline
// stage fails. The first failing stage aborts the remaining stages.
type StageError struct {
	Kind string
	Err  error
}

func (e *StageError) Error() string {
	return e.Kind + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps a stage failure with its error kind.
func NewStageError(kind string, err error) error {
	return &StageError{Kind: kind, Err: err}
}

// RetryableError wraps transient infrastructure errors that should trigger
// a requeue. Stage failures are never retryable; they are terminal.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
