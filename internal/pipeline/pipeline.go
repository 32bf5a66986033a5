// Package pipeline runs an ordered list of stage descriptors, stopping at
// the first failure. Stages of one run never execute concurrently or out of
// order; each stage call is bounded by a per-stage timeout.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Stage describes one step of a run: a name for logging, the call itself,
// and an error wrapper that maps a failure to its recorded error kind.
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
	Wrap func(err error) error
}

// Runner executes stages sequentially with a shared per-stage timeout.
type Runner struct {
	stageTimeout time.Duration
	logger       *slog.Logger
}

// NewRunner creates a Runner. A zero stageTimeout means no per-stage bound
// beyond the caller's context.
func NewRunner(stageTimeout time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		stageTimeout: stageTimeout,
		logger:       logger,
	}
}

// Run executes the stages in order. The first failing stage aborts the
// remainder; its error is passed through the stage's Wrap func so the
// caller can record which stage failed.
func (r *Runner) Run(ctx context.Context, stages []Stage) error {
	for _, s := range stages {
		if err := r.runStage(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runStage(ctx context.Context, s Stage) error {
	stageCtx := ctx
	if r.stageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, r.stageTimeout)
		defer cancel()
	}

	start := time.Now()
	r.logger.Debug("Stage started",
		slog.String("stage", s.Name),
	)

	err := s.Run(stageCtx)
	if err != nil {
		r.logger.Error("Stage failed",
			slog.String("stage", s.Name),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()),
		)
		if s.Wrap != nil {
			return s.Wrap(err)
		}
		return fmt.Errorf("stage %s failed: %w", s.Name, err)
	}

	r.logger.Debug("Stage completed",
		slog.String("stage", s.Name),
		slog.Duration("elapsed", time.Since(start)),
	)

	return nil
}
