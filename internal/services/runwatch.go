package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bankgold/internal/core"
	"bankgold/internal/log"
)

// RunSubscriber delivers announced runs to handler until ctx is done.
type RunSubscriber interface {
	ConsumeRunCompleted(ctx context.Context, handler func(context.Context, core.Run) error) error
}

// RunLookup fetches a persisted run.
type RunLookup interface {
	GetRun(ctx context.Context, runID string) (core.Run, error)
}

// RunWatcher logs every completed run announced on the queue. With a ledger
// configured, each announcement is checked against the stored run.
type RunWatcher struct {
	subscriber RunSubscriber
	runs       RunLookup
	logger     *slog.Logger
}

// NewRunWatcher creates a watcher. runs may be nil.
func NewRunWatcher(subscriber RunSubscriber, runs RunLookup, logger *slog.Logger) *RunWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunWatcher{subscriber: subscriber, runs: runs, logger: logger}
}

// Watch blocks until ctx is done, which is not an error, or the
// subscription fails.
func (w *RunWatcher) Watch(ctx context.Context) error {
	err := w.subscriber.ConsumeRunCompleted(ctx, w.Handle)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// Handle logs one announced run. A run missing from the ledger is logged and
// acknowledged; any other lookup failure is returned so the message is
// retried.
func (w *RunWatcher) Handle(ctx context.Context, run core.Run) error {
	fields := log.NewFields().WithOperation(log.OpWatch).WithRun(run.ID, run.Pipeline)

	if w.runs != nil {
		stored, err := w.runs.GetRun(ctx, run.ID)
		switch {
		case errors.Is(err, core.ErrRunNotFound):
			w.logger.WarnContext(ctx, "Announced run not found in ledger", fields.ToSlice()...)
			return nil
		case err != nil:
			return fmt.Errorf("look up run %s: %w", run.ID, err)
		}
		if stored.Rows != run.Rows || stored.Pipeline != run.Pipeline {
			w.logger.WarnContext(ctx, "Announced run differs from ledger",
				append(fields.ToSlice(), "announced_rows", run.Rows, "stored_rows", stored.Rows, "stored_pipeline", stored.Pipeline)...)
		}
		run = stored
	}

	w.logger.InfoContext(ctx, "Run completed",
		append(fields.ToSlice(),
			log.FieldRows, run.Rows,
			log.FieldDuration, run.Duration().Milliseconds(),
			"outputs", run.Outputs)...)
	return nil
}
