package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"devassist.app/engine/common/logger"
	"devassist.app/engine/internal/queue"
	"devassist.app/engine/internal/store"
)

type Config struct {
	MaxAttempts int
}

// Worker drains the persistence consumer group and writes feedback events to
// Postgres. Inserts are idempotent on event ID, so a crash between insert and
// ACK only costs a harmless re-insert.
type Worker struct {
	consumer *queue.RedisConsumer
	feedback store.FeedbackStore
	cfg      Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer *queue.RedisConsumer, feedback store.FeedbackStore, cfg Config) *Worker {
	return &Worker{
		consumer:  consumer,
		feedback:  feedback,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "engine.worker",
	})

	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "feedback persistence worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "message processing failed",
				"error", err,
				"message_id", msg.ID,
				"suggestion_id", msg.SuggestionID)
			w.handleFailedMessage(ctx, msg, err)
		}
	}

	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// Exported so it can be reused by the reclaimer.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageID:    logger.Ptr(msg.ID),
		SuggestionID: logger.Ptr(msg.SuggestionID),
		DeveloperID:  logger.Ptr(msg.DeveloperID),
	})

	if err := w.feedback.Insert(ctx, msg.Event()); err != nil {
		return fmt.Errorf("persisting feedback event: %w", err)
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// Log but don't fail - the message will be reclaimed, and the
		// insert is idempotent.
		slog.WarnContext(ctx, "failed to ACK message", "error", err)
	}

	slog.DebugContext(ctx, "feedback event persisted",
		"event_id", msg.EventID,
		"accepted", msg.Accepted,
		"attempt", msg.Attempt)
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ",
			"message_id", msg.ID,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed message",
		"message_id", msg.ID,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
