package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"devassist.app/engine/common/logger"
	"devassist.app/engine/internal/model"
	"devassist.app/engine/internal/queue"
)

// FeedbackSink receives feedback events read off the stream. The quality
// controller is the production implementation.
type FeedbackSink interface {
	Apply(ctx context.Context, event model.FeedbackEvent)
}

// Applier runs inside the API server and feeds the quality controller from
// its own consumer group. Folding an event into a rolling window is cheap and
// loss-tolerant, so failures ACK rather than retry: a dropped event shifts
// the window by one sample at most.
type Applier struct {
	consumer *queue.RedisConsumer
	sink     FeedbackSink

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewApplier(consumer *queue.RedisConsumer, sink FeedbackSink) *Applier {
	return &Applier{
		consumer:  consumer,
		sink:      sink,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (a *Applier) Run(ctx context.Context) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "engine.worker.applier",
	})

	defer close(a.stoppedCh)

	slog.InfoContext(ctx, "feedback applier started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.stopCh:
			slog.InfoContext(ctx, "applier stopping")
			return nil
		default:
			if err := a.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "applier batch error", "error", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (a *Applier) Stop() {
	close(a.stopCh)
	<-a.stoppedCh
}

func (a *Applier) processOneBatch(ctx context.Context) error {
	messages, err := a.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		a.sink.Apply(ctx, msg.Event())
		if err := a.consumer.Ack(ctx, msg); err != nil {
			slog.WarnContext(ctx, "failed to ACK applied message",
				"error", err,
				"message_id", msg.ID)
		}
	}

	return nil
}
