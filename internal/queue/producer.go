package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"devassist.app/engine/internal/model"
)

type Producer interface {
	Publish(ctx context.Context, event model.FeedbackEvent) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Publish(ctx context.Context, event model.FeedbackEvent) error {
	fields := map[string]any{
		"task_type":     string(TaskTypeFeedback),
		"event_id":      event.ID,
		"suggestion_id": event.SuggestionID,
		"developer_id":  event.DeveloperID,
		"accepted":      event.Accepted,
		"timestamp_ms":  event.Timestamp.UnixMilli(),
		"attempt":       1,
	}

	if event.QualityRating != nil {
		fields["quality_rating"] = *event.QualityRating
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("publish feedback event: %w", err)
	}

	p.logger.DebugContext(ctx, "published feedback event", "event_id", event.ID, "suggestion_id", event.SuggestionID, "accepted", event.Accepted)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
