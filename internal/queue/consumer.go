package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"devassist.app/engine/common/logger"
	"devassist.app/engine/internal/model"
)

type ConsumerConfig struct {
	Stream       string        // Redis stream name
	Group        string        // Redis consumer group name
	Consumer     string        // Redis consumer name
	DLQStream    string        // Dead letter queue stream for failed messages
	BatchSize    int64         // Number of messages to process per batch
	Block        time.Duration // How long to block/poll for new messages
	MaxAttempts  int           // Maximum retry attempts before moving to DLQ
	RequeueDelay time.Duration // Delay before retrying failed messages
}

type Message struct {
	ID            string
	TaskType      TaskType
	EventID       int64
	SuggestionID  string
	DeveloperID   string
	Accepted      bool
	QualityRating *int
	Timestamp     time.Time
	Attempt       int
	Raw           redis.XMessage
}

// Event converts the queue message back into the domain event it carries.
func (m Message) Event() model.FeedbackEvent {
	return model.FeedbackEvent{
		ID:            m.EventID,
		SuggestionID:  m.SuggestionID,
		DeveloperID:   m.DeveloperID,
		Accepted:      m.Accepted,
		QualityRating: m.QualityRating,
		Timestamp:     m.Timestamp,
	}
}

// MessageProcessor processes a queue message.
type MessageProcessor func(ctx context.Context, msg Message) error

type RedisConsumer struct {
	client *redis.Client
	cfg    ConsumerConfig
}

// NewRedisConsumer creates a consumer bound to one group. The controller and
// the persistence worker read the same stream through separate groups, so
// each gets every event exactly once within its group.
func NewRedisConsumer(client *redis.Client, cfg ConsumerConfig) (*RedisConsumer, error) {
	consumer := &RedisConsumer{
		client: client,
		cfg:    cfg,
	}

	if err := consumer.ensureGroup(context.Background()); err != nil { //nolint:contextcheck
		return nil, err
	}

	return consumer, nil
}

func (c *RedisConsumer) ensureGroup(ctx context.Context) error {
	// Consumer groups are just readers, messages live in the stream itself.
	// Starting from "0" instead of "$" means we don't lose messages that were
	// published while the group didn't exist yet.
	if err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err(); err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

func (c *RedisConsumer) Read(ctx context.Context) ([]Message, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "engine.queue.consumer",
	})

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		// > = new messages not yet delivered to anyone in this group.
		Streams: []string{c.cfg.Stream, ">"},
		Count:   c.cfg.BatchSize,
		Block:   c.cfg.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	var messages []Message
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			parsed, parseErr := ParseMessage(msg)
			if parseErr != nil {
				slog.ErrorContext(ctx, "failed to parse message",
					"error", parseErr,
					"raw_message_id", msg.ID,
					"stream", c.cfg.Stream)
				_ = c.Ack(ctx, Message{ID: msg.ID, Raw: msg})
				continue
			}
			messages = append(messages, parsed)
		}
	}

	if len(messages) > 0 {
		slog.DebugContext(ctx, "read messages from stream",
			"count", len(messages),
			"stream", c.cfg.Stream,
			"consumer", c.cfg.Consumer)
	}

	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, msg Message) error {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("xack (stream=%s): %w", c.cfg.Stream, err)
	}
	return nil
}

func (c *RedisConsumer) Requeue(ctx context.Context, msg Message, errMsg string) error {
	attempt := msg.Attempt + 1

	if err := c.Ack(ctx, msg); err != nil {
		return fmt.Errorf("acking failed message for requeue: %w", err)
	}

	values := messageValues(msg, attempt)
	if errMsg != "" {
		values["last_error"] = errMsg
	}

	if c.cfg.RequeueDelay > 0 {
		time.Sleep(c.cfg.RequeueDelay)
	}

	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.cfg.Stream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("xadd requeue: %w", err)
	}

	slog.InfoContext(ctx, "message requeued for retry",
		"next_attempt", attempt,
		"reason", errMsg)
	return nil
}

func (c *RedisConsumer) SendDLQ(ctx context.Context, msg Message, errMsg string) error {
	if err := c.Ack(ctx, msg); err != nil {
		return fmt.Errorf("acking failed message for dlq: %w", err)
	}

	values := messageValues(msg, msg.Attempt)
	values["error"] = errMsg

	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.cfg.DLQStream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("xadd dlq (stream=%s): %w", c.cfg.DLQStream, err)
	}

	slog.ErrorContext(ctx, "message sent to DLQ",
		"final_error", errMsg,
		"dlq_stream", c.cfg.DLQStream)
	return nil
}

func (c *RedisConsumer) MaxAttempts() int {
	return c.cfg.MaxAttempts
}

func ParseMessage(msg redis.XMessage) (Message, error) {
	taskTypeStr, err := parseString(msg.Values, "task_type")
	if err != nil {
		return Message{}, err
	}
	if TaskType(taskTypeStr) != TaskTypeFeedback {
		return Message{}, fmt.Errorf("unknown task_type %q", taskTypeStr)
	}

	eventID, err := parseInt64(msg.Values, "event_id")
	if err != nil {
		return Message{}, err
	}
	suggestionID, err := parseString(msg.Values, "suggestion_id")
	if err != nil {
		return Message{}, err
	}
	developerID, err := parseString(msg.Values, "developer_id")
	if err != nil {
		return Message{}, err
	}
	accepted, err := parseBool(msg.Values, "accepted")
	if err != nil {
		return Message{}, err
	}
	timestampMS, err := parseInt64(msg.Values, "timestamp_ms")
	if err != nil {
		return Message{}, err
	}

	rating, err := parseOptionalInt(msg.Values, "quality_rating")
	if err != nil {
		return Message{}, err
	}

	attempt := 1
	if raw, ok := msg.Values["attempt"]; ok {
		if n, convErr := strconv.Atoi(fmt.Sprint(raw)); convErr == nil && n > 0 {
			attempt = n
		}
	}

	return Message{
		ID:            msg.ID,
		TaskType:      TaskTypeFeedback,
		EventID:       eventID,
		SuggestionID:  suggestionID,
		DeveloperID:   developerID,
		Accepted:      accepted,
		QualityRating: rating,
		Timestamp:     time.UnixMilli(timestampMS).UTC(),
		Attempt:       attempt,
		Raw:           msg,
	}, nil
}

func parseInt64(values map[string]any, key string) (int64, error) {
	raw, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	num, err := strconv.ParseInt(fmt.Sprint(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	return fmt.Sprint(raw), nil
}

func parseBool(values map[string]any, key string) (bool, error) {
	raw, ok := values[key]
	if !ok {
		return false, fmt.Errorf("missing %s", key)
	}
	b, err := strconv.ParseBool(fmt.Sprint(raw))
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", key, err)
	}
	return b, nil
}

func parseOptionalInt(values map[string]any, key string) (*int, error) {
	raw, ok := values[key]
	if !ok {
		return nil, nil
	}
	num, err := strconv.Atoi(fmt.Sprint(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", key, err)
	}
	return &num, nil
}

func messageValues(msg Message, attempt int) map[string]any {
	values := map[string]any{
		"task_type":     string(TaskTypeFeedback),
		"event_id":      msg.EventID,
		"suggestion_id": msg.SuggestionID,
		"developer_id":  msg.DeveloperID,
		"accepted":      msg.Accepted,
		"timestamp_ms":  msg.Timestamp.UnixMilli(),
		"attempt":       attempt,
	}

	if msg.QualityRating != nil {
		values["quality_rating"] = *msg.QualityRating
	}

	return values
}
