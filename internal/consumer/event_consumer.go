package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	rediscommon "wisefido-attendance/internal/common/redis"
	"wisefido-attendance/internal/models"
)

// ErrInvalidEvent 事件缺少必要字段或日期范围非法
var ErrInvalidEvent = errors.New("invalid event")

const (
	EventSwipesImported = "swipes.imported"
	EventShiftsChanged  = "shifts.changed"
)

// Recomputer recomputes attendance for work dates in [from, to].
type Recomputer interface {
	Recompute(ctx context.Context, from, to time.Time) error
}

// AttendanceEvent 考勤重算事件
type AttendanceEvent struct {
	EventType string `json:"event_type"`
	From      string `json:"from"` // 2006-01-02
	To        string `json:"to"`   // 2006-01-02，为空时等于 from
	Source    string `json:"source,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// EventConsumer 事件消费者
type EventConsumer struct {
	redisClient  *redis.Client
	recomputer   Recomputer
	logger       *zap.Logger
	location     *time.Location
	stream       string
	groupName    string
	consumerName string
	batchSize    int64
	block        time.Duration

	// 为 true 时先重读本消费者未确认的消息
	drainPending bool
}

// Options stream coordinates of one consumer
type Options struct {
	Stream       string
	Group        string
	ConsumerName string
	BatchSize    int64
	Block        time.Duration // < 0 不阻塞
	Location     *time.Location
}

// NewEventConsumer 创建事件消费者
func NewEventConsumer(redisClient *redis.Client, recomputer Recomputer, logger *zap.Logger, opts Options) *EventConsumer {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	return &EventConsumer{
		redisClient:  redisClient,
		recomputer:   recomputer,
		logger:       logger,
		location:     opts.Location,
		stream:       opts.Stream,
		groupName:    opts.Group,
		consumerName: opts.ConsumerName,
		batchSize:    opts.BatchSize,
		block:        opts.Block,
	}
}

// Start 启动事件消费者，ctx 取消时返回
func (c *EventConsumer) Start(ctx context.Context) error {
	if err := rediscommon.CreateConsumerGroup(ctx, c.redisClient, c.stream, c.groupName); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	// 重启后先处理上次遗留的未确认消息
	c.drainPending = true

	c.logger.Info("Event consumer started",
		zap.String("stream", c.stream),
		zap.String("consumer_group", c.groupName),
		zap.String("consumer_name", c.consumerName),
	)

	// 消费事件（带指数退避）
	backoffDuration := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if _, err := c.consumeEvents(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to consume events",
				zap.Error(err),
				zap.Duration("backoff", backoffDuration),
			)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoffDuration):
				backoffDuration *= 2
				if backoffDuration > maxBackoff {
					backoffDuration = maxBackoff
				}
			}
			continue
		}
		backoffDuration = time.Second
	}
}

// consumeEvents reads one batch and returns how many messages were acked.
//
// While drainPending is set the batch comes from this consumer's pending
// entries; once none are left it switches to new messages. A failed recompute
// or ack leaves the message pending, sets drainPending again and returns an
// error so Start backs off before retrying.
func (c *EventConsumer) consumeEvents(ctx context.Context) (int, error) {
	var messages []rediscommon.StreamMessage
	var err error
	if c.drainPending {
		messages, err = rediscommon.ReadPendingFromStream(ctx, c.redisClient, c.stream, c.groupName, c.consumerName, c.batchSize)
		if err == nil && len(messages) == 0 {
			c.drainPending = false
			return 0, nil
		}
	} else {
		messages, err = rediscommon.ReadFromStream(
			ctx,
			c.redisClient,
			c.stream,
			c.groupName,
			c.consumerName,
			c.batchSize,
			c.block,
		)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read from stream: %w", err)
	}

	acked, failed := 0, 0
	for _, msg := range messages {
		err := c.processEvent(ctx, msg)
		switch {
		case errors.Is(err, ErrInvalidEvent):
			// 无法解析的消息直接确认，避免反复投递
			c.logger.Warn("Dropping invalid event",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		case err != nil:
			c.logger.Error("Failed to process event",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			failed++
			continue
		}

		if err := rediscommon.Ack(ctx, c.redisClient, c.stream, c.groupName, msg.ID); err != nil {
			c.logger.Warn("Failed to ack message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			failed++
			continue
		}
		acked++
	}

	if failed > 0 {
		c.drainPending = true
		return acked, fmt.Errorf("%d events left pending", failed)
	}
	return acked, nil
}

// processEvent 处理单个事件
func (c *EventConsumer) processEvent(ctx context.Context, msg rediscommon.StreamMessage) error {
	event, err := ParseEvent(msg)
	if err != nil {
		return err
	}

	switch event.EventType {
	case EventSwipesImported, EventShiftsChanged:
	default:
		c.logger.Warn("Unknown event type",
			zap.String("event_type", event.EventType),
		)
		return nil
	}

	from, to, err := event.DateRange(c.location)
	if err != nil {
		return err
	}

	c.logger.Info("Processing attendance event",
		zap.String("event_type", event.EventType),
		zap.String("from", event.From),
		zap.String("to", event.To),
	)

	return c.recomputer.Recompute(ctx, from, to)
}

// ParseEvent reads the JSON "data" field, falling back to flat stream fields.
func ParseEvent(msg rediscommon.StreamMessage) (*AttendanceEvent, error) {
	if dataStr, ok := msg.Values["data"].(string); ok {
		var event AttendanceEvent
		if err := json.Unmarshal([]byte(dataStr), &event); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		return event.validate()
	}

	event := AttendanceEvent{}
	if v, ok := msg.Values["event_type"].(string); ok {
		event.EventType = v
	}
	if v, ok := msg.Values["from"].(string); ok {
		event.From = v
	}
	if v, ok := msg.Values["to"].(string); ok {
		event.To = v
	}
	if v, ok := msg.Values["source"].(string); ok {
		event.Source = v
	}
	return event.validate()
}

func (e AttendanceEvent) validate() (*AttendanceEvent, error) {
	if e.EventType == "" || e.From == "" {
		return nil, fmt.Errorf("%w: missing event_type or from", ErrInvalidEvent)
	}
	if e.To == "" {
		e.To = e.From
	}
	return &e, nil
}

// DateRange parses From/To as work dates in loc.
func (e AttendanceEvent) DateRange(loc *time.Location) (time.Time, time.Time, error) {
	from, err := time.ParseInLocation(models.WorkDateLayout, e.From, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from: %v", ErrInvalidEvent, err)
	}
	to, err := time.ParseInLocation(models.WorkDateLayout, e.To, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to: %v", ErrInvalidEvent, err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to %s before from %s", ErrInvalidEvent, e.To, e.From)
	}
	return from, to, nil
}
