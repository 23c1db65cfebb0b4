package notify

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	rediscommon "wisefido-attendance/internal/common/redis"
	"wisefido-attendance/internal/models"
)

// EventAttendanceComputed 一次批量计算完成
const EventAttendanceComputed = "attendance.computed"

// ComputedEvent payload of the "data" field on the result stream
type ComputedEvent struct {
	EventType    string `json:"event_type"`
	RunID        string `json:"run_id"`
	From         string `json:"from"`
	To           string `json:"to"`
	RecordCount  int    `json:"record_count"`
	WarningCount int    `json:"warning_count"`
	ExportPath   string `json:"export_path,omitempty"`
}

// StreamNotifier publishes one ComputedEvent per run to a Redis stream so
// downstream consumers can refresh their views of the range.
type StreamNotifier struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

func NewStreamNotifier(client *redis.Client, stream string, logger *zap.Logger) *StreamNotifier {
	return &StreamNotifier{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (n *StreamNotifier) Notify(ctx context.Context, summary *models.RunSummary, records []models.AttendanceRecord) error {
	id, err := rediscommon.PublishJSONToStream(ctx, n.client, n.stream, ComputedEvent{
		EventType:    EventAttendanceComputed,
		RunID:        summary.RunID,
		From:         summary.From,
		To:           summary.To,
		RecordCount:  summary.RecordCount,
		WarningCount: len(summary.Warnings),
		ExportPath:   summary.ExportPath,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", n.stream, err)
	}

	n.logger.Debug("Published attendance computed event",
		zap.String("stream", n.stream),
		zap.String("message_id", id),
		zap.String("run_id", summary.RunID),
	)
	return nil
}
