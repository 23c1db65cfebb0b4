package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"wisefido-attendance/internal/models"
)

// Publisher is satisfied by *mqtt.Client from internal/common/mqtt.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	QoS() byte
}

// MQTTNotifier publishes the run summary (without records) to a topic.
type MQTTNotifier struct {
	publisher Publisher
	topic     string
	logger    *zap.Logger
}

func NewMQTTNotifier(publisher Publisher, topic string, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}
}

func (n *MQTTNotifier) Notify(ctx context.Context, summary *models.RunSummary, records []models.AttendanceRecord) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}
	if err := n.publisher.Publish(n.topic, n.publisher.QoS(), false, payload); err != nil {
		return err
	}

	n.logger.Debug("Published attendance run notice",
		zap.String("topic", n.topic),
		zap.String("run_id", summary.RunID),
	)
	return nil
}
