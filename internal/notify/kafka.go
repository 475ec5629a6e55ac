package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// approvalEvent is the wire payload published to the approvals topic.
// The consumer fans the notification out to the listed recipients.
type approvalEvent struct {
	Event      string         `json:"event"`
	Recipients []string       `json:"recipients"`
	Notice     ApprovalNotice `json:"notice"`
}

// KafkaNotifier publishes approval notices to a Kafka topic.
type KafkaNotifier struct {
	writer *kafka.Writer
}

var _ Notifier = (*KafkaNotifier)(nil)

// NewKafkaNotifier creates a notifier writing to the given brokers and topic.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &KafkaNotifier{writer: writer}
}

// Close closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

func (n *KafkaNotifier) SendApprovalRequested(ctx context.Context, managerIDs []string, notice ApprovalNotice) error {
	return n.publish(ctx, "approval.requested", managerIDs, notice)
}

func (n *KafkaNotifier) SendApproved(ctx context.Context, submitterID string, notice ApprovalNotice) error {
	return n.publish(ctx, "approval.approved", []string{submitterID}, notice)
}

func (n *KafkaNotifier) SendDeclined(ctx context.Context, submitterID string, notice ApprovalNotice) error {
	return n.publish(ctx, "approval.declined", []string{submitterID}, notice)
}

func (n *KafkaNotifier) publish(ctx context.Context, eventName string, recipients []string, notice ApprovalNotice) error {
	payload, err := json.Marshal(approvalEvent{
		Event:      eventName,
		Recipients: recipients,
		Notice:     notice,
	})
	if err != nil {
		return err
	}

	// Keyed by request so transitions of one request stay ordered.
	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(notice.RequestID),
		Value: payload,
		Time:  time.Now(),
	})
}
