package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// DefaultTopic is where audit events land unless overridden.
const DefaultTopic = "copydesk.audit"

// Publisher mirrors the trail onto a message bus for downstream consumers
// (reporting, archival). Publishing is best-effort: the database row is the
// source of truth and a broker outage never fails a status change.
type Publisher interface {
	Publish(ctx context.Context, entry Entry)
	Close()
}

// KafkaPublisher emits one JSON event per audit entry, keyed by application
// ID so a single application's events stay ordered within a partition.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic, logger: logger}, nil
}

type auditEvent struct {
	ID            string  `json:"id"`
	ApplicationID string  `json:"application_id"`
	OldStatus     *string `json:"old_status"`
	NewStatus     string  `json:"new_status"`
	Remarks       string  `json:"remarks,omitempty"`
	ChangedBy     string  `json:"changed_by"`
	ChangedAt     string  `json:"changed_at"`
}

func (p *KafkaPublisher) Publish(ctx context.Context, entry Entry) {
	event := auditEvent{
		ID:            entry.ID.String(),
		ApplicationID: entry.ApplicationID.String(),
		NewStatus:     string(entry.NewStatus),
		Remarks:       entry.Remarks,
		ChangedBy:     entry.ChangedBy,
		ChangedAt:     entry.ChangedAt.UTC().Format(time.RFC3339Nano),
	}
	if entry.OldStatus != nil {
		v := string(*entry.OldStatus)
		event.OldStatus = &v
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal audit event", "error", err, "application_id", entry.ApplicationID)
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(entry.ApplicationID.String()),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("publish audit event", "error", err, "application_id", entry.ApplicationID)
		}
	})
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}

// NopPublisher discards events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Entry) {}
func (NopPublisher) Close()                         {}
