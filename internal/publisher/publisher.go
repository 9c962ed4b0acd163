// Package publisher delivers recipe evaluation results to Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/recipes/internal/events"
)

// Publisher emits activity.updated events. It lazily manages one writer per
// topic, mirroring the platform outbox producer.
type Publisher struct {
	brokers []string
	topic   string
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// New creates a Publisher targeting the result topic.
func New(brokers []string, topic string) *Publisher {
	return &Publisher{
		brokers: brokers,
		topic:   topic,
		writers: make(map[string]*kafka.Writer),
	}
}

// PublishActivityUpdated emits the event keyed by user so a consumer sees
// one user's updates in order.
func (p *Publisher) PublishActivityUpdated(ctx context.Context, evt events.ActivityUpdated) error {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(evt.TenantID + ":" + evt.UserID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("activity.updated")},
			{Key: "tenant_id", Value: []byte(evt.TenantID)},
		},
	}
	return p.writerForTopic(p.topic).WriteMessages(ctx, msg)
}

func (p *Publisher) writerForTopic(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
	p.writers[topic] = writer
	return writer
}

// Close releases all writers.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}
