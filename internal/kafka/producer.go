package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/settlewise/case-service/internal/model"
)

// Producer publishes case lifecycle events to a Kafka topic so
// downstream services (notifier, search) can react. Best-effort: a
// broker outage never fails the API request that triggered the event.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a producer. With no brokers or topic configured
// every method is a no-op.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{}
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// ProduceCaseEvent publishes one event with a flat ticket payload,
// keyed by ticket id so a partition sees a case's events in order.
func (p *Producer) ProduceCaseEvent(ctx context.Context, event string, t *model.Ticket) {
	if p.writer == nil || t == nil {
		return
	}
	msg := map[string]interface{}{
		"event":           event,
		"ticket_id":       t.ID,
		"user_id":         t.UserID,
		"stage":           string(t.Stage),
		"status":          string(t.Status),
		"overall_percent": t.OverallPercent,
		"version":         t.Version,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		log.Warn().Err(err).Msg("kafka: marshal case event")
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(t.ID),
		Value: body,
	}); err != nil {
		log.Warn().Err(err).Str("event", event).Msg("kafka: write case event")
	}
}

// ProduceAsync publishes without blocking the API response.
func (p *Producer) ProduceAsync(event string, t *model.Ticket) {
	if p.writer == nil || t == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		p.ProduceCaseEvent(ctx, event, t)
	}()
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
