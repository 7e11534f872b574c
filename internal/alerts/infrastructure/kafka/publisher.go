package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	alertapp "waterhealth-cloud/internal/alerts/application"
)

// messageWriter is the subset of kafka-go's Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// batchTimeout bounds how long a synchronous write waits for its batch to
// fill. Notify runs inside recalculation, so it must stay short.
const batchTimeout = 10 * time.Millisecond

// Publisher produces alert events to a Kafka topic. It implements AlertNotifier.
type Publisher struct {
	writer  messageWriter
	logger  zerolog.Logger
	timeout time.Duration
}

// NewPublisher creates a producer for the alert topic.
func NewPublisher(brokers []string, topic string, logger zerolog.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka publisher: no brokers")
	}
	if topic == "" {
		return nil, errors.New("kafka publisher: empty topic")
	}
	return newPublisher(newWriter(brokers, topic), logger), nil
}

func newWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: batchTimeout,
	}
}

func newPublisher(w messageWriter, logger zerolog.Logger) *Publisher {
	return &Publisher{writer: w, logger: logger, timeout: 5 * time.Second}
}

// Notify publishes the event keyed by area so one area's events stay ordered.
// Failures are logged, never returned.
func (p *Publisher) Notify(ctx context.Context, event alertapp.AlertEvent) {
	if p == nil || p.writer == nil {
		return
	}
	msg, err := serializeToMessage(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("serialize alert event")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().Err(err).Str("event", event.Type).Str("alert_id", event.Alert.ID).Msg("publish alert event")
	}
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func serializeToMessage(event alertapp.AlertEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Alert.Area),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "severity", Value: []byte(event.Alert.Severity)},
		},
	}, nil
}
