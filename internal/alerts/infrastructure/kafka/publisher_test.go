package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alertapp "waterhealth-cloud/internal/alerts/application"
	alerts "waterhealth-cloud/internal/alerts/domain"
	risk "waterhealth-cloud/internal/risk/domain"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func sampleEvent() alertapp.AlertEvent {
	alert, _ := alerts.MakeAlert("Avadi", risk.LevelHigh, 61.2, 140, time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC))
	return alertapp.AlertEvent{Type: alertapp.EventCreated, Alert: alert}
}

func TestSerializeToMessage(t *testing.T) {
	msg, err := serializeToMessage(sampleEvent())
	require.NoError(t, err)

	assert.Equal(t, []byte("Avadi"), msg.Key)
	assert.Contains(t, string(msg.Value), `"type":"created"`)
	assert.Contains(t, string(msg.Value), `"severity":"High"`)
	assert.Contains(t, string(msg.Value), `"is_sent":false`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("created"), msg.Headers[0].Value)
	assert.Equal(t, []byte("High"), msg.Headers[1].Value)
}

func TestPublisherNotify(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w, zerolog.Nop())

	p.Notify(context.Background(), sampleEvent())
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("Avadi"), w.msgs[0].Key)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisherSwallowsWriteErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newPublisher(w, zerolog.Nop())
	assert.NotPanics(t, func() { p.Notify(context.Background(), sampleEvent()) })
}

func TestNewPublisherValidates(t *testing.T) {
	_, err := NewPublisher(nil, "alerts", zerolog.Nop())
	assert.Error(t, err)
	_, err = NewPublisher([]string{"localhost:9092"}, "", zerolog.Nop())
	assert.Error(t, err)

	p, err := NewPublisher([]string{"localhost:9092"}, "alerts", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestWriterFlushesWithoutWaitingForFullBatch(t *testing.T) {
	w := newWriter([]string{"kafka-1:9092", "kafka-2:9092"}, "waterhealth.alerts")
	defer w.Close()

	assert.Equal(t, "waterhealth.alerts", w.Topic)
	assert.Equal(t, kafkago.RequireAll, w.RequiredAcks)
	assert.False(t, w.Async)
	assert.Positive(t, w.BatchTimeout)
	assert.LessOrEqual(t, w.BatchTimeout, 50*time.Millisecond)
	assert.IsType(t, &kafkago.Hash{}, w.Balancer)
}
