package events

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kunaltyagi18/ecomm-store/internal/outbox"
)

type mockWriter struct {
	msgs []kafka.Message
	err  error
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockWriter) Close() error { return nil }

func testRecords() []outbox.Record {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return []outbox.Record{
		{ID: 1, EventID: "e1", Type: "order.created", Key: "o1", Payload: []byte(`{"id":"o1"}`), CreatedAt: at},
		{ID: 2, EventID: "e2", Type: "order.status_changed", Key: "o1", Payload: []byte(`{"id":"o1"}`), CreatedAt: at},
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &mockWriter{}
	p := &KafkaPublisher{w: w}

	require.NoError(t, p.Publish(context.Background(), testRecords()))
	require.Len(t, w.msgs, 2)

	m := w.msgs[0]
	assert.Equal(t, []byte("o1"), m.Key)
	assert.Equal(t, []byte(`{"id":"o1"}`), m.Value)
	assert.Equal(t, []kafka.Header{
		{Key: HeaderEventType, Value: []byte("order.created")},
		{Key: HeaderEventID, Value: []byte("e1")},
	}, m.Headers)
}

func TestKafkaPublisher_Error(t *testing.T) {
	p := &KafkaPublisher{w: &mockWriter{err: errors.New("leader not available")}}

	err := p.Publish(context.Background(), testRecords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write messages")
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogPublisher(zap.New(core))

	require.NoError(t, p.Publish(context.Background(), testRecords()))
	entries := logs.FilterMessage("Order event").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "order.status_changed", entries[1].ContextMap()["event_type"])
}
