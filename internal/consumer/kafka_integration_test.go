//go:build integration

package consumer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	kafkacontainer "github.com/testcontainers/testcontainers-go/modules/kafka"

	"example.com/attendance/internal/events"
	"example.com/attendance/internal/outbox"
)

type collectingHandler struct {
	mu       sync.Mutex
	messages []Message
}

func (h *collectingHandler) Handle(_ context.Context, msg Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
	return nil
}

func (h *collectingHandler) received() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Message(nil), h.messages...)
}

func TestKafkaRoundTripThroughProcessor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	kafkaC, err := kafkacontainer.Run(ctx, "confluentinc/confluent-local:7.5.0",
		kafkacontainer.WithClusterID("attendance-it"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kafkaC.Terminate(context.Background()) })

	brokers, err := kafkaC.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)

	topic := "attendance_events"
	conn, err := kafka.Dial("tcp", brokers[0])
	require.NoError(t, err)
	require.NoError(t, conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
	require.NoError(t, conn.Close())

	reader := NewKafkaReader(brokers, "attendance-it", topic)
	defer reader.Close()

	handler := &collectingHandler{}
	consumerCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() { _ = NewProcessor(reader, handler).Run(consumerCtx) }()

	payload, err := json.Marshal(events.ActivityTransitioned{
		EventID:    "evt-it",
		UserID:     77,
		Date:       "2026-10-12",
		Transition: "activity_opened",
		Category:   "Work",
		Start:      "09:00:00",
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	frame := make([]byte, 5+len(payload))
	binary.BigEndian.PutUint32(frame[1:5], 12)
	copy(frame[5:], payload)

	producer := outbox.NewKafkaProducer(brokers)
	defer producer.Close()
	require.NoError(t, producer.WriteMessages(ctx, topic, kafka.Message{
		Key:   []byte("77"),
		Value: frame,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(events.TypeActivityTransitioned)},
			{Key: "user_id", Value: []byte("77")},
			{Key: "schema_subject", Value: []byte("attendance_events-value")},
		},
	}))

	require.Eventually(t, func() bool { return len(handler.received()) == 1 }, time.Minute, 250*time.Millisecond)

	got := handler.received()[0]
	require.Equal(t, events.TypeActivityTransitioned, got.EventType)
	require.Equal(t, int64(77), got.UserID)
	require.Equal(t, 12, got.SchemaID)
	require.Equal(t, "attendance_events-value", got.SchemaSubject)
	require.JSONEq(t, string(payload), string(got.Payload))
}
