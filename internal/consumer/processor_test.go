package consumer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/attendance/internal/events"
)

func frame(schemaID uint32, payload []byte) []byte {
	value := make([]byte, 5+len(payload))
	value[0] = 0
	binary.BigEndian.PutUint32(value[1:5], schemaID)
	copy(value[5:], payload)
	return value
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessorCommitsOnSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payload := []byte(`{"user_id":7,"transition":"opened","category":"Work"}`)
	msg := kafka.Message{
		Topic:     "attendance_events",
		Partition: 0,
		Offset:    10,
		Time:      time.Now().UTC(),
		Value:     frame(42, payload),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(events.TypeActivityTransitioned)},
			{Key: "user_id", Value: []byte("7")},
			{Key: "schema_subject", Value: []byte("attendance_events-value")},
		},
	}

	reader := &stubReader{messages: []kafka.Message{msg}, after: contextCanceled}
	handler := &stubHandler{}

	processor := NewProcessor(reader, handler, WithLogger(quietLogger()))
	stored := auditStoredCounter.WithLabelValues("attendance_events", events.TypeActivityTransitioned)
	before := testutil.ToFloat64(stored)

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, before+1, testutil.ToFloat64(stored))
	require.Equal(t, float64(msg.Time.Unix()), testutil.ToFloat64(auditLastEventGauge.WithLabelValues("attendance_events")))
	require.Equal(t, events.TypeActivityTransitioned, handler.last.EventType)
	require.Equal(t, int64(7), handler.last.UserID)
	require.Equal(t, 42, handler.last.SchemaID)
	require.Equal(t, "attendance_events-value", handler.last.SchemaSubject)
	require.JSONEq(t, string(payload), string(handler.last.Payload))
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := kafka.Message{
		Topic:  "attendance_sessions",
		Offset: 20,
		Value:  frame(99, []byte(`{"user_id":8}`)),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(events.TypeSessionClosed)},
		},
	}

	reader := &stubReader{messages: []kafka.Message{msg}, after: contextCanceled}
	handler := &stubHandler{err: errors.New("boom")}
	before := testutil.ToFloat64(auditStoreErrorCounter.WithLabelValues("attendance_sessions", events.TypeSessionClosed))

	processor := NewProcessor(reader, handler, WithLogger(quietLogger()))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 0, reader.commitCalls)
	require.Equal(t, before+1, testutil.ToFloat64(auditStoreErrorCounter.WithLabelValues("attendance_sessions", events.TypeSessionClosed)))
}

func TestProcessorCommitsMalformedRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	good := []kafka.Header{{Key: "event_type", Value: []byte(events.TypeSessionClosed)}}
	malformed := []kafka.Message{
		{Topic: "attendance_bad", Value: []byte{0, 1}},
		{Topic: "attendance_bad", Value: frame(1, []byte(`{}`))},
		{Topic: "attendance_bad", Value: append([]byte{1}, frame(1, []byte(`{}`))[1:]...), Headers: good},
		{Topic: "attendance_bad", Value: frame(1, []byte(`{not json`)), Headers: good},
		{Topic: "attendance_bad", Value: frame(1, []byte(`{}`)), Headers: append(good, kafka.Header{Key: "user_id", Value: []byte("abc")})},
	}

	reader := &stubReader{messages: malformed, after: contextCanceled}
	handler := &stubHandler{}
	before := testutil.ToFloat64(auditRejectedCounter.WithLabelValues("attendance_bad"))

	err := NewProcessor(reader, handler, WithLogger(quietLogger())).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Zero(t, handler.calls)
	require.Equal(t, len(malformed), reader.commitCalls)
	require.Equal(t, before+float64(len(malformed)), testutil.ToFloat64(auditRejectedCounter.WithLabelValues("attendance_bad")))
}

func TestProcessorContinuesAfterFetchError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &stubReader{fetchErrs: []error{errors.New("broker gone")}, after: contextCanceled}
	err := NewProcessor(reader, &stubHandler{}, WithLogger(quietLogger())).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 2, reader.fetchCalls)
}

func TestResolveUserID(t *testing.T) {
	id, err := resolveUserID(Message{UserID: 3})
	require.NoError(t, err)
	require.Equal(t, int64(3), id)

	payload, err := json.Marshal(events.SessionClosed{UserID: 9})
	require.NoError(t, err)
	id, err = resolveUserID(Message{EventType: events.TypeSessionClosed, Payload: payload})
	require.NoError(t, err)
	require.Equal(t, int64(9), id)

	id, err = resolveUserID(Message{EventType: "other", Payload: payload})
	require.NoError(t, err)
	require.Zero(t, id)

	_, err = resolveUserID(Message{EventType: events.TypeActivityTransitioned, Payload: json.RawMessage(`[]`)})
	require.Error(t, err)
}

type stubReader struct {
	messages    []kafka.Message
	fetchErrs   []error
	index       int
	fetchCalls  int
	commitCalls int
	after       func() error
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	r.fetchCalls++
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		return kafka.Message{}, err
	}
	if r.index >= len(r.messages) {
		if r.after != nil {
			return kafka.Message{}, r.after()
		}
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commitCalls++
	return nil
}

func (r *stubReader) Close() error { return nil }

func contextCanceled() error { return context.Canceled }

type stubHandler struct {
	calls int
	err   error
	last  Message
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	h.last = msg
	return h.err
}
