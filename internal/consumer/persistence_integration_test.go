//go:build integration

package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/attendance/internal/events"
	"example.com/attendance/internal/testsupport"
)

func TestPersistenceHandlerStoresEventOnce(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)

	handler := NewPersistenceHandler(pool)

	payload := json.RawMessage(`{"user_id":42,"date":"2026-10-12","total_minutes":510}`)
	msg := Message{
		EventType:     events.TypeSessionClosed,
		SchemaID:      7,
		SchemaSubject: "attendance_sessions-value",
		Topic:         "attendance_sessions",
		Partition:     0,
		Offset:        5,
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
	}

	require.NoError(t, handler.Handle(ctx, msg))
	require.NoError(t, handler.Handle(ctx, msg))

	var (
		count         int
		userID        int64
		storedPayload []byte
	)
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM attendance_event_log`).Scan(&count))
	require.Equal(t, 1, count)
	require.NoError(t, pool.QueryRow(ctx, `SELECT user_id, payload FROM attendance_event_log LIMIT 1`).Scan(&userID, &storedPayload))
	require.Equal(t, int64(42), userID)
	require.JSONEq(t, string(payload), string(storedPayload))
}
