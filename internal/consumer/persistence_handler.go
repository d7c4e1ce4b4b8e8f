package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/attendance/internal/events"
)

// PersistenceHandler writes consumed events into Postgres for auditing.
// Redelivered records are ignored.
type PersistenceHandler struct {
	pool *pgxpool.Pool
}

// NewPersistenceHandler constructs a handler backed by the provided pool.
func NewPersistenceHandler(pool *pgxpool.Pool) *PersistenceHandler {
	return &PersistenceHandler{pool: pool}
}

// Handle stores the event payload in the attendance_event_log table.
func (h *PersistenceHandler) Handle(ctx context.Context, msg Message) error {
	userID, err := resolveUserID(msg)
	if err != nil {
		return err
	}

	var producedAt any
	if !msg.Timestamp.IsZero() {
		producedAt = msg.Timestamp
	}
	var user any
	if userID != 0 {
		user = userID
	}

	_, err = h.pool.Exec(ctx,
		`INSERT INTO attendance_event_log (topic, kafka_partition, kafka_offset, event_type, user_id, schema_subject, schema_id, payload, produced_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
         ON CONFLICT (topic, kafka_partition, kafka_offset) DO NOTHING`,
		msg.Topic,
		msg.Partition,
		msg.Offset,
		msg.EventType,
		user,
		msg.SchemaSubject,
		msg.SchemaID,
		[]byte(msg.Payload),
		producedAt,
	)
	return err
}

// resolveUserID prefers the user_id header and falls back to the payload.
func resolveUserID(msg Message) (int64, error) {
	if msg.UserID != 0 {
		return msg.UserID, nil
	}
	switch msg.EventType {
	case events.TypeActivityTransitioned:
		var evt events.ActivityTransitioned
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return 0, fmt.Errorf("decode %s: %w", msg.EventType, err)
		}
		return evt.UserID, nil
	case events.TypeSessionClosed:
		var evt events.SessionClosed
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return 0, fmt.Errorf("decode %s: %w", msg.EventType, err)
		}
		return evt.UserID, nil
	default:
		return 0, nil
	}
}
