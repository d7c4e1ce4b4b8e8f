package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/attendance/internal/domain"
	"example.com/attendance/internal/events"
)

const aggregateType = "activity_log"

// Record is an outbox row ready to be inserted next to the log it describes.
type Record struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	SchemaSubject string
	PartitionKey  string
	Payload       json.RawMessage
	DedupeKey     string
}

// EventMetadata describes how to route an event type.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
	Schema        string
}

var eventCatalog = map[string]EventMetadata{
	events.TypeActivityTransitioned: {
		Topic:         "attendance_events",
		SchemaSubject: "attendance_events-value",
		Schema:        activityTransitionedSchema,
	},
	events.TypeSessionClosed: {
		Topic:         "attendance_sessions",
		SchemaSubject: "attendance_sessions-value",
		Schema:        sessionClosedSchema,
	},
}

// Topics lists every topic the dispatcher publishes to.
func Topics() []string {
	return []string{
		eventCatalog[events.TypeActivityTransitioned].Topic,
		eventCatalog[events.TypeSessionClosed].Topic,
	}
}

// AggregateID identifies a daily log in outbox rows.
func AggregateID(userID int64, date string) string {
	return fmt.Sprintf("%d:%s", userID, date)
}

// RecordsFromChanges maps pending log changes to outbox records.
func RecordsFromChanges(changes []domain.Change, occurredAt time.Time) ([]Record, error) {
	records := make([]Record, 0, len(changes))
	for _, change := range changes {
		eventID := uuid.NewString()
		eventType, payload := payloadFor(eventID, change, occurredAt.UTC())

		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		meta, ok := eventCatalog[eventType]
		if !ok {
			return nil, fmt.Errorf("unknown event type: %s", eventType)
		}
		records = append(records, Record{
			AggregateType: aggregateType,
			AggregateID:   AggregateID(change.UserID, change.Date),
			EventType:     eventType,
			Topic:         meta.Topic,
			SchemaSubject: meta.SchemaSubject,
			PartitionKey:  fmt.Sprintf("%d", change.UserID),
			Payload:       body,
			DedupeKey:     fmt.Sprintf("%s:%s", eventID, eventType),
		})
	}
	return records, nil
}

func payloadFor(eventID string, change domain.Change, occurredAt time.Time) (string, any) {
	if change.Kind == domain.ChangeSessionEnded {
		out := events.SessionClosed{
			EventID:    eventID,
			UserID:     change.UserID,
			Date:       change.Date,
			EndedAt:    change.At,
			Categories: map[string]events.CategoryTotal{},
			OccurredAt: occurredAt,
		}
		if t := change.Totals; t != nil {
			for cat, total := range t.PerCategory {
				out.Categories[string(cat)] = events.CategoryTotal{Minutes: total.Minutes, Count: total.Count}
			}
			out.TotalMinutes = t.TotalMinutes
			out.NetWorkMinutes = t.NetWorkMinutes
		}
		return events.TypeSessionClosed, out
	}

	out := events.ActivityTransitioned{
		EventID:    eventID,
		UserID:     change.UserID,
		Date:       change.Date,
		Transition: string(change.Kind),
		Category:   string(change.Category),
		Start:      change.Start,
		OccurredAt: occurredAt,
	}
	if change.Kind == domain.ChangeActivityClosed {
		out.End = change.At
		out.DurationMinutes = change.DurationMinutes
	}
	return events.TypeActivityTransitioned, out
}
