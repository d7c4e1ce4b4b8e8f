// Package events defines the attendance event payloads published to Kafka.
package events

import "time"

const (
	// TypeActivityTransitioned is emitted when an activity opens or closes.
	TypeActivityTransitioned = "attendance.activity_transitioned"
	// TypeSessionClosed is emitted when a worker goes off work.
	TypeSessionClosed = "attendance.session_closed"
)

// ActivityTransitioned records one state-machine step on a daily log.
type ActivityTransitioned struct {
	EventID         string    `json:"event_id"`
	UserID          int64     `json:"user_id"`
	Date            string    `json:"date"`
	Transition      string    `json:"transition"`
	Category        string    `json:"category"`
	Start           string    `json:"start"`
	End             string    `json:"end,omitempty"`
	DurationMinutes float64   `json:"duration_minutes"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// CategoryTotal is the aggregate of one category within a session.
type CategoryTotal struct {
	Minutes float64 `json:"minutes"`
	Count   int     `json:"count"`
}

// SessionClosed carries the totals of the session an off-work event ends.
type SessionClosed struct {
	EventID        string                   `json:"event_id"`
	UserID         int64                    `json:"user_id"`
	Date           string                   `json:"date"`
	EndedAt        string                   `json:"ended_at"`
	Categories     map[string]CategoryTotal `json:"categories"`
	TotalMinutes   float64                  `json:"total_minutes"`
	NetWorkMinutes float64                  `json:"net_work_minutes"`
	OccurredAt     time.Time                `json:"occurred_at"`
}
