package domain

// ChangeKind classifies a state-machine mutation.
type ChangeKind string

const (
	ChangeActivityOpened ChangeKind = "activity_opened"
	ChangeActivityClosed ChangeKind = "activity_closed"
	ChangeSessionEnded   ChangeKind = "session_ended"
)

// Change is a mutation recorded on an ActivityLog and published by
// repositories that maintain an outbox.
type Change struct {
	Kind            ChangeKind
	UserID          int64
	Date            string
	Category        Category
	Start           string
	At              string
	DurationMinutes float64
	// Totals is set for ChangeSessionEnded.
	Totals *SessionTotals
}
