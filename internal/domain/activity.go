package domain

import "example.com/attendance/internal/clock"

// ActivityEntry is one interval of the daily log. End is empty while the
// entry is open. SessionEnd markers always have Start == End.
type ActivityEntry struct {
	Category Category `json:"category"`
	Start    string   `json:"start"`
	End      string   `json:"end,omitempty"`
}

// Closed reports whether the entry has an end time.
func (e ActivityEntry) Closed() bool {
	return e.End != ""
}

// DurationMinutes returns the entry length, or 0 while open.
func (e ActivityEntry) DurationMinutes() float64 {
	return clock.ElapsedMinutes(e.Start, e.End)
}

// ActivityLog is the append-only record for one user on one civil date.
type ActivityLog struct {
	UserID     int64
	Date       string
	Activities []ActivityEntry
	// Version is the optimistic concurrency token maintained by repositories.
	Version int64

	changes []Change
}

// NewActivityLog returns an empty log for the given key.
func NewActivityLog(userID int64, date string) *ActivityLog {
	return &ActivityLog{UserID: userID, Date: date, Activities: []ActivityEntry{}}
}

// ClosedActivity describes the entry closed by CloseOpen.
type ClosedActivity struct {
	Category        Category
	DurationMinutes float64
}

// Open returns the currently open entry, if any.
func (l *ActivityLog) Open() (ActivityEntry, bool) {
	if len(l.Activities) == 0 {
		return ActivityEntry{}, false
	}
	last := l.Activities[len(l.Activities)-1]
	if last.Closed() || last.Category == CategorySessionEnd {
		return ActivityEntry{}, false
	}
	return last, true
}

// CloseOpen ends the open entry at the given time. It is a no-op returning
// false when nothing is open.
func (l *ActivityLog) CloseOpen(at string) (ClosedActivity, bool) {
	if _, ok := l.Open(); !ok {
		return ClosedActivity{}, false
	}
	idx := len(l.Activities) - 1
	l.Activities[idx].End = at
	entry := l.Activities[idx]
	closed := ClosedActivity{Category: entry.Category, DurationMinutes: entry.DurationMinutes()}
	l.record(Change{
		Kind:            ChangeActivityClosed,
		Category:        entry.Category,
		Start:           entry.Start,
		At:              at,
		DurationMinutes: closed.DurationMinutes,
	})
	return closed, true
}

// OpenNew appends an open entry. Callers close the previous entry first.
func (l *ActivityLog) OpenNew(category Category, at string) {
	l.Activities = append(l.Activities, ActivityEntry{Category: category, Start: at})
	l.record(Change{Kind: ChangeActivityOpened, Category: category, Start: at, At: at})
}

// MarkSessionEnd appends a zero-length SessionEnd marker. It does not close
// the open entry. The recorded change carries the totals of the session the
// marker terminates.
func (l *ActivityLog) MarkSessionEnd(at string) {
	totals := Aggregate(l.CurrentSession())
	l.Activities = append(l.Activities, ActivityEntry{Category: CategorySessionEnd, Start: at, End: at})
	l.record(Change{Kind: ChangeSessionEnded, Category: CategorySessionEnd, Start: at, At: at, Totals: &totals})
}

// CurrentSession returns the entries after the last SessionEnd marker, or the
// whole log when no marker exists.
func (l *ActivityLog) CurrentSession() []ActivityEntry {
	for i := len(l.Activities) - 1; i >= 0; i-- {
		if l.Activities[i].Category == CategorySessionEnd {
			return l.Activities[i+1:]
		}
	}
	return l.Activities
}

// Clone returns a deep copy, including pending changes.
func (l *ActivityLog) Clone() *ActivityLog {
	if l == nil {
		return nil
	}
	out := *l
	out.Activities = make([]ActivityEntry, len(l.Activities))
	copy(out.Activities, l.Activities)
	if l.changes != nil {
		out.changes = make([]Change, len(l.changes))
		copy(out.changes, l.changes)
	}
	return &out
}

// PendingChanges returns mutations recorded since the log was loaded.
func (l *ActivityLog) PendingChanges() []Change {
	out := make([]Change, len(l.changes))
	copy(out, l.changes)
	return out
}

// ClearChanges drops pending changes once they are persisted.
func (l *ActivityLog) ClearChanges() {
	l.changes = nil
}

func (l *ActivityLog) record(c Change) {
	c.UserID = l.UserID
	c.Date = l.Date
	l.changes = append(l.changes, c)
}
