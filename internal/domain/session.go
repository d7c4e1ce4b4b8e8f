package domain

// CategoryTotal sums the closed entries of one category.
type CategoryTotal struct {
	Minutes float64
	Count   int
}

// SessionTotals is the aggregate of a session slice.
type SessionTotals struct {
	PerCategory    map[Category]CategoryTotal
	TotalMinutes   float64
	NetWorkMinutes float64
}

// Closed returns the number of closed timed entries in the session.
func (t SessionTotals) Closed() int {
	n := 0
	for _, c := range t.PerCategory {
		n += c.Count
	}
	return n
}

// Aggregate totals the closed entries of a session. Open entries and
// SessionEnd markers contribute nothing.
func Aggregate(entries []ActivityEntry) SessionTotals {
	totals := SessionTotals{PerCategory: make(map[Category]CategoryTotal, 4)}
	for _, cat := range TrackedCategories() {
		totals.PerCategory[cat] = CategoryTotal{}
	}

	for _, e := range entries {
		if !e.Closed() {
			continue
		}
		ct, tracked := totals.PerCategory[e.Category]
		if !tracked {
			continue
		}
		ct.Minutes += e.DurationMinutes()
		ct.Count++
		totals.PerCategory[e.Category] = ct
	}

	var breaks float64
	for _, cat := range TrackedCategories() {
		m := totals.PerCategory[cat].Minutes
		totals.TotalMinutes += m
		if cat.IsBreak() {
			breaks += m
		}
	}
	totals.NetWorkMinutes = totals.TotalMinutes - breaks
	return totals
}
