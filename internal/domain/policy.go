package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	weekdayDeadlineHour = 11
	sundayDeadlineHour  = 14
)

// DeadlineHour returns the latest on-time start hour for the weekday.
func DeadlineHour(day time.Weekday) int {
	if day == time.Sunday {
		return sundayDeadlineHour
	}
	return weekdayDeadlineHour
}

// IsLate reports whether a start at moment is after the top of the deadline
// hour. The moment is evaluated in its own location.
func IsLate(moment time.Time) bool {
	deadline := DeadlineHour(moment.Weekday())
	hour := moment.Hour()
	if hour != deadline {
		return hour > deadline
	}
	return moment.Minute() > 0 || moment.Second() > 0
}

// FormatDuration renders fractional minutes as 小时/分/秒, omitting zero
// leading units. Seconds are always shown.
func FormatDuration(totalMinutes float64) string {
	if math.IsNaN(totalMinutes) || math.IsInf(totalMinutes, 0) {
		return "0秒"
	}
	secs := int64(math.Round(totalMinutes * 60))
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	hours := secs / 3600
	minutes := (secs % 3600) / 60
	seconds := secs % 60

	var b strings.Builder
	b.WriteString(sign)
	if hours > 0 {
		fmt.Fprintf(&b, "%d小时", hours)
	}
	if hours > 0 || minutes > 0 {
		fmt.Fprintf(&b, "%d分", minutes)
	}
	fmt.Fprintf(&b, "%d秒", seconds)
	return b.String()
}
