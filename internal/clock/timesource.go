package clock

import "time"

// TimeSource renders the current instant as civil date and time strings.
type TimeSource struct {
	clock Clock
}

// NewTimeSource wraps c. A nil clock falls back to Real().
func NewTimeSource(c Clock) TimeSource {
	if c == nil {
		c = Real()
	}
	return TimeSource{clock: c}
}

// Moment returns the current instant in the civil zone.
func (s TimeSource) Moment() time.Time {
	return s.clock.Now().In(Civil)
}

// Today returns the current civil date as YYYY-MM-DD.
func (s TimeSource) Today() string {
	return s.Moment().Format(DateLayout)
}

// Now returns the current civil time of day as HH:MM:SS.
func (s TimeSource) Now() string {
	return s.Moment().Format(TimeLayout)
}

// ElapsedMinutes returns end-start in minutes for two HH:MM:SS strings taken
// on the same civil date. It returns 0 when either value is missing or
// unparsable. A span that crosses midnight yields a negative result; callers
// get no day rollover inference.
func ElapsedMinutes(start, end string) float64 {
	if start == "" || end == "" {
		return 0
	}
	s, err := time.ParseInLocation(TimeLayout, start, Civil)
	if err != nil {
		return 0
	}
	e, err := time.ParseInLocation(TimeLayout, end, Civil)
	if err != nil {
		return 0
	}
	return e.Sub(s).Minutes()
}
