// Package clock provides the civil time source used by the attendance core.
//
// All dates and times recorded by the bot are civil values in a single fixed
// zone (Indochina Time, UTC+7, no daylight saving). Production code injects
// Real(); tests inject Fake() and move time explicitly.
package clock

import (
	"sync"
	"time"
)

const (
	// DateLayout is the civil date format used as part of the log key.
	DateLayout = "2006-01-02"
	// TimeLayout is the 24-hour wall clock format stored on entries.
	TimeLayout = "15:04:05"
)

// Civil is the fixed zone every date and time-of-day is expressed in.
var Civil = time.FixedZone("ICT", 7*60*60)

// Clock abstracts time.Now for testability.
type Clock interface {
	Now() time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// FakeClock is a deterministic Clock. Time only moves on Set or Advance.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
}

// Fake returns a FakeClock frozen at initial.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// Now returns the frozen time.
func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Set moves the clock to t.
func (f *FakeClock) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = t
}

// Advance moves the clock forward by d.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}
