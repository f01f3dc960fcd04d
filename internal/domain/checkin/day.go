package checkin

import (
	"fmt"
	"time"

	"github.com/rpggio/cotime/internal/domain/project"
)

// SecondsPerDay divides unix time into UTC days.
const SecondsPerDay = 86400

const (
	DefaultFutureTolerance = 5 * time.Minute
	DefaultMaxAge          = 10 * time.Minute
)

// DayNumber returns the UTC day index of a unix timestamp.
func DayNumber(timestamp int64) int64 {
	day := timestamp / SecondsPerDay
	if timestamp < 0 && timestamp%SecondsPerDay != 0 {
		day--
	}
	return day
}

// NextStreak computes the streak after a check-in on day.
// Callers must already have rejected day <= *lastDay.
func NextStreak(streak uint32, lastDay *int64, day int64) uint32 {
	if lastDay == nil || day-*lastDay == 1 {
		return streak + 1
	}
	return 1
}

// Window bounds how far a check-in timestamp may drift from the server clock.
type Window struct {
	FutureTolerance time.Duration
	MaxAge          time.Duration
}

// DefaultWindow returns the default tolerances.
func DefaultWindow() Window {
	return Window{FutureTolerance: DefaultFutureTolerance, MaxAge: DefaultMaxAge}
}

// Check returns project.ErrReplay when timestamp falls outside the window around now.
func (w Window) Check(now time.Time, timestamp int64) error {
	if timestamp < 0 {
		return fmt.Errorf("%w: negative timestamp", project.ErrReplay)
	}
	at := time.Unix(timestamp, 0)
	if at.After(now.Add(w.FutureTolerance)) {
		return fmt.Errorf("%w: timestamp %d is ahead of server time", project.ErrReplay, timestamp)
	}
	if at.Before(now.Add(-w.MaxAge)) {
		return fmt.Errorf("%w: timestamp %d is too old", project.ErrReplay, timestamp)
	}
	return nil
}
