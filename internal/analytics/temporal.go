package analytics

import (
	"time"

	"circulation-analytics/internal/circulation"
)

// Clock supplies the reference "now" for a report run.
type Clock func() time.Time

// SystemClock reads the wall clock.
func SystemClock() time.Time {
	return time.Now()
}

// FixedClock always answers t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// Period is the temporal context shared by every report: the reference date
// and the look-back cutoffs derived from it.
type Period struct {
	Today  time.Time
	Last7  time.Time
	Last30 time.Time
	Last90 time.Time
}

func NewPeriod(today time.Time) Period {
	day := circulation.DateOnly(today)
	return Period{
		Today:  day,
		Last7:  day.AddDate(0, 0, -7),
		Last30: day.AddDate(0, 0, -30),
		Last90: day.AddDate(0, 0, -90),
	}
}

// Since reports whether the calendar date of t is on or after cutoff.
// A zero t never matches.
func Since(t time.Time, cutoff time.Time) bool {
	if t.IsZero() {
		return false
	}
	return !circulation.DateOnly(t).Before(cutoff)
}
