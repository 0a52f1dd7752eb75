package services

import "time"

// Naive returns the wall clock of t in loc with the location dropped. Order
// timestamps are stored and compared in this form.
func Naive(t time.Time, loc *time.Location) time.Time {
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), l.Hour(), l.Minute(), l.Second(), l.Nanosecond(), time.UTC)
}

// ComputeWindow returns the naive range from local midnight daysAgo days
// before now up to 23:59:59 of now's local day. A negative daysAgo is read as
// the same look-back.
func ComputeWindow(now time.Time, loc *time.Location, daysAgo int) (start, end time.Time) {
	if daysAgo < 0 {
		daysAgo = -daysAgo
	}

	l := now.In(loc)
	start = time.Date(l.Year(), l.Month(), l.Day()-daysAgo, 0, 0, 0, 0, time.UTC)
	end = time.Date(l.Year(), l.Month(), l.Day(), 23, 59, 59, 0, time.UTC)
	return start, end
}
