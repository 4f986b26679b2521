package tally

import "time"

// DayLayout is the calendar-date format used in cache keys and query params.
const DayLayout = "2006-01-02"

// BusinessDay returns the retail-day window for the calendar date of day in
// loc: 01:00:00 local on that date through 00:59:59 local the next day.
// Callers convert to UTC before querying the source.
func BusinessDay(day time.Time, loc *time.Location) (from, to time.Time) {
	y, m, d := day.In(loc).Date()
	from = time.Date(y, m, d, 1, 0, 0, 0, loc)
	to = time.Date(y, m, d+1, 0, 59, 59, 0, loc)
	return from, to
}

// Today returns local midnight of now's calendar date in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	return StartOfDay(now, loc)
}

// StartOfDay truncates t to local midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// AddDays shifts a local calendar date by n days, DST-safe.
func AddDays(day time.Time, n int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, day.Location())
}
