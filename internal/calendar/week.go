package calendar

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// WeekToDate returns the Monday (00:00 UTC) of the given week number in the given year.
// January 4th always falls in week 1, so the Monday of Jan 4's week is the start of week 1.
// Week numbers are not bounds-checked: week 0 or week 55 simply roll into the adjacent year.
func WeekToDate(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)

	// time.Weekday has Sunday = 0; shift so Monday = 0 ... Sunday = 6
	offset := (int(jan4.Weekday()) + 6) % 7
	week1Monday := jan4.AddDate(0, 0, -offset)

	return week1Monday.AddDate(0, 0, (week-1)*7)
}

// WeeksInYear returns the number of ISO weeks (52 or 53) in the given year.
// December 28th always belongs to the last week of its year.
func WeeksInYear(year int) int {
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

// WeekOf returns the ISO year and week number of t.
func WeekOf(t time.Time) (year, week int) {
	return t.UTC().ISOWeek()
}

// DaysBetween returns the number of whole days from 'from' to 'to', floored.
// The result is negative when 'to' is before 'from'.
func DaysBetween(from, to time.Time) int {
	return int(math.Floor(float64(to.Sub(from)) / float64(day)))
}
