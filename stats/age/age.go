// Package age renders the elapsed time since a birth
// date as a calendar-aware "X years, Y months, Z days"
// string for the profile card.
package age

import (
	"fmt"
	"time"
)

// Since returns the span between birth and now in whole
// years, months, and days. Days borrow from the month
// preceding now, so the result matches how people count
// ages. On the exact birthday a cake emoji is appended.
func Since(birth time.Time, now time.Time) string {
	years, months, days := split(birth, now)

	cake := ""
	if months == 0 && days == 0 {
		cake = " 🎂"
	}

	return fmt.Sprintf(
		"%d %s, %d %s, %d %s%s",
		years, plural("year", years),
		months, plural("month", months),
		days, plural("day", days),
		cake,
	)
}

// split computes the calendar difference between two
// dates as (years, months, days). It finds the largest
// whole-month span that does not overshoot now, then
// counts the remaining days. Month arithmetic clamps to
// month ends, so Jan 31 plus one month is Feb 28/29.
func split(
	birth time.Time,
	now time.Time,
) (int, int, int) {
	birth = midnight(birth)
	now = midnight(now)

	months := (now.Year()-birth.Year())*12 +
		int(now.Month()) - int(birth.Month())

	anchor := addMonthsClamped(birth, months)
	if anchor.After(now) {
		months--
		anchor = addMonthsClamped(birth, months)
	}

	days := int(now.Sub(anchor).Hours() / 24)

	return months / 12, months % 12, days
}

// midnight truncates t to the start of its day in UTC.
func midnight(t time.Time) time.Time {
	return time.Date(
		t.Year(), t.Month(), t.Day(),
		0, 0, 0, 0, time.UTC,
	)
}

// addMonthsClamped advances t by n months, clamping the
// day of month instead of rolling into the next month.
func addMonthsClamped(t time.Time, n int) time.Time {
	monthIdx := int(t.Month()) - 1 + n

	year := t.Year() + monthIdx/12
	monthIdx %= 12

	if monthIdx < 0 {
		monthIdx += 12
		year--
	}

	month := time.Month(monthIdx + 1)

	day := t.Day()
	if limit := daysIn(year, month); day > limit {
		day = limit
	}

	return time.Date(
		year, month, day, 0, 0, 0, 0, time.UTC,
	)
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(
		year, month+1, 0, 0, 0, 0, 0, time.UTC,
	).Day()
}

// plural appends "s" to unit unless n is exactly 1.
func plural(unit string, n int) string {
	if n == 1 {
		return unit
	}

	return unit + "s"
}
