package calendar

import "time"

// isTargetHoliday implements the TARGET2 closing days: New Year's Day, Good Friday,
// Easter Monday, Labour Day, Christmas Day and 26 December.
func isTargetHoliday(t time.Time) bool {
	switch {
	case t.Month() == time.January && t.Day() == 1:
		return true
	case t.Month() == time.May && t.Day() == 1:
		return true
	case t.Month() == time.December && (t.Day() == 25 || t.Day() == 26):
		return true
	}
	easter := EasterSunday(t.Year())
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.Equal(easter.AddDate(0, 0, -2)) || d.Equal(easter.AddDate(0, 0, 1))
}

// EasterSunday returns Western Easter Sunday for year (anonymous Gregorian algorithm).
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
