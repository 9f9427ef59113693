package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/calibcheck/calendar"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEasterSunday(t *testing.T) {
	t.Parallel()

	cases := map[int]time.Time{
		2015: date(2015, time.April, 5),
		2016: date(2016, time.March, 27),
		2019: date(2019, time.April, 21),
		2024: date(2024, time.March, 31),
	}
	for year, want := range cases {
		assert.Equal(t, want, calendar.EasterSunday(year), "year %d", year)
	}
}

func TestTargetHolidays(t *testing.T) {
	t.Parallel()

	holidays := []time.Time{
		date(2016, time.January, 1),
		date(2016, time.March, 25),
		date(2016, time.March, 28),
		date(2016, time.May, 2).AddDate(0, 0, -1),
		date(2015, time.December, 25),
		date(2017, time.December, 26),
	}
	for _, h := range holidays {
		assert.False(t, calendar.IsBusinessDay(calendar.TARGET, h), h.Format("2006-01-02"))
	}
	assert.True(t, calendar.IsBusinessDay(calendar.WeekendsOnly, date(2016, time.March, 25)))
	assert.True(t, calendar.IsBusinessDay(calendar.TARGET, date(2015, time.December, 24)))
}

func TestAdjust(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"business day unchanged", date(2015, time.November, 20), date(2015, time.November, 20)},
		{"sunday rolls forward", date(2016, time.January, 24), date(2016, time.January, 25)},
		{"month end rolls back", date(2016, time.April, 30), date(2016, time.April, 29)},
		{"good friday rolls to tuesday", date(2016, time.March, 25), date(2016, time.March, 29)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, calendar.Adjust(calendar.TARGET, tc.in))
		})
	}
}

func TestAddBusinessDays(t *testing.T) {
	t.Parallel()

	// Friday 20 Nov 2015 + 2 business days is Tuesday 24 Nov.
	assert.Equal(t, date(2015, time.November, 24), calendar.AddBusinessDays(calendar.TARGET, date(2015, time.November, 20), 2))
	// Christmas Eve + 1 skips 25 Dec (holiday) and the weekend.
	assert.Equal(t, date(2015, time.December, 28), calendar.AddBusinessDays(calendar.TARGET, date(2015, time.December, 24), 1))
	assert.Equal(t, date(2015, time.November, 20), calendar.AddBusinessDays(calendar.TARGET, date(2015, time.November, 24), -2))
}

func TestParse(t *testing.T) {
	t.Parallel()

	cal, err := calendar.Parse("euta")
	require.NoError(t, err)
	assert.Equal(t, calendar.TARGET, cal)

	_, err = calendar.Parse("XXX")
	require.Error(t, err)
}
