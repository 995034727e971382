package payperiod

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGetWeeksForMonth_LeapFebruary(t *testing.T) {
	weeks, err := GetWeeksForMonth(2024, 2)
	require.NoError(t, err)

	expected := []Week{
		{Number: 1, Start: date(2024, 2, 1), End: date(2024, 2, 3)},
		{Number: 2, Start: date(2024, 2, 4), End: date(2024, 2, 10)},
		{Number: 3, Start: date(2024, 2, 11), End: date(2024, 2, 17)},
		{Number: 4, Start: date(2024, 2, 18), End: date(2024, 2, 24)},
		{Number: 5, Start: date(2024, 2, 25), End: date(2024, 2, 29)},
	}
	assert.Equal(t, expected, weeks)

	again, err := GetWeeksForMonth(2024, 2)
	require.NoError(t, err)
	assert.Equal(t, weeks, again)
}

func TestGetWeeksForMonth_CoversEveryDayOnce(t *testing.T) {
	for _, c := range []struct{ year, month int }{
		{2024, 2}, {2023, 2}, {2024, 9}, {2026, 3}, {2021, 8},
	} {
		weeks, err := GetWeeksForMonth(c.year, c.month)
		require.NoError(t, err)

		first, last := MonthRange(c.year, c.month)
		assert.Equal(t, first, weeks[0].Start)
		assert.Equal(t, last, weeks[len(weeks)-1].End)

		for i, w := range weeks {
			assert.Equal(t, i+1, w.Number)
			assert.False(t, w.End.Before(w.Start))
			if i > 0 {
				assert.Equal(t, weeks[i-1].End.AddDate(0, 0, 1), w.Start, "gap or overlap in %d-%02d", c.year, c.month)
				assert.Equal(t, WeekStart, w.Start.Weekday())
			}
		}
	}
}

func TestGetWeeksForMonth_MonthStartingOnSunday(t *testing.T) {
	// September 2024 starts on a Sunday and ends on a Monday.
	weeks, err := GetWeeksForMonth(2024, 9)
	require.NoError(t, err)

	require.Len(t, weeks, 5)
	assert.Equal(t, date(2024, 9, 7), weeks[0].End)
	assert.Equal(t, date(2024, 9, 29), weeks[4].Start)
	assert.Equal(t, date(2024, 9, 30), weeks[4].End)
}

func TestGetWeeksForMonth_InvalidPeriod(t *testing.T) {
	_, err := GetWeeksForMonth(2024, 13)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = GetWeeksForMonth(0, 1)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestFindWeek(t *testing.T) {
	week, ok, err := FindWeek(2024, 2, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, date(2024, 2, 11), week.Start)
	assert.True(t, week.Contains(time.Date(2024, 2, 17, 23, 0, 0, 0, time.UTC)))
	assert.False(t, week.Contains(date(2024, 2, 18)))

	_, ok, err = FindWeek(2024, 2, 6)
	require.NoError(t, err)
	assert.False(t, ok)
}
