package worktime

import "time"

// WorkdaySet is a bitmask of scheduled weekdays; bit i is time.Weekday(i),
// so bit 0 is Sunday.
type WorkdaySet uint8

const allWeekdays WorkdaySet = 1<<7 - 1

// NewWorkdaySet builds a set from weekdays. Out-of-range values are ignored.
func NewWorkdaySet(days ...time.Weekday) WorkdaySet {
	var set WorkdaySet
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			continue
		}
		set |= 1 << uint(d)
	}
	return set
}

// WorkdaySetFromInts is used when reading the weekday list from storage.
func WorkdaySetFromInts(days []int) WorkdaySet {
	weekdays := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		weekdays = append(weekdays, time.Weekday(d))
	}
	return NewWorkdaySet(weekdays...)
}

func (s WorkdaySet) Contains(d time.Weekday) bool {
	if d < time.Sunday || d > time.Saturday {
		return false
	}
	return s&(1<<uint(d)) != 0
}

// Len is the number of scheduled days per week.
func (s WorkdaySet) Len() int {
	n := 0
	for v := s & allWeekdays; v != 0; v &= v - 1 {
		n++
	}
	return n
}

// IsScheduledWorkday reports whether date falls on one of the scheduled weekdays.
func IsScheduledWorkday(date time.Time, set WorkdaySet) bool {
	return set.Contains(date.Weekday())
}

// CountWorkdays counts scheduled workdays in the inclusive date range.
func CountWorkdays(start, end time.Time, set WorkdaySet) int {
	start = DateOf(start)
	end = DateOf(end)
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if set.Contains(d.Weekday()) {
			count++
		}
	}
	return count
}

// DateOf truncates t to its calendar date in UTC, dropping the clock part.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InRange reports whether the calendar date of t lies in [start, end].
func InRange(t, start, end time.Time) bool {
	day := DateOf(t)
	return !day.Before(DateOf(start)) && !day.After(DateOf(end))
}
