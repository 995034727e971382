package payperiod

import (
	"errors"
	"time"
)

// WeekStart is the weekday that opens a pay week.
const WeekStart = time.Sunday

var ErrInvalidPeriod = errors.New("invalid pay period")

// Week is one pay week of a month, clipped to the month boundaries.
type Week struct {
	Number int       `json:"week_number"`
	Start  time.Time `json:"start_date"`
	End    time.Time `json:"end_date"`
}

// Contains reports whether the calendar date of t falls inside the week.
func (w Week) Contains(t time.Time) bool {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return !day.Before(w.Start) && !day.After(w.End)
}

// Validate checks a year/month pair.
func Validate(year, month int) error {
	if year < 1 || month < 1 || month > 12 {
		return ErrInvalidPeriod
	}
	return nil
}

// MonthRange returns the first and last calendar day of the month.
func MonthRange(year, month int) (time.Time, time.Time) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// GetWeeksForMonth partitions a month into Sunday-started weeks numbered
// from 1. The first and last weeks are clipped to the month, so together
// the weeks cover every day of the month exactly once.
func GetWeeksForMonth(year, month int) ([]Week, error) {
	if err := Validate(year, month); err != nil {
		return nil, err
	}
	first, last := MonthRange(year, month)

	var weeks []Week
	start := first
	for !start.After(last) {
		offset := (int(time.Saturday) - int(start.Weekday()) + 7) % 7
		end := start.AddDate(0, 0, offset)
		if end.After(last) {
			end = last
		}
		weeks = append(weeks, Week{Number: len(weeks) + 1, Start: start, End: end})
		start = end.AddDate(0, 0, 1)
	}
	return weeks, nil
}

// FindWeek returns the descriptor with the given number.
func FindWeek(year, month, number int) (Week, bool, error) {
	weeks, err := GetWeeksForMonth(year, month)
	if err != nil {
		return Week{}, false, err
	}
	for _, w := range weeks {
		if w.Number == number {
			return w, true, nil
		}
	}
	return Week{}, false, nil
}
