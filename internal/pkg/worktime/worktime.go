package worktime

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const minutesPerDay = 24 * 60

var sixty = decimal.NewFromInt(60)

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from hour and minute.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay accepts "15:04" or "15:04:05". Seconds are truncated.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Window is a scheduled [Start, End] range, e.g. the allowed check-in window.
type Window struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// WorkedHours returns the hours between check-in and check-out.
// A missing check-out contributes nothing. A check-out earlier than the
// check-in is an overnight shift and wraps around midnight.
func WorkedHours(checkIn TimeOfDay, checkOut *TimeOfDay) decimal.Decimal {
	if checkOut == nil {
		return decimal.Zero
	}
	minutes := int(*checkOut) - int(checkIn)
	if minutes < 0 {
		minutes += minutesPerDay
	}
	return decimal.NewFromInt(int64(minutes)).Div(sixty)
}

// LatenessMinutes returns how many minutes checkIn falls after the end of the
// check-in window. Arriving anywhere up to window.End is on time.
// Without a window there is nothing to be late for.
func LatenessMinutes(checkIn TimeOfDay, window *Window) int {
	if window == nil || checkIn <= window.End {
		return 0
	}
	return int(checkIn) - int(window.End)
}

// SplitRegularAndOvertime caps regular hours at the agreed daily hours.
// A non-positive agreement means the employee has no overtime threshold.
func SplitRegularAndOvertime(worked, agreedDailyHours decimal.Decimal) (regular, overtime decimal.Decimal) {
	if !agreedDailyHours.IsPositive() {
		return worked, decimal.Zero
	}
	regular = decimal.Min(worked, agreedDailyHours)
	overtime = decimal.Max(decimal.Zero, worked.Sub(agreedDailyHours))
	return regular, overtime
}
