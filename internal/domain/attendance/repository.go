package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	// ListByEmployeeAndRange returns records whose date lies in [start, end], oldest first.
	ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]Attendance, error)
}
