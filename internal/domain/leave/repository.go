package leave

import (
	"context"
	"time"
)

type LeaveRequestRepository interface {
	// ListByEmployeeAndRange returns requests of any status whose span overlaps [start, end].
	ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]LeaveRequest, error)
}
