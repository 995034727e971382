package attendance

import (
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/worktime"
)

type Origin string

const (
	OriginManual Origin = "manual"
	OriginDevice Origin = "device"
)

type Attendance struct {
	ID         string
	EmployeeID string
	Date       time.Time
	CheckIn    worktime.TimeOfDay
	// nil while the shift is still open or the checkout was never recorded
	CheckOut  *worktime.TimeOfDay
	Origin    Origin
	CreatedAt time.Time
}
