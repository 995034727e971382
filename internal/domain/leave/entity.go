package leave

import "time"

type LeaveType string

const (
	LeaveTypeAnnual    LeaveType = "Annual"
	LeaveTypeSick      LeaveType = "Sick"
	LeaveTypeEmergency LeaveType = "Emergency"
	LeaveTypeUnpaid    LeaveType = "Unpaid"
)

type LeaveRequestStatus string

const (
	LeaveRequestStatusPending  LeaveRequestStatus = "Pending"
	LeaveRequestStatusApproved LeaveRequestStatus = "Approved"
	LeaveRequestStatusRejected LeaveRequestStatus = "Rejected"
)

type LeaveRequest struct {
	ID         string
	EmployeeID string
	Type       LeaveType
	Status     LeaveRequestStatus
	StartDate  time.Time
	EndDate    time.Time
	// DeductFromSalary forces a deduction regardless of the leave type.
	DeductFromSalary bool
	Reason           *string
	CreatedAt        time.Time
}

// DeductsSalary reports whether the leave reduces pay for the days it covers.
func (l LeaveRequest) DeductsSalary() bool {
	if l.Status != LeaveRequestStatusApproved {
		return false
	}
	return l.Type == LeaveTypeUnpaid || l.DeductFromSalary
}
