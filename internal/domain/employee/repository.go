package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	// ListActive returns active employees matching the filter, ordered by employee code.
	ListActive(ctx context.Context, filter RosterFilter) ([]Employee, error)
}
