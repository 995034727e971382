package payroll

import (
	"context"
	"time"
)

type BonusRepository interface {
	ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]Bonus, error)
}

type DeductionRepository interface {
	ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]Deduction, error)
}

type SalaryAdvanceRepository interface {
	// ListOutstandingByEmployee returns Approved advances, oldest first.
	ListOutstandingByEmployee(ctx context.Context, employeeID string) ([]SalaryAdvance, error)
	GetByIDs(ctx context.Context, ids []string) ([]SalaryAdvance, error)
	// MarkPaid moves the employee's Approved advances among ids to Paid and
	// returns how many rows changed.
	MarkPaid(ctx context.Context, employeeID string, ids []string, paymentID string) (int64, error)
}

// PaymentRepository is the payment ledger.
type PaymentRepository interface {
	// Create returns ErrPeriodAlreadySettled when the ledger key is taken.
	Create(ctx context.Context, payment Payment) (Payment, error)
	ExistsByKey(ctx context.Context, key LedgerKey) (bool, error)
	ListByEmployeePeriod(ctx context.Context, employeeID string, year, month int) ([]Payment, error)
	ListByPeriod(ctx context.Context, year, month int) ([]Payment, error)
}

// Transactor runs fn so that every repository call made with the context it
// receives commits or rolls back together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
