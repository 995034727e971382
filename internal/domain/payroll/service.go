package payroll

import "context"

type PayrollService interface {
	CalculatePayroll(ctx context.Context, req CalculatePayrollRequest) (CalculationResponse, error)
	GetWeeklySettlements(ctx context.Context, employeeID string, year, month int) ([]WeekSettlementResponse, error)
	ListOutstandingAdvances(ctx context.Context, employeeID string) ([]SalaryAdvanceResponse, error)
	ListPayments(ctx context.Context, employeeID string, year, month int) ([]PaymentResponse, error)
	GetWeeksForMonth(ctx context.Context, year, month int) ([]WeekResponse, error)

	// DeliverSalary settles one ledger key. Rejections come back as a result
	// with Success false and a nil error.
	DeliverSalary(ctx context.Context, req DeliveryRequest) (DeliveryResult, error)
	GetDeliveryTotals(ctx context.Context, filter TotalsFilter) (DeliveryTotalsResponse, error)
}
