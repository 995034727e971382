package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/payperiod"
	"github.com/shopspring/decimal"
)

// Bonus is an additive line item scoped to a calculation by its date.
type Bonus struct {
	ID         string
	EmployeeID string
	Amount     decimal.Decimal
	Currency   employee.Currency
	Date       time.Time
	Reason     *string
	CreatedAt  time.Time
}

// Deduction is a manual subtractive line item scoped by its date.
type Deduction struct {
	ID         string
	EmployeeID string
	Amount     decimal.Decimal
	Currency   employee.Currency
	Date       time.Time
	Reason     *string
	CreatedAt  time.Time
}

type AdvanceStatus string

const (
	AdvanceStatusPending  AdvanceStatus = "Pending"
	AdvanceStatusApproved AdvanceStatus = "Approved"
	AdvanceStatusRejected AdvanceStatus = "Rejected"
	AdvanceStatusPaid     AdvanceStatus = "Paid"
)

// SalaryAdvance stays outstanding while Approved and becomes immutable once Paid.
type SalaryAdvance struct {
	ID              string
	EmployeeID      string
	Amount          decimal.Decimal
	Currency        employee.Currency
	Date            time.Time
	Status          AdvanceStatus
	PaidInPaymentID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (a SalaryAdvance) IsOutstanding() bool {
	return a.Status == AdvanceStatusApproved
}

// LedgerKey identifies one settleable cell: a month, or a week of a month
// for weekly pay.
type LedgerKey struct {
	EmployeeID string
	Year       int
	Month      int
	WeekNumber *int
}

func (k LedgerKey) String() string {
	if k.WeekNumber != nil {
		return fmt.Sprintf("%s:%04d-%02d:w%d", k.EmployeeID, k.Year, k.Month, *k.WeekNumber)
	}
	return fmt.Sprintf("%s:%04d-%02d", k.EmployeeID, k.Year, k.Month)
}

// Payment is a ledger row. At most one exists per LedgerKey.
type Payment struct {
	ID               string
	EmployeeID       string
	PeriodYear       int
	PeriodMonth      int
	WeekNumber       *int
	PaymentType      employee.PaymentType
	Currency         employee.Currency
	GrossAmount      decimal.Decimal
	Deductions       decimal.Decimal
	AdvancesDeducted decimal.Decimal
	NetAmount        decimal.Decimal
	AdvanceIDs       []string
	DeliveredBy      *string
	PaidAt           time.Time
	CreatedAt        time.Time
}

func (p Payment) Key() LedgerKey {
	return LedgerKey{EmployeeID: p.EmployeeID, Year: p.PeriodYear, Month: p.PeriodMonth, WeekNumber: p.WeekNumber}
}

// CurrencyLineItems collects line items that cannot enter the net because
// they are not in the employee's pay currency.
type CurrencyLineItems struct {
	Bonuses    decimal.Decimal `json:"bonuses"`
	Deductions decimal.Decimal `json:"deductions"`
	Advances   decimal.Decimal `json:"advances"`
}

// CalculationResult is derived on demand and never persisted.
type CalculationResult struct {
	EmployeeID            string
	PaymentType           employee.PaymentType
	Currency              employee.Currency
	IsFlatSalary          bool
	StartDate             time.Time
	EndDate               time.Time
	BaseSalary            decimal.Decimal
	OvertimePay           decimal.Decimal
	BonusesTotal          decimal.Decimal
	LatenessDeductions    decimal.Decimal
	UnpaidLeaveDeductions decimal.Decimal
	ManualDeductionsTotal decimal.Decimal
	AdvancesTotal         decimal.Decimal
	TotalDeductions       decimal.Decimal
	NetSalary             decimal.Decimal
	TotalWorkedHours      decimal.Decimal
	TotalRegularHours     decimal.Decimal
	TotalOvertimeHours    decimal.Decimal
	TotalLateMinutes      int
	UnpaidLeaveDays       int
	OutstandingAdvances   []SalaryAdvance
	OtherCurrencies       map[employee.Currency]CurrencyLineItems
}

// GrossPay is base plus overtime plus bonuses.
func (r CalculationResult) GrossPay() decimal.Decimal {
	return r.BaseSalary.Add(r.OvertimePay).Add(r.BonusesTotal)
}

type WeekStatus string

const (
	WeekStatusDue  WeekStatus = "due"
	WeekStatusPaid WeekStatus = "paid"
)

// WeekSettlement is the state of one pay week for a weekly-paid employee.
type WeekSettlement struct {
	Week       payperiod.Week
	Earned     decimal.Decimal
	Bonuses    decimal.Decimal
	Deductions decimal.Decimal
	Net        decimal.Decimal
	Status     WeekStatus
	PaymentID  *string
}
