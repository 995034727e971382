package employee

import (
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/worktime"
	"github.com/shopspring/decimal"
)

type Employee struct {
	ID                      string
	EmployeeCode            string
	FullName                string
	EmploymentStatus        EmploymentStatus
	Pay                     PayProfile
	AgreedDailyHours        decimal.Decimal
	CheckInWindow           *worktime.Window
	Workdays                worktime.WorkdaySet
	LatenessDeductionRate   decimal.Decimal
	CalculateSalaryBy30Days bool
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// PaymentType returns the pay cycle, taking the manufacturing roster into account.
func (e Employee) PaymentType() PaymentType {
	if e.Pay == nil {
		return PaymentTypeMonthly
	}
	return e.Pay.Cycle()
}

func (e Employee) Currency() Currency {
	if e.Pay == nil {
		return ""
	}
	return e.Pay.PayCurrency()
}

// IsFlatSalary reports membership in the manufacturing staff roster.
func (e Employee) IsFlatSalary() bool {
	_, ok := e.Pay.(ManufacturingFlatPay)
	return ok
}

type PaymentType string

const (
	PaymentTypeMonthly PaymentType = "monthly"
	PaymentTypeWeekly  PaymentType = "weekly"
	PaymentTypeHourly  PaymentType = "hourly"
)

func (p PaymentType) IsValid() bool {
	switch p {
	case PaymentTypeMonthly, PaymentTypeWeekly, PaymentTypeHourly:
		return true
	}
	return false
}

type Currency string

const (
	CurrencySYP Currency = "SYP"
	CurrencyUSD Currency = "USD"
	CurrencyTRY Currency = "TRY"
)

func (c Currency) IsValid() bool {
	switch c {
	case CurrencySYP, CurrencyUSD, CurrencyTRY:
		return true
	}
	return false
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// PayProfile is either StandardPay or ManufacturingFlatPay.
type PayProfile interface {
	Cycle() PaymentType
	PayCurrency() Currency
	isPayProfile()
}

// PayRates are amounts in the employee's pay currency.
type PayRates struct {
	Monthly  decimal.Decimal
	Weekly   decimal.Decimal
	Hourly   decimal.Decimal
	Overtime decimal.Decimal
}

type StandardPay struct {
	PaymentType PaymentType
	Currency    Currency
	Rates       PayRates
}

func (p StandardPay) Cycle() PaymentType    { return p.PaymentType }
func (p StandardPay) PayCurrency() Currency { return p.Currency }
func (StandardPay) isPayProfile()           {}

// ManufacturingFlatPay is a fixed negotiated amount per period. It replaces
// the employee's standard pay and exempts them from lateness and overtime.
type ManufacturingFlatPay struct {
	Amount   decimal.Decimal
	Currency Currency
	Period   PaymentType
}

func (p ManufacturingFlatPay) Cycle() PaymentType {
	if p.Period == PaymentTypeWeekly {
		return PaymentTypeWeekly
	}
	return PaymentTypeMonthly
}

func (p ManufacturingFlatPay) PayCurrency() Currency { return p.Currency }
func (ManufacturingFlatPay) isPayProfile()           {}
