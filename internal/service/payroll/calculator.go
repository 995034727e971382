package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/worktime"
	"github.com/shopspring/decimal"
)

// moneyPlaces is the precision every reported amount is rounded to.
const moneyPlaces = 2

var thirty = decimal.NewFromInt(30)

// CalculationInput holds every record the calculator needs. Records outside
// the employee or the date range are ignored, so callers may pass a superset.
type CalculationInput struct {
	Employee   employee.Employee
	StartDate  time.Time
	EndDate    time.Time
	Attendance []attendance.Attendance
	Leaves     []leave.LeaveRequest
	Bonuses    []payroll.Bonus
	Deductions []payroll.Deduction
	// Advances are the employee's outstanding advances; they are not range-filtered.
	Advances []payroll.SalaryAdvance
}

// Calculate derives the payroll result for one employee over an inclusive
// date range. It has no side effects and is safe for concurrent use.
func Calculate(in CalculationInput) payroll.CalculationResult {
	emp := in.Employee
	start := worktime.DateOf(in.StartDate)
	end := worktime.DateOf(in.EndDate)
	currency := emp.Currency()

	result := payroll.CalculationResult{
		EmployeeID:          emp.ID,
		PaymentType:         emp.PaymentType(),
		Currency:            currency,
		IsFlatSalary:        emp.IsFlatSalary(),
		StartDate:           start,
		EndDate:             end,
		TotalWorkedHours:    decimal.Zero,
		TotalRegularHours:   decimal.Zero,
		TotalOvertimeHours:  decimal.Zero,
		OutstandingAdvances: []payroll.SalaryAdvance{},
		OtherCurrencies:     map[employee.Currency]payroll.CurrencyLineItems{},
	}

	base := decimal.Zero
	overtimePay := decimal.Zero
	lateness := decimal.Zero

	switch pay := emp.Pay.(type) {
	case employee.ManufacturingFlatPay:
		// Flat-salary staff are paid the negotiated amount whatever the attendance says.
		base = pay.Amount
	case employee.StandardPay:
		switch pay.PaymentType {
		case employee.PaymentTypeMonthly:
			base = pay.Rates.Monthly
		case employee.PaymentTypeWeekly:
			base = pay.Rates.Weekly
		}

		for _, rec := range in.Attendance {
			if rec.EmployeeID != emp.ID || !worktime.InRange(rec.Date, start, end) {
				continue
			}
			worked := worktime.WorkedHours(rec.CheckIn, rec.CheckOut)
			regular, overtime := worktime.SplitRegularAndOvertime(worked, emp.AgreedDailyHours)

			result.TotalWorkedHours = result.TotalWorkedHours.Add(worked)
			result.TotalRegularHours = result.TotalRegularHours.Add(regular)
			result.TotalOvertimeHours = result.TotalOvertimeHours.Add(overtime)
			result.TotalLateMinutes += worktime.LatenessMinutes(rec.CheckIn, emp.CheckInWindow)

			if pay.PaymentType == employee.PaymentTypeHourly {
				base = base.Add(regular.Mul(pay.Rates.Hourly))
			}
		}
		overtimePay = result.TotalOvertimeHours.Mul(pay.Rates.Overtime)
		lateness = decimal.NewFromInt(int64(result.TotalLateMinutes)).Mul(emp.LatenessDeductionRate)
	}

	result.UnpaidLeaveDays = unpaidLeaveDays(emp, in.Leaves, start, end)
	unpaidLeave := PerDayRate(emp, start, end).Mul(decimal.NewFromInt(int64(result.UnpaidLeaveDays)))

	bonuses := decimal.Zero
	for _, b := range in.Bonuses {
		if b.EmployeeID != emp.ID || !worktime.InRange(b.Date, start, end) {
			continue
		}
		if sameCurrency(b.Currency, currency) {
			bonuses = bonuses.Add(b.Amount)
			continue
		}
		items := result.OtherCurrencies[b.Currency]
		items.Bonuses = items.Bonuses.Add(b.Amount)
		result.OtherCurrencies[b.Currency] = items
	}

	manual := decimal.Zero
	for _, d := range in.Deductions {
		if d.EmployeeID != emp.ID || !worktime.InRange(d.Date, start, end) {
			continue
		}
		if sameCurrency(d.Currency, currency) {
			manual = manual.Add(d.Amount)
			continue
		}
		items := result.OtherCurrencies[d.Currency]
		items.Deductions = items.Deductions.Add(d.Amount)
		result.OtherCurrencies[d.Currency] = items
	}

	advances := decimal.Zero
	for _, a := range in.Advances {
		if a.EmployeeID != emp.ID || !a.IsOutstanding() {
			continue
		}
		result.OutstandingAdvances = append(result.OutstandingAdvances, a)
		if sameCurrency(a.Currency, currency) {
			advances = advances.Add(a.Amount)
			continue
		}
		items := result.OtherCurrencies[a.Currency]
		items.Advances = items.Advances.Add(a.Amount)
		result.OtherCurrencies[a.Currency] = items
	}

	result.BaseSalary = base.Round(moneyPlaces)
	result.OvertimePay = overtimePay.Round(moneyPlaces)
	result.LatenessDeductions = lateness.Round(moneyPlaces)
	result.UnpaidLeaveDeductions = unpaidLeave.Round(moneyPlaces)
	result.BonusesTotal = bonuses.Round(moneyPlaces)
	result.ManualDeductionsTotal = manual.Round(moneyPlaces)
	result.AdvancesTotal = advances.Round(moneyPlaces)
	result.TotalWorkedHours = result.TotalWorkedHours.Round(moneyPlaces)
	result.TotalRegularHours = result.TotalRegularHours.Round(moneyPlaces)
	result.TotalOvertimeHours = result.TotalOvertimeHours.Round(moneyPlaces)

	result.TotalDeductions = result.LatenessDeductions.
		Add(result.UnpaidLeaveDeductions).
		Add(result.ManualDeductionsTotal)
	result.NetSalary = result.GrossPay().
		Sub(result.TotalDeductions).
		Sub(result.AdvancesTotal)

	return result
}

// unpaidLeaveDays counts scheduled workdays inside [start, end] covered by at
// least one salary-deducting leave. Overlapping leaves count a day once.
func unpaidLeaveDays(emp employee.Employee, leaves []leave.LeaveRequest, start, end time.Time) int {
	days := make(map[time.Time]struct{})
	for _, l := range leaves {
		if l.EmployeeID != emp.ID || !l.DeductsSalary() {
			continue
		}
		from := worktime.DateOf(l.StartDate)
		if from.Before(start) {
			from = start
		}
		to := worktime.DateOf(l.EndDate)
		if to.After(end) {
			to = end
		}
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if worktime.IsScheduledWorkday(d, emp.Workdays) {
				days[d] = struct{}{}
			}
		}
	}
	return len(days)
}

// PerDayRate is what one unpaid scheduled workday costs the employee.
// Monthly pay divides by 30 when the employee is flagged for it and by the
// scheduled workdays in range otherwise. A zero denominator yields zero.
func PerDayRate(emp employee.Employee, start, end time.Time) decimal.Decimal {
	switch pay := emp.Pay.(type) {
	case employee.ManufacturingFlatPay:
		if pay.Cycle() == employee.PaymentTypeWeekly {
			return safeDiv(pay.Amount, emp.Workdays.Len())
		}
		return monthlyDayRate(emp, pay.Amount, start, end)
	case employee.StandardPay:
		switch pay.PaymentType {
		case employee.PaymentTypeMonthly:
			return monthlyDayRate(emp, pay.Rates.Monthly, start, end)
		case employee.PaymentTypeWeekly:
			return safeDiv(pay.Rates.Weekly, emp.Workdays.Len())
		case employee.PaymentTypeHourly:
			return pay.Rates.Hourly.Mul(emp.AgreedDailyHours)
		}
	}
	return decimal.Zero
}

func monthlyDayRate(emp employee.Employee, monthly decimal.Decimal, start, end time.Time) decimal.Decimal {
	if emp.CalculateSalaryBy30Days {
		return monthly.Div(thirty)
	}
	return safeDiv(monthly, worktime.CountWorkdays(start, end, emp.Workdays))
}

func safeDiv(amount decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return amount.Div(decimal.NewFromInt(int64(n)))
}

// sameCurrency treats a line item without a currency as being in the pay currency.
func sameCurrency(item, pay employee.Currency) bool {
	return item == "" || item == pay
}

// SettleWeek turns a calculation over one pay week into the amount a weekly
// employee is due for it. Overtime is not part of weekly pay and advances are
// chosen at delivery time.
func SettleWeek(r payroll.CalculationResult) (earned, bonuses, deductions, net decimal.Decimal) {
	earned = r.BaseSalary
	bonuses = r.BonusesTotal
	deductions = r.TotalDeductions
	net = earned.Add(bonuses).Sub(deductions)
	return earned, bonuses, deductions, net
}
