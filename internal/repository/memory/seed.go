package memory

import (
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/worktime"
	"github.com/shopspring/decimal"
)

// Demo employee IDs are fixed so local runs can be exercised with the same
// URLs after every restart.
const (
	seedMonthlyID       = "5a0c1f6e-7d34-4b9a-8e21-0c6d2f9b1a01"
	seedWeeklyID        = "5a0c1f6e-7d34-4b9a-8e21-0c6d2f9b1a02"
	seedHourlyID        = "5a0c1f6e-7d34-4b9a-8e21-0c6d2f9b1a03"
	seedManufacturingID = "5a0c1f6e-7d34-4b9a-8e21-0c6d2f9b1a04"
)

// Seed fills the store with a small demo roster and records for the month
// containing now. Shifts run from the 1st up to now.
func (s *Store) Seed(now time.Time) {
	year, month, _ := now.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	today := worktime.DateOf(now)
	workdays := worktime.NewWorkdaySet(time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday)
	onTime := &worktime.Window{Start: worktime.NewTimeOfDay(8, 0), End: worktime.NewTimeOfDay(8, 15)}

	monthly := s.AddEmployee(employee.Employee{
		ID:           seedMonthlyID,
		EmployeeCode: "E001",
		FullName:     "Rami Haddad",
		Pay: employee.StandardPay{
			PaymentType: employee.PaymentTypeMonthly,
			Currency:    employee.CurrencyUSD,
			Rates:       employee.PayRates{Monthly: decimal.NewFromInt(2100), Overtime: decimal.NewFromInt(10)},
		},
		AgreedDailyHours:      decimal.NewFromInt(8),
		CheckInWindow:         onTime,
		Workdays:              workdays,
		LatenessDeductionRate: decimal.RequireFromString("0.5"),
	})
	weekly := s.AddEmployee(employee.Employee{
		ID:           seedWeeklyID,
		EmployeeCode: "E002",
		FullName:     "Omar Kassem",
		Pay: employee.StandardPay{
			PaymentType: employee.PaymentTypeWeekly,
			Currency:    employee.CurrencySYP,
			Rates:       employee.PayRates{Weekly: decimal.NewFromInt(700), Overtime: decimal.NewFromInt(20)},
		},
		AgreedDailyHours:      decimal.NewFromInt(8),
		CheckInWindow:         onTime,
		Workdays:              workdays,
		LatenessDeductionRate: decimal.NewFromInt(1),
	})
	hourly := s.AddEmployee(employee.Employee{
		ID:           seedHourlyID,
		EmployeeCode: "E003",
		FullName:     "Lina Aziz",
		Pay: employee.StandardPay{
			PaymentType: employee.PaymentTypeHourly,
			Currency:    employee.CurrencyTRY,
			Rates:       employee.PayRates{Hourly: decimal.NewFromInt(5), Overtime: decimal.RequireFromString("7.5")},
		},
		AgreedDailyHours: decimal.NewFromInt(8),
		Workdays:         workdays,
	})
	s.AddEmployee(employee.Employee{
		ID:               seedManufacturingID,
		EmployeeCode:     "M001",
		FullName:         "Yusuf Demir",
		Pay:              employee.ManufacturingFlatPay{Amount: decimal.NewFromInt(1500), Currency: employee.CurrencyUSD, Period: employee.PaymentTypeMonthly},
		AgreedDailyHours: decimal.NewFromInt(8),
		Workdays:         workdays,
	})

	checkOut := worktime.NewTimeOfDay(16, 0)
	for day := first; !day.After(today) && day.Month() == month; day = day.AddDate(0, 0, 1) {
		if !worktime.IsScheduledWorkday(day, workdays) {
			continue
		}
		s.AddAttendance(
			attendance.Attendance{EmployeeID: monthly.ID, Date: day, CheckIn: worktime.NewTimeOfDay(8, 0), CheckOut: &checkOut, Origin: attendance.OriginDevice},
			attendance.Attendance{EmployeeID: weekly.ID, Date: day, CheckIn: worktime.NewTimeOfDay(8, 30), CheckOut: &checkOut, Origin: attendance.OriginDevice},
			attendance.Attendance{EmployeeID: hourly.ID, Date: day, CheckIn: worktime.NewTimeOfDay(9, 0), CheckOut: &checkOut, Origin: attendance.OriginManual},
		)
	}

	reason := func(v string) *string { return &v }
	s.AddBonus(payroll.Bonus{EmployeeID: monthly.ID, Amount: decimal.NewFromInt(150), Currency: employee.CurrencyUSD, Date: first, Reason: reason("Quarterly target")})
	s.AddDeduction(payroll.Deduction{EmployeeID: weekly.ID, Amount: decimal.NewFromInt(25), Currency: employee.CurrencySYP, Date: first, Reason: reason("Uniform")})
	s.AddAdvance(payroll.SalaryAdvance{EmployeeID: monthly.ID, Amount: decimal.NewFromInt(200), Currency: employee.CurrencyUSD, Date: first, Status: payroll.AdvanceStatusApproved})
	s.AddLeave(leave.LeaveRequest{
		EmployeeID: hourly.ID,
		Type:       leave.LeaveTypeUnpaid,
		Status:     leave.LeaveRequestStatusApproved,
		StartDate:  first.AddDate(0, 0, 14),
		EndDate:    first.AddDate(0, 0, 14),
	})
}
