package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/payperiod"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultTotalsConcurrency = 8

// Repositories groups the stores the payroll service reads and writes.
type Repositories struct {
	Employee   employee.EmployeeRepository
	Attendance attendance.AttendanceRepository
	Leave      leave.LeaveRequestRepository
	Bonus      payroll.BonusRepository
	Deduction  payroll.DeductionRepository
	Advance    payroll.SalaryAdvanceRepository
	Payment    payroll.PaymentRepository
}

type PayrollServiceImpl struct {
	repos             Repositories
	tx                payroll.Transactor
	locker            lock.Locker
	logger            *slog.Logger
	now               func() time.Time
	totalsConcurrency int
}

func NewPayrollService(
	repos Repositories,
	tx payroll.Transactor,
	locker lock.Locker,
	logger *slog.Logger,
) payroll.PayrollService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PayrollServiceImpl{
		repos:             repos,
		tx:                tx,
		locker:            locker,
		logger:            logger,
		now:               time.Now,
		totalsConcurrency: defaultTotalsConcurrency,
	}
}

// operatorFromContext returns the user_id claim of the authenticated operator, if any.
func operatorFromContext(ctx context.Context) *string {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil || claims == nil {
		return nil
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil
	}
	return &userID
}

// loadCalculationInput fetches every record collection for the range concurrently.
func (s *PayrollServiceImpl) loadCalculationInput(ctx context.Context, emp employee.Employee, start, end time.Time) (CalculationInput, error) {
	input := CalculationInput{Employee: emp, StartDate: start, EndDate: end}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := s.repos.Attendance.ListByEmployeeAndRange(gctx, emp.ID, start, end)
		if err != nil {
			return fmt.Errorf("failed to load attendance: %w", err)
		}
		input.Attendance = records
		return nil
	})
	g.Go(func() error {
		leaves, err := s.repos.Leave.ListByEmployeeAndRange(gctx, emp.ID, start, end)
		if err != nil {
			return fmt.Errorf("failed to load leave requests: %w", err)
		}
		input.Leaves = leaves
		return nil
	})
	g.Go(func() error {
		bonuses, err := s.repos.Bonus.ListByEmployeeAndRange(gctx, emp.ID, start, end)
		if err != nil {
			return fmt.Errorf("failed to load bonuses: %w", err)
		}
		input.Bonuses = bonuses
		return nil
	})
	g.Go(func() error {
		deductions, err := s.repos.Deduction.ListByEmployeeAndRange(gctx, emp.ID, start, end)
		if err != nil {
			return fmt.Errorf("failed to load deductions: %w", err)
		}
		input.Deductions = deductions
		return nil
	})
	g.Go(func() error {
		advances, err := s.repos.Advance.ListOutstandingByEmployee(gctx, emp.ID)
		if err != nil {
			return fmt.Errorf("failed to load salary advances: %w", err)
		}
		input.Advances = advances
		return nil
	})

	if err := g.Wait(); err != nil {
		return CalculationInput{}, err
	}
	return input, nil
}

// ========== CALCULATION ==========

func (s *PayrollServiceImpl) CalculatePayroll(ctx context.Context, req payroll.CalculatePayrollRequest) (payroll.CalculationResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.CalculationResponse{}, err
	}

	emp, err := s.repos.Employee.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return payroll.CalculationResponse{}, err
	}

	start, end := req.Range()
	input, err := s.loadCalculationInput(ctx, emp, start, end)
	if err != nil {
		return payroll.CalculationResponse{}, err
	}

	return payroll.NewCalculationResponse(Calculate(input)), nil
}

// ========== WEEKS ==========

func (s *PayrollServiceImpl) GetWeeksForMonth(ctx context.Context, year, month int) ([]payroll.WeekResponse, error) {
	weeks, err := payperiod.GetWeeksForMonth(year, month)
	if err != nil {
		return nil, payroll.ErrInvalidPeriod
	}

	responses := make([]payroll.WeekResponse, 0, len(weeks))
	for _, w := range weeks {
		responses = append(responses, payroll.NewWeekResponse(w))
	}
	return responses, nil
}

func (s *PayrollServiceImpl) GetWeeklySettlements(ctx context.Context, employeeID string, year, month int) ([]payroll.WeekSettlementResponse, error) {
	if err := validateEmployeeID(employeeID); err != nil {
		return nil, err
	}
	if !validator.IsValidPeriod(year, month) {
		return nil, payroll.ErrInvalidPeriod
	}

	emp, err := s.repos.Employee.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if emp.PaymentType() != employee.PaymentTypeWeekly {
		return nil, payroll.ErrNotWeeklyEmployee
	}

	weeks, err := payperiod.GetWeeksForMonth(year, month)
	if err != nil {
		return nil, payroll.ErrInvalidPeriod
	}

	start, end := payperiod.MonthRange(year, month)
	input, err := s.loadCalculationInput(ctx, emp, start, end)
	if err != nil {
		return nil, err
	}

	payments, err := s.repos.Payment.ListByEmployeePeriod(ctx, emp.ID, year, month)
	if err != nil {
		return nil, err
	}

	settlements := weekSettlements(input, weeks, payments)
	responses := make([]payroll.WeekSettlementResponse, 0, len(settlements))
	for _, ws := range settlements {
		responses = append(responses, payroll.NewWeekSettlementResponse(ws, emp.Currency()))
	}
	return responses, nil
}

// weekSettlements evaluates every week of the month against the ledger rows
// already written for it.
func weekSettlements(input CalculationInput, weeks []payperiod.Week, payments []payroll.Payment) []payroll.WeekSettlement {
	paid := make(map[int]string, len(payments))
	for _, p := range payments {
		if p.WeekNumber != nil {
			paid[*p.WeekNumber] = p.ID
		}
	}

	settlements := make([]payroll.WeekSettlement, 0, len(weeks))
	for _, w := range weeks {
		weekInput := input
		weekInput.StartDate = w.Start
		weekInput.EndDate = w.End
		earned, bonuses, deductions, net := SettleWeek(Calculate(weekInput))

		ws := payroll.WeekSettlement{
			Week:       w,
			Earned:     earned,
			Bonuses:    bonuses,
			Deductions: deductions,
			Net:        net,
			Status:     payroll.WeekStatusDue,
		}
		if id, ok := paid[w.Number]; ok {
			ws.Status = payroll.WeekStatusPaid
			ws.PaymentID = &id
		}
		settlements = append(settlements, ws)
	}
	return settlements
}

// ========== ADVANCES & LEDGER ==========

func (s *PayrollServiceImpl) ListOutstandingAdvances(ctx context.Context, employeeID string) ([]payroll.SalaryAdvanceResponse, error) {
	if err := validateEmployeeID(employeeID); err != nil {
		return nil, err
	}
	if _, err := s.repos.Employee.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	advances, err := s.repos.Advance.ListOutstandingByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	responses := make([]payroll.SalaryAdvanceResponse, 0, len(advances))
	for _, a := range advances {
		responses = append(responses, payroll.NewSalaryAdvanceResponse(a))
	}
	return responses, nil
}

func (s *PayrollServiceImpl) ListPayments(ctx context.Context, employeeID string, year, month int) ([]payroll.PaymentResponse, error) {
	if err := validateEmployeeID(employeeID); err != nil {
		return nil, err
	}
	if !validator.IsValidPeriod(year, month) {
		return nil, payroll.ErrInvalidPeriod
	}
	if _, err := s.repos.Employee.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	payments, err := s.repos.Payment.ListByEmployeePeriod(ctx, employeeID, year, month)
	if err != nil {
		return nil, err
	}

	responses := make([]payroll.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, payroll.NewPaymentResponse(p))
	}
	return responses, nil
}

// ========== TOTALS ==========

// employeeDue is what one employee still has to be paid for a month.
type employeeDue struct {
	currency employee.Currency
	amount   decimal.Decimal
	due      bool
}

func (s *PayrollServiceImpl) GetDeliveryTotals(ctx context.Context, filter payroll.TotalsFilter) (payroll.DeliveryTotalsResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.DeliveryTotalsResponse{}, err
	}

	roster, err := s.repos.Employee.ListActive(ctx, filter.Roster())
	if err != nil {
		return payroll.DeliveryTotalsResponse{}, err
	}

	weeks, err := payperiod.GetWeeksForMonth(filter.Year, filter.Month)
	if err != nil {
		return payroll.DeliveryTotalsResponse{}, payroll.ErrInvalidPeriod
	}

	payments, err := s.repos.Payment.ListByPeriod(ctx, filter.Year, filter.Month)
	if err != nil {
		return payroll.DeliveryTotalsResponse{}, err
	}
	byEmployee := make(map[string][]payroll.Payment)
	for _, p := range payments {
		byEmployee[p.EmployeeID] = append(byEmployee[p.EmployeeID], p)
	}

	start, end := payperiod.MonthRange(filter.Year, filter.Month)
	dues := make([]employeeDue, len(roster))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.totalsConcurrency)
	for i, emp := range roster {
		g.Go(func() error {
			input, err := s.loadCalculationInput(gctx, emp, start, end)
			if err != nil {
				return fmt.Errorf("employee %s: %w", emp.ID, err)
			}
			dues[i] = amountDue(input, weeks, byEmployee[emp.ID])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return payroll.DeliveryTotalsResponse{}, err
	}

	resp := payroll.DeliveryTotalsResponse{
		Year:   filter.Year,
		Month:  filter.Month,
		Totals: make(map[employee.Currency]decimal.Decimal),
	}
	for _, d := range dues {
		if !d.due {
			continue
		}
		resp.EmployeeCount++
		resp.Totals[d.currency] = resp.Totals[d.currency].Add(d.amount)
	}
	return resp, nil
}

// amountDue sums the earned amount of unpaid weeks for weekly pay, or the
// month's net when the month is not yet settled.
func amountDue(input CalculationInput, weeks []payperiod.Week, payments []payroll.Payment) employeeDue {
	emp := input.Employee
	d := employeeDue{currency: emp.Currency()}

	if emp.PaymentType() == employee.PaymentTypeWeekly {
		for _, ws := range weekSettlements(input, weeks, payments) {
			if ws.Status == payroll.WeekStatusDue {
				d.due = true
				d.amount = d.amount.Add(ws.Earned)
			}
		}
		return d
	}

	for _, p := range payments {
		if p.WeekNumber == nil {
			return d
		}
	}
	d.due = true
	d.amount = Calculate(input).NetSalary
	return d
}

func validateEmployeeID(id string) error {
	if verr := employee.ValidateID("employee_id", id); verr != nil {
		return validator.ValidationErrors{*verr}
	}
	return nil
}

// isDomainRejection reports errors that mean "the request cannot be honoured"
// rather than "the system failed".
func isDomainRejection(err error) bool {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return true
	}
	for _, target := range []error{
		employee.ErrEmployeeNotFound,
		payroll.ErrInvalidPeriod,
		payroll.ErrPeriodAlreadySettled,
		payroll.ErrWeekNumberRequired,
		payroll.ErrWeekNumberNotAllowed,
		payroll.ErrWeekNotInMonth,
		payroll.ErrAdvanceNotFound,
		payroll.ErrAdvanceNotOutstanding,
		payroll.ErrAdvanceOtherEmployee,
		payroll.ErrAdvanceCurrencyMismatch,
		payroll.ErrAdvanceSettlementConflict,
		payroll.ErrDeliveryInProgress,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
