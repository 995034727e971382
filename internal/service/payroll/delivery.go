package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/payperiod"
	"github.com/google/uuid"
)

// DeliverSalary writes the ledger row for one period (or one week) and marks
// the selected advances Paid, all in a single transaction. The ledger key is
// held under a lock for the whole check-compute-write sequence, and the
// storage unique key backs it up across processes.
func (s *PayrollServiceImpl) DeliverSalary(ctx context.Context, req payroll.DeliveryRequest) (payroll.DeliveryResult, error) {
	if err := req.Validate(); err != nil {
		return s.reject(req, err), nil
	}

	emp, err := s.repos.Employee.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return s.fail(req, err)
	}

	start, end, err := deliveryRange(emp, req)
	if err != nil {
		return s.reject(req, err), nil
	}

	key := req.Key()
	release, err := s.locker.Acquire(ctx, "delivery:"+key.String())
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return s.reject(req, payroll.ErrDeliveryInProgress), nil
		}
		return s.fail(req, err)
	}
	defer release()

	settled, err := s.repos.Payment.ExistsByKey(ctx, key)
	if err != nil {
		return s.fail(req, err)
	}
	if settled {
		return s.reject(req, payroll.ErrPeriodAlreadySettled), nil
	}

	selected, err := s.selectAdvances(ctx, emp, req.AdvanceIDsToDeduct)
	if err != nil {
		return s.fail(req, err)
	}

	input, err := s.loadCalculationInput(ctx, emp, start, end)
	if err != nil {
		return s.fail(req, err)
	}
	// Only the operator's selection is deducted; the rest stay outstanding.
	input.Advances = selected
	result := Calculate(input)

	payment := payroll.Payment{
		ID:               uuid.NewString(),
		EmployeeID:       emp.ID,
		PeriodYear:       req.Year,
		PeriodMonth:      req.Month,
		WeekNumber:       req.WeekNumber,
		PaymentType:      emp.PaymentType(),
		Currency:         emp.Currency(),
		AdvancesDeducted: result.AdvancesTotal,
		AdvanceIDs:       req.AdvanceIDsToDeduct,
		DeliveredBy:      operatorFromContext(ctx),
		PaidAt:           s.now().UTC(),
	}
	if req.WeekNumber != nil {
		earned, bonuses, deductions, _ := SettleWeek(result)
		payment.GrossAmount = earned.Add(bonuses)
		payment.Deductions = deductions
	} else {
		payment.GrossAmount = result.GrossPay()
		payment.Deductions = result.TotalDeductions
	}
	payment.NetAmount = payment.GrossAmount.Sub(payment.Deductions).Sub(payment.AdvancesDeducted)

	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		created, err := s.repos.Payment.Create(txCtx, payment)
		if err != nil {
			return err
		}
		if len(payment.AdvanceIDs) > 0 {
			n, err := s.repos.Advance.MarkPaid(txCtx, emp.ID, payment.AdvanceIDs, created.ID)
			if err != nil {
				return err
			}
			if n != int64(len(payment.AdvanceIDs)) {
				return payroll.ErrAdvanceSettlementConflict
			}
		}
		payment = created
		return nil
	})
	if err != nil {
		return s.fail(req, err)
	}

	s.logger.Info("Salary delivered",
		"payment_id", payment.ID,
		"employee_id", emp.ID,
		"ledger_key", key.String(),
		"net_amount", payment.NetAmount.String(),
		"currency", payment.Currency,
		"advances_settled", len(payment.AdvanceIDs),
	)

	resp := payroll.NewPaymentResponse(payment)
	return payroll.DeliveryResult{
		Success: true,
		Message: fmt.Sprintf("Delivered %s %s to %s for %s", payment.NetAmount.StringFixed(moneyPlaces), payment.Currency, emp.FullName, periodLabel(req)),
		Payment: &resp,
	}, nil
}

// deliveryRange checks the week selector against the employee's pay cycle and
// returns the dates the delivery covers.
func deliveryRange(emp employee.Employee, req payroll.DeliveryRequest) (time.Time, time.Time, error) {
	if emp.PaymentType() != employee.PaymentTypeWeekly {
		if req.WeekNumber != nil {
			return time.Time{}, time.Time{}, payroll.ErrWeekNumberNotAllowed
		}
		start, end := payperiod.MonthRange(req.Year, req.Month)
		return start, end, nil
	}

	if req.WeekNumber == nil {
		return time.Time{}, time.Time{}, payroll.ErrWeekNumberRequired
	}
	week, ok, err := payperiod.FindWeek(req.Year, req.Month, *req.WeekNumber)
	if err != nil {
		return time.Time{}, time.Time{}, payroll.ErrInvalidPeriod
	}
	if !ok {
		return time.Time{}, time.Time{}, payroll.ErrWeekNotInMonth
	}
	return week.Start, week.End, nil
}

// selectAdvances resolves the operator's selection. Every ID must be an
// outstanding advance of this employee in the pay currency.
func (s *PayrollServiceImpl) selectAdvances(ctx context.Context, emp employee.Employee, ids []string) ([]payroll.SalaryAdvance, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := s.repos.Advance.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]payroll.SalaryAdvance, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}

	selected := make([]payroll.SalaryAdvance, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		switch {
		case !ok:
			return nil, fmt.Errorf("%w: %s", payroll.ErrAdvanceNotFound, id)
		case a.EmployeeID != emp.ID:
			return nil, fmt.Errorf("%w: %s", payroll.ErrAdvanceOtherEmployee, id)
		case !a.IsOutstanding():
			return nil, fmt.Errorf("%w: %s is %s", payroll.ErrAdvanceNotOutstanding, id, a.Status)
		case !sameCurrency(a.Currency, emp.Currency()):
			return nil, fmt.Errorf("%w: %s is in %s", payroll.ErrAdvanceCurrencyMismatch, id, a.Currency)
		}
		selected = append(selected, a)
	}
	return selected, nil
}

func periodLabel(req payroll.DeliveryRequest) string {
	month := time.Month(req.Month).String()
	if req.WeekNumber != nil {
		return fmt.Sprintf("week %d of %s %d", *req.WeekNumber, month, req.Year)
	}
	return fmt.Sprintf("%s %d", month, req.Year)
}

func (s *PayrollServiceImpl) reject(req payroll.DeliveryRequest, err error) payroll.DeliveryResult {
	s.logger.Warn("Salary delivery rejected",
		"employee_id", req.EmployeeID,
		"year", req.Year,
		"month", req.Month,
		"week_number", weekNumberValue(req.WeekNumber),
		"reason", err.Error(),
	)
	return payroll.DeliveryResult{Success: false, Message: err.Error()}
}

// fail turns domain errors into a rejection and passes infrastructure errors
// through alongside a failure result.
func (s *PayrollServiceImpl) fail(req payroll.DeliveryRequest, err error) (payroll.DeliveryResult, error) {
	if isDomainRejection(err) {
		return s.reject(req, err), nil
	}
	s.logger.Error("Salary delivery failed",
		"employee_id", req.EmployeeID,
		"year", req.Year,
		"month", req.Month,
		"week_number", weekNumberValue(req.WeekNumber),
		"error", err,
	)
	return payroll.DeliveryResult{Success: false, Message: "salary delivery failed, please retry"}, fmt.Errorf("failed to deliver salary: %w", err)
}

func weekNumberValue(week *int) int {
	if week == nil {
		return 0
	}
	return *week
}
