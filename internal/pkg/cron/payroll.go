package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
)

const DueSummaryJobName = "payroll_due_summary"

type PayrollJobs struct {
	payrollService payroll.PayrollService
	interval       time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

func NewPayrollJobs(payrollService payroll.PayrollService, interval time.Duration, logger *slog.Logger) *PayrollJobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &PayrollJobs{
		payrollService: payrollService,
		interval:       interval,
		logger:         logger,
		now:            time.Now,
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(DueSummaryJobName, j.interval, j.SummarizeDueSalaries)
}

// SummarizeDueSalaries logs what is still to be delivered for the current
// month, one line per currency.
func (j *PayrollJobs) SummarizeDueSalaries(ctx context.Context) error {
	now := j.now().UTC()
	totals, err := j.payrollService.GetDeliveryTotals(ctx, payroll.TotalsFilter{
		Year:  now.Year(),
		Month: int(now.Month()),
	})
	if err != nil {
		return fmt.Errorf("failed to compute due salaries: %w", err)
	}

	if totals.EmployeeCount == 0 {
		j.logger.Info("Cron: No salaries due", "year", totals.Year, "month", totals.Month)
		return nil
	}

	currencies := make([]employee.Currency, 0, len(totals.Totals))
	for c := range totals.Totals {
		currencies = append(currencies, c)
	}
	sort.Slice(currencies, func(a, b int) bool { return currencies[a] < currencies[b] })

	for _, c := range currencies {
		j.logger.Info("Cron: Salaries due",
			"year", totals.Year,
			"month", totals.Month,
			"currency", c,
			"amount", totals.Totals[c].StringFixed(2),
		)
	}
	j.logger.Info("Cron: Due salary summary completed", "employee_count", totals.EmployeeCount, "currency_count", len(currencies))
	return nil
}
