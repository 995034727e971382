package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/worktime"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation        = "23505"
	ledgerKeyConstraint    = "uk_salary_payments_ledger_key"
	advanceStatusApproved  = string(payroll.AdvanceStatusApproved)
	advanceStatusPaid      = string(payroll.AdvanceStatusPaid)
	ledgerWeekNumberColumn = "COALESCE(week_number, 0)"
)

// ========== BONUSES ==========

type bonusRepository struct {
	db database.Querier
}

func NewBonusRepository(db database.Querier) payroll.BonusRepository {
	return &bonusRepository{db: db}
}

func (r *bonusRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]payroll.Bonus, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, amount, currency, date, reason, created_at
		FROM bonuses
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date, id
	`

	rows, err := q.Query(ctx, query, employeeID, worktime.DateOf(start), worktime.DateOf(end))
	if err != nil {
		return nil, fmt.Errorf("failed to list bonuses: %w", err)
	}
	defer rows.Close()

	var bonuses []payroll.Bonus
	for rows.Next() {
		var b payroll.Bonus
		if err := rows.Scan(&b.ID, &b.EmployeeID, &b.Amount, &b.Currency, &b.Date, &b.Reason, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bonus: %w", err)
		}
		bonuses = append(bonuses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bonuses: %w", err)
	}
	return bonuses, nil
}

// ========== DEDUCTIONS ==========

type deductionRepository struct {
	db database.Querier
}

func NewDeductionRepository(db database.Querier) payroll.DeductionRepository {
	return &deductionRepository{db: db}
}

func (r *deductionRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]payroll.Deduction, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, amount, currency, date, reason, created_at
		FROM deductions
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date, id
	`

	rows, err := q.Query(ctx, query, employeeID, worktime.DateOf(start), worktime.DateOf(end))
	if err != nil {
		return nil, fmt.Errorf("failed to list deductions: %w", err)
	}
	defer rows.Close()

	var deductions []payroll.Deduction
	for rows.Next() {
		var d payroll.Deduction
		if err := rows.Scan(&d.ID, &d.EmployeeID, &d.Amount, &d.Currency, &d.Date, &d.Reason, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deduction: %w", err)
		}
		deductions = append(deductions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deductions: %w", err)
	}
	return deductions, nil
}

// ========== SALARY ADVANCES ==========

type salaryAdvanceRepository struct {
	db database.Querier
}

func NewSalaryAdvanceRepository(db database.Querier) payroll.SalaryAdvanceRepository {
	return &salaryAdvanceRepository{db: db}
}

const salaryAdvanceColumns = `id, employee_id, amount, currency, date, status, paid_in_payment_id::text, created_at, updated_at`

func (r *salaryAdvanceRepository) list(ctx context.Context, query string, args ...interface{}) ([]payroll.SalaryAdvance, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary advances: %w", err)
	}
	defer rows.Close()

	var advances []payroll.SalaryAdvance
	for rows.Next() {
		var a payroll.SalaryAdvance
		if err := rows.Scan(
			&a.ID, &a.EmployeeID, &a.Amount, &a.Currency, &a.Date, &a.Status,
			&a.PaidInPaymentID, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan salary advance: %w", err)
		}
		advances = append(advances, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate salary advances: %w", err)
	}
	return advances, nil
}

func (r *salaryAdvanceRepository) ListOutstandingByEmployee(ctx context.Context, employeeID string) ([]payroll.SalaryAdvance, error) {
	query := `SELECT ` + salaryAdvanceColumns + `
		FROM salary_advances
		WHERE employee_id = $1 AND status = $2
		ORDER BY date, id
	`
	return r.list(ctx, query, employeeID, advanceStatusApproved)
}

func (r *salaryAdvanceRepository) GetByIDs(ctx context.Context, ids []string) ([]payroll.SalaryAdvance, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + salaryAdvanceColumns + `
		FROM salary_advances
		WHERE id = ANY($1::uuid[])
		ORDER BY date, id
	`
	return r.list(ctx, query, ids)
}

// MarkPaid only touches Approved rows of the employee, so a concurrent
// settlement shows up as a lower row count.
func (r *salaryAdvanceRepository) MarkPaid(ctx context.Context, employeeID string, ids []string, paymentID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salary_advances
		SET status = $1, paid_in_payment_id = $2, updated_at = NOW()
		WHERE employee_id = $3
		  AND id = ANY($4::uuid[])
		  AND status = $5
	`

	tag, err := q.Exec(ctx, query, advanceStatusPaid, paymentID, employeeID, ids, advanceStatusApproved)
	if err != nil {
		return 0, fmt.Errorf("failed to mark salary advances paid: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ========== PAYMENT LEDGER ==========

type paymentRepository struct {
	db database.Querier
}

func NewPaymentRepository(db database.Querier) payroll.PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `
	id, employee_id, period_year, period_month, week_number, payment_type, currency,
	gross_amount, deductions, advances_deducted, net_amount, advance_ids::text[],
	delivered_by, paid_at, created_at
`

func (r *paymentRepository) Create(ctx context.Context, p payroll.Payment) (payroll.Payment, error) {
	q := GetQuerier(ctx, r.db)

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	advanceIDs := p.AdvanceIDs
	if advanceIDs == nil {
		advanceIDs = []string{}
	}

	query := `
		INSERT INTO salary_payments (
			id, employee_id, period_year, period_month, week_number, payment_type, currency,
			gross_amount, deductions, advances_deducted, net_amount, advance_ids,
			delivered_by, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::uuid[], $13, $14)
		RETURNING created_at
	`

	err := q.QueryRow(ctx, query,
		p.ID, p.EmployeeID, p.PeriodYear, p.PeriodMonth, p.WeekNumber, string(p.PaymentType), string(p.Currency),
		p.GrossAmount, p.Deductions, p.AdvancesDeducted, p.NetAmount, advanceIDs,
		p.DeliveredBy, p.PaidAt,
	).Scan(&p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == ledgerKeyConstraint {
			return payroll.Payment{}, payroll.ErrPeriodAlreadySettled
		}
		return payroll.Payment{}, fmt.Errorf("failed to create salary payment: %w", err)
	}

	p.AdvanceIDs = advanceIDs
	return p, nil
}

func (r *paymentRepository) ExistsByKey(ctx context.Context, key payroll.LedgerKey) (bool, error) {
	q := GetQuerier(ctx, r.db)

	week := 0
	if key.WeekNumber != nil {
		week = *key.WeekNumber
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM salary_payments
			WHERE employee_id = $1 AND period_year = $2 AND period_month = $3
			  AND ` + ledgerWeekNumberColumn + ` = $4
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, key.EmployeeID, key.Year, key.Month, week).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check salary payment: %w", err)
	}
	return exists, nil
}

func (r *paymentRepository) ListByEmployeePeriod(ctx context.Context, employeeID string, year, month int) ([]payroll.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM salary_payments
		WHERE employee_id = $1 AND period_year = $2 AND period_month = $3
		ORDER BY ` + ledgerWeekNumberColumn
	return r.list(ctx, query, employeeID, year, month)
}

func (r *paymentRepository) ListByPeriod(ctx context.Context, year, month int) ([]payroll.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM salary_payments
		WHERE period_year = $1 AND period_month = $2
		ORDER BY employee_id, ` + ledgerWeekNumberColumn
	return r.list(ctx, query, year, month)
}

func (r *paymentRepository) list(ctx context.Context, query string, args ...interface{}) ([]payroll.Payment, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary payments: %w", err)
	}
	defer rows.Close()

	var payments []payroll.Payment
	for rows.Next() {
		var p payroll.Payment
		if err := rows.Scan(
			&p.ID, &p.EmployeeID, &p.PeriodYear, &p.PeriodMonth, &p.WeekNumber, &p.PaymentType, &p.Currency,
			&p.GrossAmount, &p.Deductions, &p.AdvancesDeducted, &p.NetAmount, &p.AdvanceIDs,
			&p.DeliveredBy, &p.PaidAt, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan salary payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate salary payments: %w", err)
	}
	return payments, nil
}
