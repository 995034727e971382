package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/worktime"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type employeeRepository struct {
	db database.Querier
}

func NewEmployeeRepository(db database.Querier) employee.EmployeeRepository {
	return &employeeRepository{db: db}
}

const employeeColumns = `
	e.id, e.employee_code, e.full_name, e.employment_status,
	e.payment_type, e.currency, e.monthly_salary, e.weekly_salary, e.hourly_rate, e.overtime_rate,
	e.agreed_daily_hours,
	to_char(e.check_in_start, 'HH24:MI'), to_char(e.check_in_end, 'HH24:MI'),
	e.workdays, e.lateness_deduction_rate, e.calculate_salary_by_30_days,
	m.flat_salary, m.currency, m.salary_period,
	e.created_at, e.updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

// employeeRow mirrors one employees row joined with its optional
// manufacturing_staff entry.
type employeeRow struct {
	ID, Code, FullName, Status      string
	PaymentType, Currency           string
	Monthly, Weekly, Hourly, OTRate decimal.Decimal
	AgreedHours                     decimal.Decimal
	CheckInStart, CheckInEnd        *string
	Workdays                        []int
	LatenessRate                    decimal.Decimal
	By30Days                        bool
	FlatSalary                      *decimal.Decimal
	FlatCurrency, FlatPeriod        *string
	CreatedAt, UpdatedAt            time.Time
}

func scanEmployee(row rowScanner) (employee.Employee, error) {
	var r employeeRow
	if err := row.Scan(
		&r.ID, &r.Code, &r.FullName, &r.Status,
		&r.PaymentType, &r.Currency, &r.Monthly, &r.Weekly, &r.Hourly, &r.OTRate,
		&r.AgreedHours,
		&r.CheckInStart, &r.CheckInEnd,
		&r.Workdays, &r.LatenessRate, &r.By30Days,
		&r.FlatSalary, &r.FlatCurrency, &r.FlatPeriod,
		&r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return employee.Employee{}, err
	}
	return r.toEntity()
}

func (r employeeRow) toEntity() (employee.Employee, error) {
	checkIn, err := parseWindow(r.CheckInStart, r.CheckInEnd)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("employee %s check-in window: %w", r.ID, err)
	}

	e := employee.Employee{
		ID:                      r.ID,
		EmployeeCode:            r.Code,
		FullName:                r.FullName,
		EmploymentStatus:        employee.EmploymentStatus(r.Status),
		AgreedDailyHours:        r.AgreedHours,
		CheckInWindow:           checkIn,
		Workdays:                worktime.WorkdaySetFromInts(r.Workdays),
		LatenessDeductionRate:   r.LatenessRate,
		CalculateSalaryBy30Days: r.By30Days,
		CreatedAt:               r.CreatedAt,
		UpdatedAt:               r.UpdatedAt,
	}

	if r.FlatSalary != nil {
		flat := employee.ManufacturingFlatPay{Amount: *r.FlatSalary, Period: employee.PaymentTypeMonthly}
		if r.FlatCurrency != nil {
			flat.Currency = employee.Currency(*r.FlatCurrency)
		}
		if r.FlatPeriod != nil {
			flat.Period = employee.PaymentType(*r.FlatPeriod)
		}
		e.Pay = flat
		return e, nil
	}

	e.Pay = employee.StandardPay{
		PaymentType: employee.PaymentType(r.PaymentType),
		Currency:    employee.Currency(r.Currency),
		Rates: employee.PayRates{
			Monthly:  r.Monthly,
			Weekly:   r.Weekly,
			Hourly:   r.Hourly,
			Overtime: r.OTRate,
		},
	}
	return e, nil
}

// parseWindow returns nil unless both bounds are set.
func parseWindow(start, end *string) (*worktime.Window, error) {
	if start == nil || end == nil {
		return nil, nil
	}
	s, err := worktime.ParseTimeOfDay(*start)
	if err != nil {
		return nil, err
	}
	e, err := worktime.ParseTimeOfDay(*end)
	if err != nil {
		return nil, err
	}
	return &worktime.Window{Start: s, End: e}, nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + `
		FROM employees e
		LEFT JOIN manufacturing_staff m ON m.employee_id = e.id
		WHERE e.id = $1
	`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

// ListActive narrows by status and IDs in SQL; pay type and currency are
// matched after the manufacturing roster has been applied.
func (r *employeeRepository) ListActive(ctx context.Context, filter employee.RosterFilter) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + `
		FROM employees e
		LEFT JOIN manufacturing_staff m ON m.employee_id = e.id
		WHERE e.employment_status = $1
	`
	args := []interface{}{string(employee.EmploymentStatusActive)}
	if len(filter.EmployeeIDs) > 0 {
		query += ` AND e.id = ANY($2::uuid[])`
		args = append(args, filter.EmployeeIDs)
	}
	query += ` ORDER BY e.employee_code, e.id`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		if filter.Matches(emp) {
			employees = append(employees, emp)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return employees, nil
}
