package postgresql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/worktime"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func strPtr(s string) *string { return &s }

// paymentInsertArgs matches the ledger key columns exactly and the amounts,
// advance IDs and audit columns loosely.
func paymentInsertArgs(id interface{}, p payroll.Payment) []interface{} {
	args := []interface{}{
		id, p.EmployeeID, p.PeriodYear, p.PeriodMonth, pgxmock.AnyArg(),
		string(p.PaymentType), string(p.Currency),
	}
	for i := 0; i < 7; i++ {
		args = append(args, pgxmock.AnyArg())
	}
	return args
}

// ===== TRANSACTION TESTS =====

func TestTransactionManager_Commit(t *testing.T) {
	mock := newMockPool(t)
	tm := NewTransactionManager(mock)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectCommit()

	err := tm.WithinTx(context.Background(), func(ctx context.Context) error {
		_, ok := txFromContext(ctx)
		assert.True(t, ok, "transaction not injected into context")
		assert.NotEqual(t, mock, GetQuerier(ctx, mock))
		return nil
	})
	require.NoError(t, err)
}

func TestTransactionManager_RollbackOnError(t *testing.T) {
	mock := newMockPool(t)
	tm := NewTransactionManager(mock)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectRollback()

	boom := errors.New("ledger conflict")
	err := tm.WithinTx(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestTransactionManager_NestedReuse(t *testing.T) {
	mock := newMockPool(t)
	tm := NewTransactionManager(mock)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectCommit()

	err := tm.WithinTx(context.Background(), func(outer context.Context) error {
		outerTx, _ := txFromContext(outer)
		return tm.WithinTx(outer, func(inner context.Context) error {
			innerTx, ok := txFromContext(inner)
			assert.True(t, ok)
			assert.Equal(t, outerTx, innerTx)
			return nil
		})
	})
	require.NoError(t, err)
}

func TestTransactionManager_BeginFailure(t *testing.T) {
	mock := newMockPool(t)
	tm := NewTransactionManager(mock)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite}).WillReturnError(errors.New("too many connections"))

	called := false
	err := tm.WithinTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
	assert.False(t, called)
}

func TestGetQuerier_WithoutTransaction(t *testing.T) {
	mock := newMockPool(t)
	assert.Equal(t, mock, GetQuerier(context.Background(), mock))
}

// ===== EMPLOYEE REPOSITORY TESTS =====

var employeeColumnNames = []string{
	"id", "employee_code", "full_name", "employment_status",
	"payment_type", "currency", "monthly_salary", "weekly_salary", "hourly_rate", "overtime_rate",
	"agreed_daily_hours",
	"check_in_start", "check_in_end",
	"workdays", "lateness_deduction_rate", "calculate_salary_by_30_days",
	"flat_salary", "flat_currency", "salary_period",
	"created_at", "updated_at",
}

func TestEmployeeRepository_GetByID(t *testing.T) {
	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

	t.Run("standard pay", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewEmployeeRepository(mock)

		rows := pgxmock.NewRows(employeeColumnNames).AddRow(
			"emp-1", "E001", "Rami Haddad", "active",
			"hourly", "TRY", decimal.Zero, decimal.Zero, decimal.RequireFromString("5"), decimal.RequireFromString("7.5"),
			decimal.RequireFromString("8"),
			strPtr("08:00"), strPtr("08:15"),
			[]int{0, 1, 2, 3, 4}, decimal.RequireFromString("0.5"), false,
			(*decimal.Decimal)(nil), (*string)(nil), (*string)(nil),
			now, now,
		)
		mock.ExpectQuery("FROM employees e").WithArgs("emp-1").WillReturnRows(rows)

		emp, err := repo.GetByID(context.Background(), "emp-1")
		require.NoError(t, err)
		assert.Equal(t, employee.PaymentTypeHourly, emp.PaymentType())
		assert.Equal(t, employee.CurrencyTRY, emp.Currency())
		assert.False(t, emp.IsFlatSalary())
		require.NotNil(t, emp.CheckInWindow)
		assert.Equal(t, worktime.NewTimeOfDay(8, 15), emp.CheckInWindow.End)
		assert.Equal(t, 5, emp.Workdays.Len())
	})

	t.Run("manufacturing roster overrides pay", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewEmployeeRepository(mock)
		flat := decimal.RequireFromString("500")

		rows := pgxmock.NewRows(employeeColumnNames).AddRow(
			"emp-2", "E002", "Lina Aziz", "active",
			"hourly", "TRY", decimal.Zero, decimal.Zero, decimal.RequireFromString("5"), decimal.Zero,
			decimal.RequireFromString("8"),
			(*string)(nil), (*string)(nil),
			[]int{1, 2, 3, 4, 5}, decimal.Zero, false,
			&flat, strPtr("USD"), strPtr("weekly"),
			now, now,
		)
		mock.ExpectQuery("LEFT JOIN manufacturing_staff").WithArgs("emp-2").WillReturnRows(rows)

		emp, err := repo.GetByID(context.Background(), "emp-2")
		require.NoError(t, err)
		assert.True(t, emp.IsFlatSalary())
		assert.Equal(t, employee.PaymentTypeWeekly, emp.PaymentType())
		assert.Equal(t, employee.CurrencyUSD, emp.Currency())
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewEmployeeRepository(mock)
		mock.ExpectQuery("FROM employees e").WithArgs("missing").WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByID(context.Background(), "missing")
		assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	})
}

// ===== ATTENDANCE REPOSITORY TESTS =====

func TestAttendanceRepository_ListByEmployeeAndRange(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAttendanceRepository(mock)
	day := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"id", "employee_id", "date", "check_in", "check_out", "origin", "created_at"}).
		AddRow("att-1", "emp-1", day, "22:00", strPtr("06:00"), attendance.OriginDevice, day).
		AddRow("att-2", "emp-1", day.AddDate(0, 0, 1), "09:10", (*string)(nil), attendance.OriginManual, day)
	mock.ExpectQuery("FROM attendances").
		WithArgs("emp-1", day, day.AddDate(0, 0, 6)).
		WillReturnRows(rows)

	records, err := repo.ListByEmployeeAndRange(context.Background(), "emp-1", day.Add(3*time.Hour), day.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, worktime.NewTimeOfDay(22, 0), records[0].CheckIn)
	require.NotNil(t, records[0].CheckOut)
	assert.Equal(t, worktime.NewTimeOfDay(6, 0), *records[0].CheckOut)
	assert.Nil(t, records[1].CheckOut)
}

// ===== SALARY ADVANCE REPOSITORY TESTS =====

func TestSalaryAdvanceRepository_MarkPaid(t *testing.T) {
	mock := newMockPool(t)
	repo := NewSalaryAdvanceRepository(mock)

	mock.ExpectExec("UPDATE salary_advances").
		WithArgs("Paid", "pay-1", "emp-1", []string{"adv-1", "adv-2"}, "Approved").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	n, err := repo.MarkPaid(context.Background(), "emp-1", []string{"adv-1", "adv-2"}, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSalaryAdvanceRepository_GetByIDsEmpty(t *testing.T) {
	mock := newMockPool(t)
	repo := NewSalaryAdvanceRepository(mock)

	advances, err := repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, advances)
}

// ===== PAYMENT REPOSITORY TESTS =====

func TestPaymentRepository_Create(t *testing.T) {
	week := 2
	payment := payroll.Payment{
		ID:          "pay-1",
		EmployeeID:  "emp-1",
		PeriodYear:  2024,
		PeriodMonth: 2,
		WeekNumber:  &week,
		PaymentType: employee.PaymentTypeWeekly,
		Currency:    employee.CurrencySYP,
		GrossAmount: decimal.RequireFromString("700"),
		NetAmount:   decimal.RequireFromString("700"),
		PaidAt:      time.Date(2024, 2, 12, 9, 0, 0, 0, time.UTC),
	}

	t.Run("success", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewPaymentRepository(mock)
		createdAt := time.Date(2024, 2, 12, 9, 0, 1, 0, time.UTC)

		mock.ExpectQuery("INSERT INTO salary_payments").
			WithArgs(paymentInsertArgs("pay-1", payment)...).
			WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

		created, err := repo.Create(context.Background(), payment)
		require.NoError(t, err)
		assert.Equal(t, "pay-1", created.ID)
		assert.Equal(t, createdAt, created.CreatedAt)
		assert.Equal(t, []string{}, created.AdvanceIDs)
	})

	t.Run("ledger key taken", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewPaymentRepository(mock)

		mock.ExpectQuery("INSERT INTO salary_payments").
			WithArgs(paymentInsertArgs("pay-1", payment)...).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uk_salary_payments_ledger_key"})

		_, err := repo.Create(context.Background(), payment)
		assert.ErrorIs(t, err, payroll.ErrPeriodAlreadySettled)
	})

	t.Run("other failure", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewPaymentRepository(mock)

		mock.ExpectQuery("INSERT INTO salary_payments").
			WithArgs(paymentInsertArgs("pay-1", payment)...).
			WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "salary_payments_employee_id_fkey"})

		_, err := repo.Create(context.Background(), payment)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, payroll.ErrPeriodAlreadySettled)
	})
}

func TestPaymentRepository_ExistsByKey(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPaymentRepository(mock)
	week := 3

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("emp-1", 2024, 2, 3).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("emp-1", 2024, 2, 0).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.ExistsByKey(context.Background(), payroll.LedgerKey{EmployeeID: "emp-1", Year: 2024, Month: 2, WeekNumber: &week})
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByKey(context.Background(), payroll.LedgerKey{EmployeeID: "emp-1", Year: 2024, Month: 2})
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPaymentRepository_DeliveryInsideTransaction(t *testing.T) {
	mock := newMockPool(t)
	tm := NewTransactionManager(mock)
	payments := NewPaymentRepository(mock)
	advances := NewSalaryAdvanceRepository(mock)

	payment := payroll.Payment{
		EmployeeID:  "emp-1",
		PeriodYear:  2024,
		PeriodMonth: 2,
		PaymentType: employee.PaymentTypeMonthly,
		Currency:    employee.CurrencyUSD,
		AdvanceIDs:  []string{"adv-1"},
	}

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectQuery("INSERT INTO salary_payments").
		WithArgs(paymentInsertArgs(pgxmock.AnyArg(), payment)...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec("UPDATE salary_advances").
		WithArgs("Paid", pgxmock.AnyArg(), "emp-1", []string{"adv-1"}, "Approved").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := tm.WithinTx(context.Background(), func(ctx context.Context) error {
		created, err := payments.Create(ctx, payment)
		if err != nil {
			return err
		}
		n, err := advances.MarkPaid(ctx, "emp-1", created.AdvanceIDs, created.ID)
		if err != nil {
			return err
		}
		if n != 1 {
			return payroll.ErrAdvanceSettlementConflict
		}
		return nil
	})
	assert.ErrorIs(t, err, payroll.ErrAdvanceSettlementConflict)
}
