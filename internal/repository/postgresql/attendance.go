package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/worktime"
)

type attendanceRepository struct {
	db database.Querier
}

func NewAttendanceRepository(db database.Querier) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// ListByEmployeeAndRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, employee_id, date,
			   to_char(check_in, 'HH24:MI'), to_char(check_out, 'HH24:MI'),
			   origin, created_at
		FROM attendances
		WHERE employee_id = $1
		  AND date BETWEEN $2 AND $3
		ORDER BY date, check_in
	`

	rows, err := q.Query(ctx, query, employeeID, worktime.DateOf(start), worktime.DateOf(end))
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		var (
			att      attendance.Attendance
			checkIn  string
			checkOut *string
		)
		if err := rows.Scan(&att.ID, &att.EmployeeID, &att.Date, &checkIn, &checkOut, &att.Origin, &att.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}

		if att.CheckIn, err = worktime.ParseTimeOfDay(checkIn); err != nil {
			return nil, fmt.Errorf("attendance %s check-in: %w", att.ID, err)
		}
		if checkOut != nil {
			out, err := worktime.ParseTimeOfDay(*checkOut)
			if err != nil {
				return nil, fmt.Errorf("attendance %s check-out: %w", att.ID, err)
			}
			att.CheckOut = &out
		}
		records = append(records, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendances: %w", err)
	}
	return records, nil
}
