// Package memory is an in-process implementation of every payroll
// repository, used for local runs (STORAGE_DRIVER=memory) and service tests.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/worktime"
	"github.com/google/uuid"
)

type txKey struct{}

// Store keeps all records in maps guarded by mu. A transaction holds the
// write lock until it commits or restores its snapshot, so readers never see
// a half-applied delivery.
type Store struct {
	mu sync.RWMutex

	employees  map[string]employee.Employee
	attendance []attendance.Attendance
	leaves     []leave.LeaveRequest
	bonuses    []payroll.Bonus
	deductions []payroll.Deduction
	advances   map[string]payroll.SalaryAdvance
	payments   map[string]payroll.Payment
	ledger     map[string]string
}

func NewStore() *Store {
	return &Store{
		employees: make(map[string]employee.Employee),
		advances:  make(map[string]payroll.SalaryAdvance),
		payments:  make(map[string]payroll.Payment),
		ledger:    make(map[string]string),
	}
}

// ========== SEEDING ==========

func (s *Store) AddEmployee(e employee.Employee) employee.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.EmploymentStatus == "" {
		e.EmploymentStatus = employee.EmploymentStatusActive
	}
	s.employees[e.ID] = e
	return e
}

func (s *Store) AddAttendance(records ...attendance.Attendance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		s.attendance = append(s.attendance, r)
	}
}

func (s *Store) AddLeave(requests ...leave.LeaveRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range requests {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		s.leaves = append(s.leaves, l)
	}
}

func (s *Store) AddBonus(bonuses ...payroll.Bonus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bonuses {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		s.bonuses = append(s.bonuses, b)
	}
}

func (s *Store) AddDeduction(deductions ...payroll.Deduction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range deductions {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		s.deductions = append(s.deductions, d)
	}
}

func (s *Store) AddAdvance(a payroll.SalaryAdvance) payroll.SalaryAdvance {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.advances[a.ID] = a
	return a
}

// ========== TRANSACTIONS ==========

// WithinTx runs fn while holding the store's write lock. Repository calls
// made with the transaction's context skip locking. Nested calls join the
// outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	advances := maps.Clone(s.advances)
	payments := maps.Clone(s.payments)
	ledger := maps.Clone(s.ledger)

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.advances = advances
		s.payments = payments
		s.ledger = ledger
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) read(ctx context.Context) (unlock func()) {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) write(ctx context.Context) (unlock func()) {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// ========== REPOSITORIES ==========

func (s *Store) Employees() employee.EmployeeRepository          { return employeeRepository{s} }
func (s *Store) Attendance() attendance.AttendanceRepository     { return attendanceRepository{s} }
func (s *Store) LeaveRequests() leave.LeaveRequestRepository     { return leaveRequestRepository{s} }
func (s *Store) Bonuses() payroll.BonusRepository                { return bonusRepository{s} }
func (s *Store) Deductions() payroll.DeductionRepository         { return deductionRepository{s} }
func (s *Store) SalaryAdvances() payroll.SalaryAdvanceRepository { return salaryAdvanceRepository{s} }
func (s *Store) Payments() payroll.PaymentRepository             { return paymentRepository{s} }

type employeeRepository struct{ s *Store }

func (r employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	defer r.s.read(ctx)()
	e, ok := r.s.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r employeeRepository) ListActive(ctx context.Context, filter employee.RosterFilter) ([]employee.Employee, error) {
	defer r.s.read(ctx)()
	var out []employee.Employee
	for _, e := range r.s.employees {
		if e.EmploymentStatus == employee.EmploymentStatusActive && filter.Matches(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeCode != out[j].EmployeeCode {
			return out[i].EmployeeCode < out[j].EmployeeCode
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type attendanceRepository struct{ s *Store }

func (r attendanceRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]attendance.Attendance, error) {
	defer r.s.read(ctx)()
	var out []attendance.Attendance
	for _, a := range r.s.attendance {
		if a.EmployeeID == employeeID && worktime.InRange(a.Date, start, end) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

type leaveRequestRepository struct{ s *Store }

func (r leaveRequestRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]leave.LeaveRequest, error) {
	defer r.s.read(ctx)()
	start, end = worktime.DateOf(start), worktime.DateOf(end)
	var out []leave.LeaveRequest
	for _, l := range r.s.leaves {
		if l.EmployeeID != employeeID {
			continue
		}
		if worktime.DateOf(l.EndDate).Before(start) || worktime.DateOf(l.StartDate).After(end) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

type bonusRepository struct{ s *Store }

func (r bonusRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]payroll.Bonus, error) {
	defer r.s.read(ctx)()
	var out []payroll.Bonus
	for _, b := range r.s.bonuses {
		if b.EmployeeID == employeeID && worktime.InRange(b.Date, start, end) {
			out = append(out, b)
		}
	}
	return out, nil
}

type deductionRepository struct{ s *Store }

func (r deductionRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]payroll.Deduction, error) {
	defer r.s.read(ctx)()
	var out []payroll.Deduction
	for _, d := range r.s.deductions {
		if d.EmployeeID == employeeID && worktime.InRange(d.Date, start, end) {
			out = append(out, d)
		}
	}
	return out, nil
}

type salaryAdvanceRepository struct{ s *Store }

func (r salaryAdvanceRepository) ListOutstandingByEmployee(ctx context.Context, employeeID string) ([]payroll.SalaryAdvance, error) {
	defer r.s.read(ctx)()
	var out []payroll.SalaryAdvance
	for _, a := range r.s.advances {
		if a.EmployeeID == employeeID && a.IsOutstanding() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r salaryAdvanceRepository) GetByIDs(ctx context.Context, ids []string) ([]payroll.SalaryAdvance, error) {
	defer r.s.read(ctx)()
	var out []payroll.SalaryAdvance
	for _, id := range ids {
		if a, ok := r.s.advances[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r salaryAdvanceRepository) MarkPaid(ctx context.Context, employeeID string, ids []string, paymentID string) (int64, error) {
	defer r.s.write(ctx)()
	var n int64
	for _, id := range ids {
		a, ok := r.s.advances[id]
		if !ok || a.EmployeeID != employeeID || a.Status != payroll.AdvanceStatusApproved {
			continue
		}
		a.Status = payroll.AdvanceStatusPaid
		a.PaidInPaymentID = &paymentID
		a.UpdatedAt = time.Now()
		r.s.advances[id] = a
		n++
	}
	return n, nil
}

type paymentRepository struct{ s *Store }

func (r paymentRepository) Create(ctx context.Context, p payroll.Payment) (payroll.Payment, error) {
	defer r.s.write(ctx)()
	key := p.Key().String()
	if _, taken := r.s.ledger[key]; taken {
		return payroll.Payment{}, payroll.ErrPeriodAlreadySettled
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.AdvanceIDs = append([]string(nil), p.AdvanceIDs...)
	p.CreatedAt = time.Now()
	r.s.payments[p.ID] = p
	r.s.ledger[key] = p.ID
	return p, nil
}

func (r paymentRepository) ExistsByKey(ctx context.Context, key payroll.LedgerKey) (bool, error) {
	defer r.s.read(ctx)()
	_, ok := r.s.ledger[key.String()]
	return ok, nil
}

func (r paymentRepository) ListByEmployeePeriod(ctx context.Context, employeeID string, year, month int) ([]payroll.Payment, error) {
	return r.list(ctx, func(p payroll.Payment) bool {
		return p.EmployeeID == employeeID && p.PeriodYear == year && p.PeriodMonth == month
	}), nil
}

func (r paymentRepository) ListByPeriod(ctx context.Context, year, month int) ([]payroll.Payment, error) {
	return r.list(ctx, func(p payroll.Payment) bool {
		return p.PeriodYear == year && p.PeriodMonth == month
	}), nil
}

func (r paymentRepository) list(ctx context.Context, match func(payroll.Payment) bool) []payroll.Payment {
	defer r.s.read(ctx)()
	var out []payroll.Payment
	for _, p := range r.s.payments {
		if match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return weekOf(out[i]) < weekOf(out[j])
	})
	return out
}

func weekOf(p payroll.Payment) int {
	if p.WeekNumber == nil {
		return 0
	}
	return *p.WeekNumber
}
