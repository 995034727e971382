package cron

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ===== SCHEDULER TESTS =====

func TestScheduler_RunOnce(t *testing.T) {
	s := NewScheduler(discardLogger())
	var runs atomic.Int32
	boom := errors.New("boom")

	s.AddJob("ok", time.Minute, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	s.AddJob("broken", time.Minute, func(ctx context.Context) error {
		runs.Add(1)
		return boom
	})
	s.AddJob("disabled", 0, func(ctx context.Context) error {
		t.Error("disabled job must not run")
		return nil
	})

	err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, int32(2), runs.Load())
}

func TestScheduler_StartRunsImmediatelyAndStops(t *testing.T) {
	s := NewScheduler(discardLogger())
	ran := make(chan struct{}, 1)
	var stopped atomic.Bool

	s.AddJob("tick", time.Hour, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})
	s.Start()
	s.Start()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}

	done := make(chan struct{})
	go func() {
		s.Stop()
		stopped.Store(true)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.True(t, stopped.Load())
}

// ===== PAYROLL JOB TESTS =====

type stubPayrollService struct {
	payroll.PayrollService
	totals payroll.DeliveryTotalsResponse
	err    error
	filter payroll.TotalsFilter
}

func (s *stubPayrollService) GetDeliveryTotals(ctx context.Context, filter payroll.TotalsFilter) (payroll.DeliveryTotalsResponse, error) {
	s.filter = filter
	return s.totals, s.err
}

func TestPayrollJobs_SummarizeDueSalaries(t *testing.T) {
	svc := &stubPayrollService{totals: payroll.DeliveryTotalsResponse{
		Year:  2024,
		Month: 2,
		Totals: map[employee.Currency]decimal.Decimal{
			employee.CurrencyUSD: decimal.RequireFromString("2100"),
			employee.CurrencySYP: decimal.RequireFromString("3500.5"),
		},
		EmployeeCount: 2,
	}}
	var buf bytes.Buffer
	jobs := NewPayrollJobs(svc, time.Hour, slog.New(slog.NewTextHandler(&buf, nil)))
	jobs.now = func() time.Time { return time.Date(2024, 2, 14, 23, 0, 0, 0, time.UTC) }

	require.NoError(t, jobs.SummarizeDueSalaries(context.Background()))

	assert.Equal(t, payroll.TotalsFilter{Year: 2024, Month: 2}, svc.filter)
	out := buf.String()
	assert.Contains(t, out, "currency=SYP amount=3500.50")
	assert.Contains(t, out, "currency=USD amount=2100.00")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("currency=SYP")), bytes.Index(buf.Bytes(), []byte("currency=USD")))
	assert.Contains(t, out, "employee_count=2")
}

func TestPayrollJobs_NothingDue(t *testing.T) {
	svc := &stubPayrollService{totals: payroll.DeliveryTotalsResponse{Year: 2024, Month: 2, Totals: map[employee.Currency]decimal.Decimal{}}}
	var buf bytes.Buffer
	jobs := NewPayrollJobs(svc, time.Hour, slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, jobs.SummarizeDueSalaries(context.Background()))
	assert.Contains(t, buf.String(), "No salaries due")
}

func TestPayrollJobs_PropagatesFailure(t *testing.T) {
	svc := &stubPayrollService{err: errors.New("database unavailable")}
	jobs := NewPayrollJobs(svc, time.Hour, discardLogger())

	s := NewScheduler(discardLogger())
	jobs.RegisterJobs(s)

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), DueSummaryJobName)
	assert.Contains(t, err.Error(), "database unavailable")
}
