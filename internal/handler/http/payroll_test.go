package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/worktime"
	"github.com/cmlabs-hris/payroll-backend-go/internal/repository/memory"
	payrollService "github.com/cmlabs-hris/payroll-backend-go/internal/service/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestSecret    = "test-secret-key-for-jwt"
	handlerTestAccessExp = "1h"
)

type handlerFixture struct {
	router http.Handler
	store  *memory.Store
	jwt    jwt.Service
	token  string
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := payrollService.NewPayrollService(payrollService.Repositories{
		Employee:   store.Employees(),
		Attendance: store.Attendance(),
		Leave:      store.LeaveRequests(),
		Bonus:      store.Bonuses(),
		Deduction:  store.Deductions(),
		Advance:    store.SalaryAdvances(),
		Payment:    store.Payments(),
	}, store, lock.NewKeyedMutex(), logger)

	jwtSvc := jwt.NewJWTService(handlerTestSecret, handlerTestAccessExp)
	token, _, err := jwtSvc.GenerateAccessToken("operator-1", "payroll_admin")
	require.NoError(t, err)

	router := NewRouter(RouterOptions{
		Env:            "test",
		LogLevel:       slog.LevelError,
		AllowedOrigins: []string{"http://localhost:3000"},
		LogOutput:      io.Discard,
	}, jwtSvc, NewPayrollHandler(svc))

	return &handlerFixture{router: router, store: store, jwt: jwtSvc, token: token}
}

func (f *handlerFixture) addMonthlyEmployee() employee.Employee {
	return f.store.AddEmployee(employee.Employee{
		FullName: "Rami Haddad",
		Pay: employee.StandardPay{
			PaymentType: employee.PaymentTypeMonthly,
			Currency:    employee.CurrencyUSD,
			Rates:       employee.PayRates{Monthly: decimal.RequireFromString("2100")},
		},
		AgreedDailyHours: decimal.NewFromInt(8),
		Workdays:         worktime.NewWorkdaySet(time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday),
	})
}

func (f *handlerFixture) do(t *testing.T, method, target string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return w, resp
}

func errorCode(resp map[string]interface{}) string {
	detail, ok := resp["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := detail["code"].(string)
	return code
}

// ===== AUTH TESTS =====

func TestRouter_RequiresAccessToken(t *testing.T) {
	f := newHandlerFixture(t)
	f.token = ""

	w, resp := f.do(t, http.MethodGet, "/api/v1/payroll/periods/2024/2/weeks", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, resp["success"].(bool))
}

func TestRouter_RejectsNonAccessToken(t *testing.T) {
	f := newHandlerFixture(t)
	_, token, err := f.jwt.JWTAuth().Encode(map[string]interface{}{
		"user_id": "operator-1",
		"type":    "refresh",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	f.token = token

	w, _ := f.do(t, http.MethodGet, "/api/v1/payroll/periods/2024/2/weeks", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ===== CALCULATION TESTS =====

func TestPayrollHandler_GetCalculation(t *testing.T) {
	f := newHandlerFixture(t)
	emp := f.addMonthlyEmployee()

	t.Run("success", func(t *testing.T) {
		w, resp := f.do(t, http.MethodGet, "/api/v1/payroll/employees/"+emp.ID+"/calculation?start=2024-02-01&end=2024-02-29", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp["success"].(bool))
		data := resp["data"].(map[string]interface{})
		assert.Equal(t, "2100", data["net_salary"])
		assert.Equal(t, "USD", data["currency"])
		assert.Equal(t, "2024-02-01", data["start_date"])
	})

	t.Run("unknown employee", func(t *testing.T) {
		w, resp := f.do(t, http.MethodGet, "/api/v1/payroll/employees/7c1e9a40-5b2d-4f63-8e07-d9a4c3b21f00/calculation?start=2024-02-01&end=2024-02-29", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(resp))
	})

	t.Run("invalid range", func(t *testing.T) {
		w, resp := f.do(t, http.MethodGet, "/api/v1/payroll/employees/"+emp.ID+"/calculation?start=2024-02-10&end=2024-02-01", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(resp))
	})

	t.Run("range longer than a year", func(t *testing.T) {
		w, resp := f.do(t, http.MethodGet, "/api/v1/payroll/employees/"+emp.ID+"/calculation?start=2000-01-01&end=2024-12-31", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(resp))
	})
}

func TestPayrollHandler_MalformedEmployeeID(t *testing.T) {
	f := newHandlerFixture(t)

	for _, path := range []string{
		"/api/v1/payroll/employees/abc/calculation?start=2024-02-01&end=2024-02-29",
		"/api/v1/payroll/employees/abc/weeks?year=2024&month=2",
		"/api/v1/payroll/employees/abc/advances",
		"/api/v1/payroll/employees/abc/payments?year=2024&month=2",
		"/api/v1/payroll/totals?year=2024&month=2&employee_ids=abc",
	} {
		t.Run(path, func(t *testing.T) {
			w, resp := f.do(t, http.MethodGet, path, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_ERROR", errorCode(resp))
		})
	}
}

func TestPayrollHandler_GetWeeklySettlements_MonthlyEmployee(t *testing.T) {
	f := newHandlerFixture(t)
	emp := f.addMonthlyEmployee()

	w, resp := f.do(t, http.MethodGet, "/api/v1/payroll/employees/"+emp.ID+"/weeks?year=2024&month=2", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp["success"].(bool))
}

func TestPayrollHandler_ListPayments_InvalidYear(t *testing.T) {
	f := newHandlerFixture(t)
	emp := f.addMonthlyEmployee()

	w, resp := f.do(t, http.MethodGet, "/api/v1/payroll/employees/"+emp.ID+"/payments?year=abc&month=2", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(resp))
}

// ===== DELIVERY TESTS =====

func TestPayrollHandler_DeliverSalary(t *testing.T) {
	f := newHandlerFixture(t)
	emp := f.addMonthlyEmployee()
	req := payroll.DeliveryRequest{EmployeeID: emp.ID, Year: 2024, Month: 2}

	w, resp := f.do(t, http.MethodPost, "/api/v1/payroll/deliveries", req)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp["success"].(bool))
	assert.Equal(t, "Delivered 2100.00 USD to Rami Haddad for February 2024", resp["message"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "2100", data["net_amount"])
	assert.Equal(t, "operator-1", data["delivered_by"])

	w, resp = f.do(t, http.MethodPost, "/api/v1/payroll/deliveries", req)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, resp["success"].(bool))
	assert.Equal(t, payroll.ErrPeriodAlreadySettled.Error(), resp["message"])

	w, resp = f.do(t, http.MethodGet, "/api/v1/payroll/employees/"+emp.ID+"/payments?year=2024&month=2", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["data"], 1)
}

func TestPayrollHandler_DeliverSalary_InvalidBody(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/deliveries", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPayrollHandler_DeliverSalary_WeekNumberForMonthly(t *testing.T) {
	f := newHandlerFixture(t)
	emp := f.addMonthlyEmployee()
	week := 2

	w, resp := f.do(t, http.MethodPost, "/api/v1/payroll/deliveries", payroll.DeliveryRequest{
		EmployeeID: emp.ID, Year: 2024, Month: 2, WeekNumber: &week,
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, payroll.ErrWeekNumberNotAllowed.Error(), resp["message"])
}

func TestPayrollHandler_DeliverSalary_MalformedAdvanceID(t *testing.T) {
	f := newHandlerFixture(t)
	emp := f.addMonthlyEmployee()

	w, resp := f.do(t, http.MethodPost, "/api/v1/payroll/deliveries", payroll.DeliveryRequest{
		EmployeeID: emp.ID, Year: 2024, Month: 2, AdvanceIDsToDeduct: []string{"abc"},
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, resp["success"].(bool))
	assert.Contains(t, resp["message"], "advance_ids_to_deduct")

	payments, err := f.store.Payments().ListByEmployeePeriod(context.Background(), emp.ID, 2024, 2)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

// ===== TOTALS TESTS =====

func TestPayrollHandler_GetDeliveryTotals(t *testing.T) {
	f := newHandlerFixture(t)
	f.addMonthlyEmployee()

	w, resp := f.do(t, http.MethodGet, "/api/v1/payroll/totals?year=2024&month=2&currency=usd", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["employee_count"])
	totals := data["totals"].(map[string]interface{})
	assert.Equal(t, "2100", totals["USD"])

	w, resp = f.do(t, http.MethodGet, "/api/v1/payroll/totals?year=2024&month=2&currency=TRY", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = resp["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["employee_count"])
}

func TestPayrollHandler_GetDeliveryTotals_InvalidPaymentType(t *testing.T) {
	f := newHandlerFixture(t)

	w, resp := f.do(t, http.MethodGet, "/api/v1/payroll/totals?year=2024&month=2&payment_type=daily", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(resp))
}

// ===== CALENDAR TESTS =====

func TestPayrollHandler_GetWeeksForMonth(t *testing.T) {
	f := newHandlerFixture(t)

	t.Run("february 2024", func(t *testing.T) {
		w, resp := f.do(t, http.MethodGet, "/api/v1/payroll/periods/2024/2/weeks", nil)

		require.Equal(t, http.StatusOK, w.Code)
		weeks := resp["data"].([]interface{})
		require.Len(t, weeks, 5)
		first := weeks[0].(map[string]interface{})
		assert.Equal(t, "2024-02-01", first["start_date"])
		assert.Equal(t, "2024-02-03", first["end_date"])
		last := weeks[4].(map[string]interface{})
		assert.Equal(t, "2024-02-29", last["end_date"])
	})

	t.Run("invalid month", func(t *testing.T) {
		w, _ := f.do(t, http.MethodGet, "/api/v1/payroll/periods/2024/13/weeks", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
