package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/payperiod"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Per-employee views
	GetCalculation(w http.ResponseWriter, r *http.Request)
	GetWeeklySettlements(w http.ResponseWriter, r *http.Request)
	ListOutstandingAdvances(w http.ResponseWriter, r *http.Request)
	ListPayments(w http.ResponseWriter, r *http.Request)

	// Delivery
	DeliverSalary(w http.ResponseWriter, r *http.Request)
	GetDeliveryTotals(w http.ResponseWriter, r *http.Request)

	// Calendar
	GetWeeksForMonth(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
	now            func() time.Time
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService, now: time.Now}
}

// ========== EMPLOYEE VIEWS ==========

func (h *payrollHandlerImpl) GetCalculation(w http.ResponseWriter, r *http.Request) {
	monthStart, monthEnd := payperiod.MonthRange(h.currentPeriod())

	req := payroll.CalculatePayrollRequest{
		EmployeeID: chi.URLParam(r, "employeeId"),
		StartDate:  monthStart.Format(validator.DateLayout),
		EndDate:    monthEnd.Format(validator.DateLayout),
	}
	if start := r.URL.Query().Get("start"); start != "" {
		req.StartDate = start
	}
	if end := r.URL.Query().Get("end"); end != "" {
		req.EndDate = end
	}

	result, err := h.payrollService.CalculatePayroll(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GetWeeklySettlements(w http.ResponseWriter, r *http.Request) {
	year, month, err := h.periodFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.GetWeeklySettlements(r.Context(), chi.URLParam(r, "employeeId"), year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListOutstandingAdvances(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ListOutstandingAdvances(r.Context(), chi.URLParam(r, "employeeId"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListPayments(w http.ResponseWriter, r *http.Request) {
	year, month, err := h.periodFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.ListPayments(r.Context(), chi.URLParam(r, "employeeId"), year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== DELIVERY ==========

func (h *payrollHandlerImpl) DeliverSalary(w http.ResponseWriter, r *http.Request) {
	var req payroll.DeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.DeliverSalary(r.Context(), req)
	if err != nil {
		response.InternalServerError(w, result.Message)
		return
	}
	if !result.Success {
		response.Rejected(w, result.Message)
		return
	}

	response.Created(w, result.Message, result.Payment)
}

func (h *payrollHandlerImpl) GetDeliveryTotals(w http.ResponseWriter, r *http.Request) {
	year, month, err := h.periodFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filter := payroll.TotalsFilter{Year: year, Month: month}
	query := r.URL.Query()
	if pt := query.Get("payment_type"); pt != "" {
		paymentType := employee.PaymentType(pt)
		filter.PaymentType = &paymentType
	}
	if c := query.Get("currency"); c != "" {
		currency := employee.Currency(strings.ToUpper(c))
		filter.Currency = &currency
	}
	if ids := query.Get("employee_ids"); ids != "" {
		for _, id := range strings.Split(ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				filter.EmployeeIDs = append(filter.EmployeeIDs, id)
			}
		}
	}

	result, err := h.payrollService.GetDeliveryTotals(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== CALENDAR ==========

func (h *payrollHandlerImpl) GetWeeksForMonth(w http.ResponseWriter, r *http.Request) {
	year, yearErr := strconv.Atoi(chi.URLParam(r, "year"))
	month, monthErr := strconv.Atoi(chi.URLParam(r, "month"))
	if yearErr != nil || monthErr != nil {
		response.HandleError(w, payroll.ErrInvalidPeriod)
		return
	}

	result, err := h.payrollService.GetWeeksForMonth(r.Context(), year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== HELPERS ==========

func (h *payrollHandlerImpl) currentPeriod() (int, int) {
	now := h.now().UTC()
	return now.Year(), int(now.Month())
}

// periodFromQuery reads year and month, defaulting each to the current month.
func (h *payrollHandlerImpl) periodFromQuery(r *http.Request) (int, int, error) {
	year, month := h.currentPeriod()

	var errs validator.ValidationErrors
	if y := r.URL.Query().Get("year"); y != "" {
		v, err := strconv.Atoi(y)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "year", Message: "must be a number"})
		}
		year = v
	}
	if m := r.URL.Query().Get("month"); m != "" {
		v, err := strconv.Atoi(m)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "month", Message: "must be a number"})
		}
		month = v
	}

	if len(errs) > 0 {
		return 0, 0, errs
	}
	return year, month, nil
}
