package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/payperiod"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== CALCULATION DTOs ==========

// MaxCalculationDays bounds a single calculation request, inclusive of both ends.
const MaxCalculationDays = 366

type CalculatePayrollRequest struct {
	EmployeeID string `json:"employee_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

func (r *CalculatePayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if verr := employee.ValidateID("employee_id", r.EmployeeID); verr != nil {
		errs = append(errs, *verr)
	}
	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "must be in YYYY-MM-DD format"})
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "must be in YYYY-MM-DD format"})
	}
	switch {
	case !startOK || !endOK:
	case start.After(end):
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: ErrInvalidDateRange.Error()})
	case end.After(start.AddDate(0, 0, MaxCalculationDays-1)):
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: ErrDateRangeTooLong.Error()})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Range returns the parsed dates. Call Validate first.
func (r *CalculatePayrollRequest) Range() (time.Time, time.Time) {
	start, _ := validator.IsValidDate(r.StartDate)
	end, _ := validator.IsValidDate(r.EndDate)
	return start, end
}

type SalaryAdvanceResponse struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employee_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Date       string          `json:"date"`
	Status     string          `json:"status"`
}

type CalculationResponse struct {
	EmployeeID            string                                  `json:"employee_id"`
	PaymentType           string                                  `json:"payment_type"`
	Currency              string                                  `json:"currency"`
	IsFlatSalary          bool                                    `json:"is_flat_salary"`
	StartDate             string                                  `json:"start_date"`
	EndDate               string                                  `json:"end_date"`
	BaseSalary            decimal.Decimal                         `json:"base_salary"`
	OvertimePay           decimal.Decimal                         `json:"overtime_pay"`
	BonusesTotal          decimal.Decimal                         `json:"bonuses_total"`
	LatenessDeductions    decimal.Decimal                         `json:"lateness_deductions"`
	UnpaidLeaveDeductions decimal.Decimal                         `json:"unpaid_leave_deductions"`
	ManualDeductionsTotal decimal.Decimal                         `json:"manual_deductions_total"`
	AdvancesTotal         decimal.Decimal                         `json:"advances_total"`
	TotalDeductions       decimal.Decimal                         `json:"total_deductions"`
	NetSalary             decimal.Decimal                         `json:"net_salary"`
	TotalWorkedHours      decimal.Decimal                         `json:"total_worked_hours"`
	TotalRegularHours     decimal.Decimal                         `json:"total_regular_hours"`
	TotalOvertimeHours    decimal.Decimal                         `json:"total_overtime_hours"`
	TotalLateMinutes      int                                     `json:"total_late_minutes"`
	UnpaidLeaveDays       int                                     `json:"unpaid_leave_days"`
	OutstandingAdvances   []SalaryAdvanceResponse                 `json:"outstanding_advances"`
	OtherCurrencies       map[employee.Currency]CurrencyLineItems `json:"other_currencies,omitempty"`
}

// ========== WEEK DTOs ==========

type WeekResponse struct {
	WeekNumber int    `json:"week_number"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

type WeekSettlementResponse struct {
	WeekResponse
	Earned     decimal.Decimal `json:"earned"`
	Bonuses    decimal.Decimal `json:"bonuses"`
	Deductions decimal.Decimal `json:"deductions"`
	Net        decimal.Decimal `json:"net"`
	Currency   string          `json:"currency"`
	Status     string          `json:"status"`
	PaymentID  *string         `json:"payment_id,omitempty"`
}

// ========== LEDGER DTOs ==========

type PaymentResponse struct {
	ID               string          `json:"id"`
	EmployeeID       string          `json:"employee_id"`
	PeriodYear       int             `json:"period_year"`
	PeriodMonth      int             `json:"period_month"`
	WeekNumber       *int            `json:"week_number,omitempty"`
	PaymentType      string          `json:"payment_type"`
	Currency         string          `json:"currency"`
	GrossAmount      decimal.Decimal `json:"gross_amount"`
	Deductions       decimal.Decimal `json:"deductions"`
	AdvancesDeducted decimal.Decimal `json:"advances_deducted"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	AdvanceIDs       []string        `json:"advance_ids"`
	DeliveredBy      *string         `json:"delivered_by,omitempty"`
	PaidAt           string          `json:"paid_at"`
}

// ========== DELIVERY DTOs ==========

type DeliveryRequest struct {
	EmployeeID         string   `json:"employee_id"`
	Year               int      `json:"year"`
	Month              int      `json:"month"`
	WeekNumber         *int     `json:"week_number,omitempty"`
	AdvanceIDsToDeduct []string `json:"advance_ids_to_deduct"`
}

func (r *DeliveryRequest) Validate() error {
	var errs validator.ValidationErrors

	if verr := employee.ValidateID("employee_id", r.EmployeeID); verr != nil {
		errs = append(errs, *verr)
	}
	if !validator.IsValidPeriod(r.Year, r.Month) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: ErrInvalidPeriod.Error()})
	}
	if r.WeekNumber != nil && *r.WeekNumber < 1 {
		errs = append(errs, validator.ValidationError{Field: "week_number", Message: "must be a positive number"})
	}
	for _, id := range r.AdvanceIDsToDeduct {
		if !validator.IsValidUUID(id) {
			errs = append(errs, validator.ValidationError{Field: "advance_ids_to_deduct", Message: "must contain valid UUIDs"})
			break
		}
	}
	if validator.HasDuplicates(r.AdvanceIDsToDeduct) {
		errs = append(errs, validator.ValidationError{Field: "advance_ids_to_deduct", Message: "must not contain duplicates"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *DeliveryRequest) Key() LedgerKey {
	return LedgerKey{EmployeeID: r.EmployeeID, Year: r.Year, Month: r.Month, WeekNumber: r.WeekNumber}
}

// DeliveryResult is always populated; Success is false when the delivery was rejected.
type DeliveryResult struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Payment *PaymentResponse `json:"payment,omitempty"`
}

// ========== TOTALS DTOs ==========

type TotalsFilter struct {
	Year        int
	Month       int
	PaymentType *employee.PaymentType
	Currency    *employee.Currency
	EmployeeIDs []string
}

func (f *TotalsFilter) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidPeriod(f.Year, f.Month) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: ErrInvalidPeriod.Error()})
	}
	if err := f.Roster().Validate(); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			errs = append(errs, verrs...)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (f *TotalsFilter) Roster() employee.RosterFilter {
	return employee.RosterFilter{PaymentType: f.PaymentType, Currency: f.Currency, EmployeeIDs: f.EmployeeIDs}
}

type DeliveryTotalsResponse struct {
	Year          int                                   `json:"year"`
	Month         int                                   `json:"month"`
	Totals        map[employee.Currency]decimal.Decimal `json:"totals"`
	EmployeeCount int                                   `json:"employee_count"`
}

// ========== MAPPERS ==========

func NewSalaryAdvanceResponse(a SalaryAdvance) SalaryAdvanceResponse {
	return SalaryAdvanceResponse{
		ID:         a.ID,
		EmployeeID: a.EmployeeID,
		Amount:     a.Amount,
		Currency:   string(a.Currency),
		Date:       a.Date.Format(validator.DateLayout),
		Status:     string(a.Status),
	}
}

func NewCalculationResponse(r CalculationResult) CalculationResponse {
	advances := make([]SalaryAdvanceResponse, 0, len(r.OutstandingAdvances))
	for _, a := range r.OutstandingAdvances {
		advances = append(advances, NewSalaryAdvanceResponse(a))
	}
	return CalculationResponse{
		EmployeeID:            r.EmployeeID,
		PaymentType:           string(r.PaymentType),
		Currency:              string(r.Currency),
		IsFlatSalary:          r.IsFlatSalary,
		StartDate:             r.StartDate.Format(validator.DateLayout),
		EndDate:               r.EndDate.Format(validator.DateLayout),
		BaseSalary:            r.BaseSalary,
		OvertimePay:           r.OvertimePay,
		BonusesTotal:          r.BonusesTotal,
		LatenessDeductions:    r.LatenessDeductions,
		UnpaidLeaveDeductions: r.UnpaidLeaveDeductions,
		ManualDeductionsTotal: r.ManualDeductionsTotal,
		AdvancesTotal:         r.AdvancesTotal,
		TotalDeductions:       r.TotalDeductions,
		NetSalary:             r.NetSalary,
		TotalWorkedHours:      r.TotalWorkedHours,
		TotalRegularHours:     r.TotalRegularHours,
		TotalOvertimeHours:    r.TotalOvertimeHours,
		TotalLateMinutes:      r.TotalLateMinutes,
		UnpaidLeaveDays:       r.UnpaidLeaveDays,
		OutstandingAdvances:   advances,
		OtherCurrencies:       r.OtherCurrencies,
	}
}

func NewWeekResponse(w payperiod.Week) WeekResponse {
	return WeekResponse{
		WeekNumber: w.Number,
		StartDate:  w.Start.Format(validator.DateLayout),
		EndDate:    w.End.Format(validator.DateLayout),
	}
}

func NewWeekSettlementResponse(s WeekSettlement, currency employee.Currency) WeekSettlementResponse {
	return WeekSettlementResponse{
		WeekResponse: NewWeekResponse(s.Week),
		Earned:       s.Earned,
		Bonuses:      s.Bonuses,
		Deductions:   s.Deductions,
		Net:          s.Net,
		Currency:     string(currency),
		Status:       string(s.Status),
		PaymentID:    s.PaymentID,
	}
}

func NewPaymentResponse(p Payment) PaymentResponse {
	advanceIDs := p.AdvanceIDs
	if advanceIDs == nil {
		advanceIDs = []string{}
	}
	return PaymentResponse{
		ID:               p.ID,
		EmployeeID:       p.EmployeeID,
		PeriodYear:       p.PeriodYear,
		PeriodMonth:      p.PeriodMonth,
		WeekNumber:       p.WeekNumber,
		PaymentType:      string(p.PaymentType),
		Currency:         string(p.Currency),
		GrossAmount:      p.GrossAmount,
		Deductions:       p.Deductions,
		AdvancesDeducted: p.AdvancesDeducted,
		NetAmount:        p.NetAmount,
		AdvanceIDs:       advanceIDs,
		DeliveredBy:      p.DeliveredBy,
		PaidAt:           p.PaidAt.UTC().Format(time.RFC3339),
	}
}
