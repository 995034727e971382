package payroll

import "errors"

var (
	ErrInvalidPeriod             = errors.New("invalid payroll period")
	ErrInvalidDateRange          = errors.New("start date must not be after end date")
	ErrDateRangeTooLong          = errors.New("date range must not exceed 366 days")
	ErrPeriodAlreadySettled      = errors.New("salary for this period has already been delivered")
	ErrWeekNumberRequired        = errors.New("week number is required for weekly-paid employees")
	ErrWeekNumberNotAllowed      = errors.New("week number is only allowed for weekly-paid employees")
	ErrWeekNotInMonth            = errors.New("week number does not exist in this month")
	ErrNotWeeklyEmployee         = errors.New("employee is not paid weekly")
	ErrAdvanceNotFound           = errors.New("salary advance not found")
	ErrAdvanceNotOutstanding     = errors.New("salary advance is not outstanding")
	ErrAdvanceOtherEmployee      = errors.New("salary advance belongs to another employee")
	ErrAdvanceCurrencyMismatch   = errors.New("salary advance currency differs from pay currency")
	ErrAdvanceSettlementConflict = errors.New("salary advances changed during delivery")
	ErrDeliveryInProgress        = errors.New("another delivery for this period is in progress")
)
