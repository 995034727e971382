package employee

import "errors"

var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrInvalidPaymentType = errors.New("payment type must be monthly, weekly or hourly")
	ErrInvalidCurrency    = errors.New("currency must be SYP, USD or TRY")
)
