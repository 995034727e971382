package employee

import (
	"slices"

	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
)

// RosterFilter narrows the active workforce. Zero values match everything.
type RosterFilter struct {
	PaymentType *PaymentType
	Currency    *Currency
	EmployeeIDs []string
}

func (f RosterFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.PaymentType != nil && !f.PaymentType.IsValid() {
		errs = append(errs, validator.ValidationError{Field: "payment_type", Message: ErrInvalidPaymentType.Error()})
	}
	if f.Currency != nil && !f.Currency.IsValid() {
		errs = append(errs, validator.ValidationError{Field: "currency", Message: ErrInvalidCurrency.Error()})
	}

	for _, id := range f.EmployeeIDs {
		if !validator.IsValidUUID(id) {
			errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "must contain valid UUIDs"})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateID checks an employee ID before it reaches storage.
func ValidateID(field, id string) *validator.ValidationError {
	switch {
	case validator.IsEmpty(id):
		return &validator.ValidationError{Field: field, Message: "is required"}
	case !validator.IsValidUUID(id):
		return &validator.ValidationError{Field: field, Message: "must be a valid UUID"}
	}
	return nil
}

// Matches applies the filter to an already resolved employee.
func (f RosterFilter) Matches(e Employee) bool {
	if f.PaymentType != nil && e.PaymentType() != *f.PaymentType {
		return false
	}
	if f.Currency != nil && e.Currency() != *f.Currency {
		return false
	}
	if len(f.EmployeeIDs) > 0 && !slices.Contains(f.EmployeeIDs, e.ID) {
		return false
	}
	return true
}
